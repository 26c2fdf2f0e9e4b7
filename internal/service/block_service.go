package service

import (
	"context"

	"Lee_Social/internal/pkg"
)

type BlockService struct {
	repos *Repos
	// dissolveTies 拉黑时是否同时解除已有关系
	dissolveTies bool
}

func NewBlockService(repos *Repos, dissolveTies bool) *BlockService {
	return &BlockService{repos: repos, dissolveTies: dissolveTies}
}

// Block 重复拉黑不报错，created 表示本次是否新增
func (s *BlockService) Block(ctx context.Context, actorID, targetID uint64) (created bool, err error) {
	defer func() { observe("block", err) }()

	if _, err := s.repos.loadTarget(ctx, actorID, targetID); err != nil {
		return false, err
	}
	created, err = s.repos.Blocks.Block(ctx, actorID, targetID, s.dissolveTies)
	if err != nil {
		return false, pkg.Internal("block user", err)
	}
	return created, nil
}

// Unblock 幂等
func (s *BlockService) Unblock(ctx context.Context, actorID, targetID uint64) (removed bool, err error) {
	defer func() { observe("unblock", err) }()

	if actorID == targetID {
		return false, pkg.InvalidOperation("cannot unblock yourself")
	}
	removed, err = s.repos.Blocks.Unblock(ctx, actorID, targetID)
	if err != nil {
		return false, pkg.Internal("unblock user", err)
	}
	return removed, nil
}
