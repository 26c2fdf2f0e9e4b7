package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
)

type FollowService struct {
	repos   *Repos
	emitter Emitter
}

func NewFollowService(repos *Repos, emitter Emitter) *FollowService {
	return &FollowService{repos: repos, emitter: emitter}
}

// RequestFollow 关注公开账号直接生效；私密账号创建待审批请求
func (s *FollowService) RequestFollow(ctx context.Context, actorID, targetID uint64) (rel *model.FollowRelationship, err error) {
	defer func() { observe("request_follow", err) }()

	target, err := s.repos.loadTarget(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.checkBlock(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	status := model.StatusAccepted
	if target.IsPrivate {
		status = model.StatusPending
	}
	rel, err = s.repos.Follows.Create(ctx, actorID, targetID, status)
	if errors.Is(err, mysql.ErrDuplicate) {
		e := pkg.AlreadyExists("follow relationship already exists")
		if rel != nil {
			e = e.WithDetail("status", rel.Status)
		}
		return nil, e
	}
	if err != nil {
		return nil, pkg.Internal("create follow", err)
	}

	n := Notification{RecipientID: targetID, SenderID: actorID, RelatedEntityID: rel.ID}
	if status == model.StatusAccepted {
		n.Type, n.Content = model.NotifyNewFollower, "You have a new follower"
	} else {
		n.Type, n.Content = model.NotifyFollowRequest, "You have a new follow request"
	}
	emit(ctx, s.emitter, n)
	return rel, nil
}

// AcceptFollowRequest actor 同意 requester 的关注请求
func (s *FollowService) AcceptFollowRequest(ctx context.Context, actorID, requesterID uint64) (rel *model.FollowRelationship, err error) {
	defer func() { observe("accept_follow", err) }()

	if err := s.repos.checkBlock(ctx, actorID, requesterID); err != nil {
		return nil, err
	}
	rel, err = s.respond(ctx, actorID, requesterID, model.StatusAccepted)
	if err != nil {
		return nil, err
	}
	emit(ctx, s.emitter, Notification{
		RecipientID:     requesterID,
		SenderID:        actorID,
		Type:            model.NotifyFollowAccepted,
		Content:         "Your follow request was accepted",
		RelatedEntityID: rel.ID,
	})
	return rel, nil
}

// RejectFollowRequest 拒绝不通知对方
func (s *FollowService) RejectFollowRequest(ctx context.Context, actorID, requesterID uint64) (rel *model.FollowRelationship, err error) {
	defer func() { observe("reject_follow", err) }()
	return s.respond(ctx, actorID, requesterID, model.StatusRejected)
}

func (s *FollowService) respond(ctx context.Context, actorID, requesterID uint64, to model.RelationStatus) (*model.FollowRelationship, error) {
	changed, err := s.repos.Follows.Respond(ctx, requesterID, actorID, to)
	if err != nil {
		return nil, pkg.Internal("respond follow request", err)
	}
	rel, err := s.repos.Follows.Find(ctx, requesterID, actorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NotFound("follow request not found")
	}
	if err != nil {
		return nil, pkg.Internal("load follow request", err)
	}
	if !changed {
		return nil, pkg.InvalidState("follow request is not pending").WithDetail("status", rel.Status)
	}
	return rel, nil
}

// CancelFollowRequest 撤回自己发出且尚未处理的请求
func (s *FollowService) CancelFollowRequest(ctx context.Context, actorID, targetID uint64) (err error) {
	defer func() { observe("cancel_follow", err) }()

	changed, err := s.repos.Follows.DeletePending(ctx, actorID, targetID)
	if err != nil {
		return pkg.Internal("cancel follow request", err)
	}
	if !changed {
		return pkg.NotFound("no pending follow request to %d", targetID)
	}
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint64) (err error) {
	defer func() { observe("unfollow", err) }()

	if actorID == targetID {
		return pkg.InvalidOperation("cannot unfollow yourself")
	}
	changed, err := s.repos.Follows.DeleteAccepted(ctx, actorID, targetID)
	if err != nil {
		return pkg.Internal("unfollow", err)
	}
	if !changed {
		return pkg.NotFound("not following user %d", targetID)
	}
	return nil
}

// RelationView 两个用户之间的关系概览，Following/FollowedBy 为空表示没有记录
type RelationView struct {
	TargetID   uint64               `json:"targetId"`
	Following  model.RelationStatus `json:"following,omitempty"`
	FollowedBy model.RelationStatus `json:"followedBy,omitempty"`
	IsFriend   bool                 `json:"isFriend"`
	Blocking   bool                 `json:"blocking"`
	BlockedBy  bool                 `json:"blockedBy"`
}

func (s *FollowService) Relation(ctx context.Context, actorID, targetID uint64) (*RelationView, error) {
	if _, err := s.repos.loadTarget(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	view := &RelationView{TargetID: targetID}

	status := func(follower, followee uint64) (model.RelationStatus, error) {
		rel, err := s.repos.Follows.Find(ctx, follower, followee)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		if err != nil {
			return "", pkg.Internal("load follow", err)
		}
		return rel.Status, nil
	}
	var err error
	if view.Following, err = status(actorID, targetID); err != nil {
		return nil, err
	}
	if view.FollowedBy, err = status(targetID, actorID); err != nil {
		return nil, err
	}
	if view.IsFriend, err = s.repos.Friends.IsFriend(ctx, actorID, targetID); err != nil {
		return nil, pkg.Internal("load friendship", err)
	}
	if view.Blocking, err = s.repos.Blocks.IsBlocked(ctx, actorID, targetID); err != nil {
		return nil, pkg.Internal("load block", err)
	}
	if view.BlockedBy, err = s.repos.Blocks.IsBlocked(ctx, targetID, actorID); err != nil {
		return nil, pkg.Internal("load block", err)
	}
	return view, nil
}
