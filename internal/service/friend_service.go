package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type FriendService struct {
	repos   *Repos
	emitter Emitter
}

func NewFriendService(repos *Repos, emitter Emitter) *FriendService {
	return &FriendService{repos: repos, emitter: emitter}
}

// SendFriendRequest 两人之间任意方向已有 pending/accepted 申请时返回 AlreadyExists
func (s *FriendService) SendFriendRequest(ctx context.Context, actorID, targetID uint64) (req *model.FriendRequest, err error) {
	defer func() { observe("send_friend_request", err) }()

	if _, err := s.repos.loadTarget(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	if err := s.repos.checkBlock(ctx, actorID, targetID); err != nil {
		return nil, err
	}

	req, err = s.repos.Friends.Create(ctx, actorID, targetID)
	if errors.Is(err, mysql.ErrDuplicate) {
		e := pkg.AlreadyExists("friend request already exists")
		if req != nil {
			e = e.WithDetail("status", req.Status).WithDetail("requestId", req.ID)
		}
		return nil, e
	}
	if err != nil {
		return nil, pkg.Internal("create friend request", err)
	}

	emit(ctx, s.emitter, Notification{
		RecipientID:     targetID,
		SenderID:        actorID,
		Type:            model.NotifyFriendRequest,
		Content:         "You have a new friend request",
		RelatedEntityID: req.ID,
	})
	return req, nil
}

// RespondFriendRequest 只有接收方可以处理，已处理过的申请视为不存在
func (s *FriendService) RespondFriendRequest(ctx context.Context, actorID, requestID uint64, decision Decision) (req *model.FriendRequest, err error) {
	defer func() { observe("respond_friend_request", err) }()

	var to model.RelationStatus
	switch decision {
	case DecisionAccept:
		to = model.StatusAccepted
	case DecisionReject:
		to = model.StatusRejected
	default:
		return nil, pkg.InvalidOperation("decision must be accept or reject")
	}

	req, err = s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RecipientID != actorID {
		return nil, pkg.Forbidden("only the recipient can respond to this request")
	}
	if req.Status != model.StatusPending {
		return nil, pkg.NotFound("no pending friend request %d", requestID)
	}
	if to == model.StatusAccepted {
		if err := s.repos.checkBlock(ctx, req.SenderID, req.RecipientID); err != nil {
			return nil, err
		}
	}

	changed, err := s.repos.Friends.Respond(ctx, requestID, actorID, to)
	if err != nil {
		return nil, pkg.Internal("respond friend request", err)
	}
	if !changed {
		return nil, pkg.NotFound("no pending friend request %d", requestID)
	}
	if req, err = s.load(ctx, requestID); err != nil {
		return nil, err
	}

	if to == model.StatusAccepted {
		emit(ctx, s.emitter, Notification{
			RecipientID:     req.SenderID,
			SenderID:        actorID,
			Type:            model.NotifyFriendAccepted,
			Content:         "Your friend request was accepted",
			RelatedEntityID: req.ID,
		})
	}
	return req, nil
}

// CancelFriendRequest 发送方撤回 pending 申请
func (s *FriendService) CancelFriendRequest(ctx context.Context, actorID, requestID uint64) (err error) {
	defer func() { observe("cancel_friend_request", err) }()

	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderID != actorID {
		return pkg.Forbidden("only the sender can cancel this request")
	}
	changed, err := s.repos.Friends.DeletePending(ctx, requestID, actorID)
	if err != nil {
		return pkg.Internal("cancel friend request", err)
	}
	if !changed {
		return pkg.NotFound("no pending friend request %d", requestID)
	}
	return nil
}

// Unfriend 无论谁发起的申请，双方都可以解除
func (s *FriendService) Unfriend(ctx context.Context, actorID, friendID uint64) (err error) {
	defer func() { observe("unfriend", err) }()

	if actorID == friendID {
		return pkg.InvalidOperation("cannot unfriend yourself")
	}
	changed, err := s.repos.Friends.DeleteAccepted(ctx, actorID, friendID)
	if err != nil {
		return pkg.Internal("unfriend", err)
	}
	if !changed {
		return pkg.NotFound("user %d is not your friend", friendID)
	}
	return nil
}

func (s *FriendService) load(ctx context.Context, requestID uint64) (*model.FriendRequest, error) {
	req, err := s.repos.Friends.FindByID(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NotFound("friend request %d not found", requestID)
	}
	if err != nil {
		return nil, pkg.Internal("load friend request", err)
	}
	return req, nil
}
