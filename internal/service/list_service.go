package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
)

// FollowItem 关注记录加上对方的用户信息
type FollowItem struct {
	model.FollowRelationship
	User *model.UserSummary `json:"user"`
}

type FriendItem struct {
	model.FriendRequest
	User *model.UserSummary `json:"user"`
}

type BlockItem struct {
	model.UserBlock
	User *model.UserSummary `json:"user"`
}

type ListService struct {
	repos *Repos
}

func NewListService(repos *Repos) *ListService {
	return &ListService{repos: repos}
}

// Followers ownerID 的粉丝。私密账号只对本人和已通过的粉丝可见
func (s *ListService) Followers(ctx context.Context, viewerID, ownerID uint64, q pkg.PageQuery) (*pkg.Page[FollowItem], error) {
	if err := s.checkVisible(ctx, viewerID, ownerID); err != nil {
		return nil, err
	}
	q = q.Normalize()
	rows, total, err := s.repos.Follows.ListByFollowee(ctx, ownerID, model.StatusAccepted, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list followers", err)
	}
	return s.follows(ctx, rows, total, q, func(r model.FollowRelationship) uint64 { return r.FollowerID })
}

func (s *ListService) Following(ctx context.Context, viewerID, ownerID uint64, q pkg.PageQuery) (*pkg.Page[FollowItem], error) {
	if err := s.checkVisible(ctx, viewerID, ownerID); err != nil {
		return nil, err
	}
	q = q.Normalize()
	rows, total, err := s.repos.Follows.ListByFollower(ctx, ownerID, model.StatusAccepted, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list following", err)
	}
	return s.follows(ctx, rows, total, q, func(r model.FollowRelationship) uint64 { return r.FolloweeID })
}

// PendingFollowRequests 别人发给我的待审批请求
func (s *ListService) PendingFollowRequests(ctx context.Context, userID uint64, q pkg.PageQuery) (*pkg.Page[FollowItem], error) {
	q = q.Normalize()
	rows, total, err := s.repos.Follows.ListByFollowee(ctx, userID, model.StatusPending, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list follow requests", err)
	}
	return s.follows(ctx, rows, total, q, func(r model.FollowRelationship) uint64 { return r.FollowerID })
}

// SentFollowRequests 我发出的关注记录，status 为空时返回全部
func (s *ListService) SentFollowRequests(ctx context.Context, userID uint64, status model.RelationStatus, q pkg.PageQuery) (*pkg.Page[FollowItem], error) {
	if status != "" && !status.Valid() {
		return nil, pkg.InvalidOperation("unknown status %q", status)
	}
	q = q.Normalize()
	rows, total, err := s.repos.Follows.ListByFollower(ctx, userID, status, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list sent follow requests", err)
	}
	return s.follows(ctx, rows, total, q, func(r model.FollowRelationship) uint64 { return r.FolloweeID })
}

func (s *ListService) Friends(ctx context.Context, userID uint64, q pkg.PageQuery) (*pkg.Page[FriendItem], error) {
	q = q.Normalize()
	rows, total, err := s.repos.Friends.ListFriends(ctx, userID, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list friends", err)
	}
	return s.friends(ctx, rows, total, q, func(r model.FriendRequest) uint64 { return r.OtherParty(userID) })
}

func (s *ListService) PendingFriendRequests(ctx context.Context, userID uint64, q pkg.PageQuery) (*pkg.Page[FriendItem], error) {
	q = q.Normalize()
	rows, total, err := s.repos.Friends.ListReceived(ctx, userID, model.StatusPending, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list friend requests", err)
	}
	return s.friends(ctx, rows, total, q, func(r model.FriendRequest) uint64 { return r.SenderID })
}

func (s *ListService) SentFriendRequests(ctx context.Context, userID uint64, q pkg.PageQuery) (*pkg.Page[FriendItem], error) {
	q = q.Normalize()
	rows, total, err := s.repos.Friends.ListSent(ctx, userID, model.StatusPending, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list sent friend requests", err)
	}
	return s.friends(ctx, rows, total, q, func(r model.FriendRequest) uint64 { return r.RecipientID })
}

func (s *ListService) Blocked(ctx context.Context, userID uint64, q pkg.PageQuery) (*pkg.Page[BlockItem], error) {
	q = q.Normalize()
	rows, total, err := s.repos.Blocks.List(ctx, userID, q.Offset(), q.Limit)
	if err != nil {
		return nil, pkg.Internal("list blocked users", err)
	}
	items, err := attachUsers(ctx, s.repos.Users, rows,
		func(r model.UserBlock) uint64 { return r.BlockedID },
		func(r model.UserBlock, u *model.UserSummary) BlockItem { return BlockItem{UserBlock: r, User: u} })
	if err != nil {
		return nil, err
	}
	return pkg.NewPage(items, q, total), nil
}

func (s *ListService) checkVisible(ctx context.Context, viewerID, ownerID uint64) error {
	owner, err := s.repos.Users.FindByID(ctx, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkg.NotFound("user %d not found", ownerID)
	}
	if err != nil {
		return pkg.Internal("load user", err)
	}
	if viewerID == ownerID {
		return nil
	}
	if err := s.repos.checkBlock(ctx, viewerID, ownerID); err != nil {
		return err
	}
	if !owner.IsPrivate {
		return nil
	}
	ok, err := s.repos.Follows.IsFollowing(ctx, viewerID, ownerID)
	if err != nil {
		return pkg.Internal("check follow", err)
	}
	if !ok {
		return pkg.Forbidden("this account is private")
	}
	return nil
}

func (s *ListService) follows(ctx context.Context, rows []model.FollowRelationship, total int64, q pkg.PageQuery, other func(model.FollowRelationship) uint64) (*pkg.Page[FollowItem], error) {
	items, err := attachUsers(ctx, s.repos.Users, rows, other,
		func(r model.FollowRelationship, u *model.UserSummary) FollowItem {
			return FollowItem{FollowRelationship: r, User: u}
		})
	if err != nil {
		return nil, err
	}
	return pkg.NewPage(items, q, total), nil
}

func (s *ListService) friends(ctx context.Context, rows []model.FriendRequest, total int64, q pkg.PageQuery, other func(model.FriendRequest) uint64) (*pkg.Page[FriendItem], error) {
	items, err := attachUsers(ctx, s.repos.Users, rows, other,
		func(r model.FriendRequest, u *model.UserSummary) FriendItem {
			return FriendItem{FriendRequest: r, User: u}
		})
	if err != nil {
		return nil, err
	}
	return pkg.NewPage(items, q, total), nil
}

// attachUsers 一次批量查询补齐列表里的用户信息
func attachUsers[T, R any](ctx context.Context, users *mysql.UserRepository, rows []T, idOf func(T) uint64, wrap func(T, *model.UserSummary) R) ([]R, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, idOf(r))
	}
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkg.Internal("load users", err)
	}
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		var summary *model.UserSummary
		if u, ok := found[idOf(r)]; ok {
			sm := u.Summary()
			summary = &sm
		}
		out = append(out, wrap(r, summary))
	}
	return out, nil
}
