package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
)

type FriendRepository struct {
	DB      *gorm.DB
	Counter *Counter
}

func (r *FriendRepository) FindByID(ctx context.Context, id uint64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.DB.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActive 查询两人之间任意方向的 pending/accepted 申请
func (r *FriendRepository) FindActive(ctx context.Context, a, b uint64) (*model.FriendRequest, error) {
	return findActiveFriend(r.DB.WithContext(ctx), a, b)
}

func findActiveFriend(db *gorm.DB, a, b uint64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := db.Where("active_pair = ?", model.PairKey(a, b)).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Create 发送好友申请。同方向被拒绝过的申请重新打开为 pending，
// 任意方向已有有效申请时返回该申请和 ErrDuplicate
func (r *FriendRepository) Create(ctx context.Context, senderID, recipientID uint64) (*model.FriendRequest, error) {
	var (
		out      *model.FriendRequest
		existing *model.FriendRequest
	)
	key := model.PairKey(senderID, recipientID)
	now := time.Now().UTC()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findActiveFriend(tx, senderID, recipientID)
		if err == nil {
			existing = found
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var old model.FriendRequest
		err = tx.Where("sender_id = ? AND recipient_id = ?", senderID, recipientID).First(&old).Error
		switch {
		case err == nil:
			res := tx.Model(&model.FriendRequest{}).
				Where("id = ? AND status = ?", old.ID, model.StatusRejected).
				Updates(map[string]any{
					"status":       model.StatusPending,
					"active_pair":  key,
					"requested_at": now,
					"responded_at": nil,
				})
			if res.Error != nil {
				if isDuplicate(res.Error) {
					return ErrDuplicate
				}
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrDuplicate
			}
			old.Status = model.StatusPending
			old.ActivePair = &key
			old.RequestedAt = now
			old.RespondedAt = nil
			out = &old
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			req := &model.FriendRequest{
				SenderID:    senderID,
				RecipientID: recipientID,
				Status:      model.StatusPending,
				ActivePair:  &key,
				RequestedAt: now,
			}
			if err := tx.Create(req).Error; err != nil {
				if isDuplicate(err) {
					return ErrDuplicate
				}
				return err
			}
			out = req
			return nil
		default:
			return err
		}
	})
	if errors.Is(err, ErrDuplicate) {
		if existing == nil {
			existing, _ = r.FindActive(ctx, senderID, recipientID)
		}
		return existing, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Respond 接收方处理 pending 申请。accepted 时双方好友数 +1，rejected 时释放 active_pair
func (r *FriendRepository) Respond(ctx context.Context, id, recipientID uint64, to model.RelationStatus) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": to, "responded_at": time.Now().UTC()}
		if to == model.StatusRejected {
			updates["active_pair"] = nil
		}
		res := tx.Model(&model.FriendRequest{}).
			Where("id = ? AND recipient_id = ? AND status = ?", id, recipientID, model.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if to != model.StatusAccepted {
			return nil
		}
		var req model.FriendRequest
		if err := tx.Select("id", "sender_id", "recipient_id").First(&req, id).Error; err != nil {
			return err
		}
		return r.Counter.friend(tx, req.SenderID, req.RecipientID, +1)
	})
	return changed, err
}

// DeletePending 发送方撤回 pending 申请
func (r *FriendRepository) DeletePending(ctx context.Context, id, senderID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND sender_id = ? AND status = ?", id, senderID, model.StatusPending).
		Delete(&model.FriendRequest{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAccepted 解除好友关系，双方好友数 -1
func (r *FriendRepository) DeleteAccepted(ctx context.Context, a, b uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("active_pair = ? AND status = ?", model.PairKey(a, b), model.StatusAccepted).
			Delete(&model.FriendRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return r.Counter.friend(tx, a, b, -1)
	})
	return changed, err
}

func (r *FriendRepository) IsFriend(ctx context.Context, a, b uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("active_pair = ? AND status = ?", model.PairKey(a, b), model.StatusAccepted).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFriends 按成为好友的时间倒序
func (r *FriendRepository) ListFriends(ctx context.Context, userID uint64, offset, limit int) ([]model.FriendRequest, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.FriendRequest{}).
		Where("status = ? AND (sender_id = ? OR recipient_id = ?)", model.StatusAccepted, userID, userID)
	return listFriendRequests(q, "responded_at DESC", offset, limit)
}

func (r *FriendRepository) ListReceived(ctx context.Context, userID uint64, status model.RelationStatus, offset, limit int) ([]model.FriendRequest, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.FriendRequest{}).Where("recipient_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return listFriendRequests(q, "requested_at DESC", offset, limit)
}

func (r *FriendRepository) ListSent(ctx context.Context, userID uint64, status model.RelationStatus, offset, limit int) ([]model.FriendRequest, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.FriendRequest{}).Where("sender_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return listFriendRequests(q, "requested_at DESC", offset, limit)
}

func listFriendRequests(q *gorm.DB, order string, offset, limit int) ([]model.FriendRequest, int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.FriendRequest
	if total == 0 {
		return rows, 0, nil
	}
	if err := q.Order(order).Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
