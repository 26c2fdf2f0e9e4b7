package mysql

import (
	"context"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func (r *OutboxRepository) Insert(ctx context.Context, ob *model.NotificationOutbox) error {
	return r.DB.WithContext(ctx).Create(ob).Error
}

// List outbox 待投递记录，按写入顺序
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.NotificationOutbox, error) {
	var list []model.NotificationOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，记录重试次数；failed=true 时不再重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64, retry int, failed bool) error {
	status := model.OutboxPending
	if failed {
		status = model.OutboxFailed
	}
	return r.DB.WithContext(ctx).Model(&model.NotificationOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "retry": retry}).Error
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.NotificationOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
