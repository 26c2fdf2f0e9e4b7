package mysql

import (
	"context"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.DB.WithContext(ctx).Create(user).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// FindByUsername 用户名或邮箱都可以登录
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var usr model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&usr).Error; err != nil {
		return nil, err
	}
	return &usr, nil
}

// FindByIDs 列表接口批量联查用户，缺失的 id 不出现在结果里
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
	out := make(map[uint64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint64, hashed string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("password", hashed).Error
}

func (r *UserRepository) SetPrivacy(ctx context.Context, userID uint64, isPrivate bool) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("is_private", isPrivate).Error
}
