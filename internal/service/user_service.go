package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
	"Lee_Social/internal/repository/redis"
)

type UserService struct {
	users    *mysql.UserRepository
	blocks   *mysql.BlockRepository
	sessions *redis.TokenRepository
	tokens   *pkg.TokenManager
	emailSvc *EmailService
}

func NewUserService(repos *Repos, sessions *redis.TokenRepository, tokens *pkg.TokenManager, emailSvc *EmailService) *UserService {
	return &UserService{
		users:    repos.Users,
		blocks:   repos.Blocks,
		sessions: sessions,
		tokens:   tokens,
		emailSvc: emailSvc,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Email    string
	Code     string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	// 验证code是否正确
	if err := s.emailSvc.VerifyCode(ctx, redis.ScopeRegister, in.Email, in.Code); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkg.Internal("hash password", err)
	}
	user := &model.User{
		Username: in.Username,
		Password: string(hash),
		Email:    in.Email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, mysql.ErrDuplicate) {
			return nil, pkg.AlreadyExists("username or email already taken")
		}
		return nil, pkg.Internal("create user", err)
	}
	return user, nil
}

// Login 新登录覆盖 redis 中的旧 token，旧会话随即失效
func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.Unauthenticated("invalid username or password")
	}
	if err != nil {
		return nil, pkg.Internal("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.Unauthenticated("invalid username or password")
	}
	return s.issue(ctx, user.ID, user.Role)
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return pkg.Internal("delete session", s.sessions.Delete(ctx, userID))
}

// Refresh 用当前会话的 refresh token 换一对新 token。
// 登出、改密或已被使用过的 refresh token 都会被拒绝
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, pair, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return nil, pkg.Unauthenticated("invalid or expired refresh token")
	}
	ok, err := s.sessions.Rotate(ctx, claims.UserID, refreshToken, pair.AccessToken, pair.RefreshToken,
		s.tokens.AccessTTL(), s.tokens.RefreshTTL())
	if err != nil {
		return nil, pkg.Internal("rotate session", err)
	}
	if !ok {
		return nil, pkg.Unauthenticated("refresh token has been revoked")
	}
	return pair, nil
}

func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	// 校验code正确性
	if err := s.emailSvc.VerifyCode(ctx, redis.ScopeReset, email, code); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkg.NotFound("email not registered")
	}
	if err != nil {
		return pkg.Internal("load user", err)
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

// ChangePassword 登录态修改密码，成功后需要重新登录
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.InvalidOperation("old password is incorrect")
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

// SetPrivacy 切换为公开不会自动通过已有的待审批请求
func (s *UserService) SetPrivacy(ctx context.Context, userID uint64, isPrivate bool) (*model.User, error) {
	if err := s.users.SetPrivacy(ctx, userID, isPrivate); err != nil {
		return nil, pkg.Internal("update privacy", err)
	}
	return s.loadUser(ctx, userID)
}

// Profile 被任意一方拉黑时不可见
func (s *UserService) Profile(ctx context.Context, viewerID, userID uint64) (*model.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID != userID {
		blocked, err := s.blocks.Between(ctx, viewerID, userID)
		if err != nil {
			return nil, pkg.Internal("check block", err)
		}
		if blocked {
			return nil, pkg.Blocked("interaction between these users is blocked")
		}
	}
	return user, nil
}

func (s *UserService) issue(ctx context.Context, userID uint64, role int) (*pkg.Pair, error) {
	pair, err := s.tokens.GeneratePair(userID, role)
	if err != nil {
		return nil, pkg.Internal("sign token", err)
	}
	// 将token写入redis
	if err := s.sessions.SaveSession(ctx, userID, pair.AccessToken, pair.RefreshToken, s.tokens.AccessTTL(), s.tokens.RefreshTTL()); err != nil {
		return nil, pkg.Internal("save session", err)
	}
	return pair, nil
}

func (s *UserService) setPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return pkg.Internal("hash password", err)
	}
	return pkg.Internal("update password", s.users.UpdatePassword(ctx, userID, string(hash)))
}

func (s *UserService) loadUser(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NotFound("user %d not found", userID)
	}
	if err != nil {
		return nil, pkg.Internal("load user", err)
	}
	return user, nil
}
