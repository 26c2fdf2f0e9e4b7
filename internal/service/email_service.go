package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
	"Lee_Social/internal/repository/redis"
)

const codeLength = 6

type EmailService struct {
	mailer pkg.Mailer
	codes  *redis.EmailRepository
	users  *mysql.UserRepository
}

func NewEmailService(mailer pkg.Mailer, codes *redis.EmailRepository, users *mysql.UserRepository) *EmailService {
	return &EmailService{mailer: mailer, codes: codes, users: users}
}

// SendCode 先写 pending，邮件发出后再转为 confirmed，发送失败的验证码不可用
func (s *EmailService) SendCode(ctx context.Context, scope, email string) error {
	subject, err := s.checkScope(ctx, scope, email)
	if err != nil {
		return err
	}
	code, err := pkg.RandDigits(codeLength)
	if err != nil {
		return pkg.Internal("generate code", err)
	}
	if err := s.codes.SavePending(ctx, scope, email, code); err != nil {
		return pkg.Internal("save code", err)
	}

	html := pkg.EmailCodeHTML(subject, code, redis.DefaultEmailCodeTTL)
	if err := s.mailer.Send(ctx, email, subject+" code", html); err != nil {
		_ = s.codes.DeletePending(ctx, scope, email)
		return pkg.Internal("send email", err)
	}

	if err := s.codes.Confirm(ctx, scope, email); err != nil {
		// 确认失败时清除 pending 键
		_ = s.codes.DeletePending(ctx, scope, email)
		return pkg.Internal("confirm code", err)
	}
	slog.Info("email code sent", "scope", scope)
	return nil
}

func (s *EmailService) checkScope(ctx context.Context, scope, email string) (string, error) {
	switch scope {
	case redis.ScopeRegister:
		_, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			return "", pkg.AlreadyExists("email already registered")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkg.Internal("load user", err)
		}
		return "Registration", nil
	case redis.ScopeReset:
		_, err := s.users.FindByEmail(ctx, email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkg.NotFound("email not registered")
		}
		if err != nil {
			return "", pkg.Internal("load user", err)
		}
		return "Password reset", nil
	default:
		return "", pkg.InvalidOperation("invalid scope %q", scope)
	}
}

// VerifyCode 校验验证码，成功后即作废
func (s *EmailService) VerifyCode(ctx context.Context, scope, email, code string) error {
	ok, err := s.codes.Consume(ctx, scope, email, code)
	if errors.Is(err, redis.ErrEmailNotFound) {
		return pkg.InvalidOperation("verification code expired or not sent")
	}
	if err != nil {
		return pkg.Internal("verify code", err)
	}
	if !ok {
		return pkg.InvalidOperation("verification code mismatch")
	}
	return nil
}
