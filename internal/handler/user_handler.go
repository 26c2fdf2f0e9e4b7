package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Social/internal/service"
)

type UserHandler struct {
	Responder
	svc *service.UserService
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
}

type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetReq 忘记密码请求体
type ResetReq struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=64"`
}

type ChangePasswordReq struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=64"`
}

type RefreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type PrivacyReq struct {
	IsPrivate *bool `json:"isPrivate" binding:"required"`
}

func NewUserHandler(resp Responder, svc *service.UserService) *UserHandler {
	return &UserHandler{Responder: resp, svc: svc}
}

// Register 注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	user, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Code:     req.Code,
	})
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusCreated, "registered", user)
}

// Login 登录接口
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "logged in", pair)
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), userIDFromCtx(c)); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "logged out", nil)
}

// TokenRefresh 利用refresh来更新access
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "token refreshed", pair)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "password reset", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), userIDFromCtx(c), req.OldPassword, req.NewPassword); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "password changed", nil)
}

func (h *UserHandler) SetPrivacy(c *gin.Context) {
	var req PrivacyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	user, err := h.svc.SetPrivacy(c.Request.Context(), userIDFromCtx(c), *req.IsPrivate)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "privacy updated", user)
}

func (h *UserHandler) Profile(c *gin.Context) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		h.Fail(c, err)
		return
	}
	user, err := h.svc.Profile(c.Request.Context(), userIDFromCtx(c), id)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", user)
}
