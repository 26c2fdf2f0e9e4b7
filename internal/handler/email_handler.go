package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Social/internal/service"
)

type EmailHandler struct {
	Responder
	svc *service.EmailService
}

type SendCodeReq struct {
	Email string `json:"email" binding:"required,email"`
}

func NewEmailHandler(resp Responder, svc *service.EmailService) *EmailHandler {
	return &EmailHandler{Responder: resp, svc: svc}
}

// SendCode scope 取自路径，register 或 reset
func (h *EmailHandler) SendCode(c *gin.Context) {
	var req SendCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	if err := h.svc.SendCode(c.Request.Context(), c.Param("scope"), req.Email); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "code sent", nil)
}
