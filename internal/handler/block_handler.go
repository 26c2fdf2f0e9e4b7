package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Social/internal/service"
)

type BlockHandler struct {
	Responder
	svc   *service.BlockService
	lists *service.ListService
}

func NewBlockHandler(resp Responder, svc *service.BlockService, lists *service.ListService) *BlockHandler {
	return &BlockHandler{Responder: resp, svc: svc, lists: lists}
}

func (h *BlockHandler) Block(c *gin.Context) {
	var req targetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	created, err := h.svc.Block(c.Request.Context(), userIDFromCtx(c), req.TargetID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	msg := "user blocked"
	if !created {
		msg = "user already blocked"
	}
	h.OK(c, http.StatusOK, msg, gin.H{"targetId": req.TargetID, "blocked": true})
}

func (h *BlockHandler) Unblock(c *gin.Context) {
	targetID, err := parseID(c.Param("targetId"), "targetId")
	if err != nil {
		h.Fail(c, err)
		return
	}
	if _, err := h.svc.Unblock(c.Request.Context(), userIDFromCtx(c), targetID); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "user unblocked", gin.H{"targetId": targetID, "blocked": false})
}

func (h *BlockHandler) List(c *gin.Context) {
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	page, err := h.lists.Blocked(c.Request.Context(), userIDFromCtx(c), q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}
