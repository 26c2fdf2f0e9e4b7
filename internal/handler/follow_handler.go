package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/service"
)

type FollowHandler struct {
	Responder
	svc   *service.FollowService
	lists *service.ListService
}

func NewFollowHandler(resp Responder, svc *service.FollowService, lists *service.ListService) *FollowHandler {
	return &FollowHandler{Responder: resp, svc: svc, lists: lists}
}

type targetReq struct {
	TargetID uint64 `json:"targetId" binding:"required"`
}

// RequestFollow 关注接口，私密账号返回 pending
func (h *FollowHandler) RequestFollow(c *gin.Context) {
	var req targetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	rel, err := h.svc.RequestFollow(c.Request.Context(), userIDFromCtx(c), req.TargetID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	msg := "followed"
	if rel.Status == model.StatusPending {
		msg = "follow request sent"
	}
	h.OK(c, http.StatusCreated, msg, rel)
}

func (h *FollowHandler) Accept(c *gin.Context) {
	requesterID, err := parseID(c.Param("requesterId"), "requesterId")
	if err != nil {
		h.Fail(c, err)
		return
	}
	rel, err := h.svc.AcceptFollowRequest(c.Request.Context(), userIDFromCtx(c), requesterID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "follow request accepted", rel)
}

func (h *FollowHandler) Reject(c *gin.Context) {
	requesterID, err := parseID(c.Param("requesterId"), "requesterId")
	if err != nil {
		h.Fail(c, err)
		return
	}
	rel, err := h.svc.RejectFollowRequest(c.Request.Context(), userIDFromCtx(c), requesterID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "follow request rejected", rel)
}

// Cancel 撤回自己发出的待审批请求
func (h *FollowHandler) Cancel(c *gin.Context) {
	targetID, err := parseID(c.Param("targetId"), "targetId")
	if err != nil {
		h.Fail(c, err)
		return
	}
	if err := h.svc.CancelFollowRequest(c.Request.Context(), userIDFromCtx(c), targetID); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "follow request cancelled", nil)
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	targetID, err := parseID(c.Param("targetId"), "targetId")
	if err != nil {
		h.Fail(c, err)
		return
	}
	if err := h.svc.Unfollow(c.Request.Context(), userIDFromCtx(c), targetID); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "unfollowed", nil)
}

// Relation 获取用户间关系
func (h *FollowHandler) Relation(c *gin.Context) {
	targetID, err := parseID(c.Query("targetId"), "targetId")
	if err != nil {
		h.Fail(c, err)
		return
	}
	view, err := h.svc.Relation(c.Request.Context(), userIDFromCtx(c), targetID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", view)
}

func (h *FollowHandler) PendingRequests(c *gin.Context) {
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	page, err := h.lists.PendingFollowRequests(c.Request.Context(), userIDFromCtx(c), q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}

func (h *FollowHandler) SentRequests(c *gin.Context) {
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	status := model.RelationStatus(c.Query("status"))
	page, err := h.lists.SentFollowRequests(c.Request.Context(), userIDFromCtx(c), status, q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}

// ListFollowers 获取粉丝列表
func (h *FollowHandler) ListFollowers(c *gin.Context) {
	h.listOf(c, h.lists.Followers)
}

// ListFollowing 获取关注列表
func (h *FollowHandler) ListFollowing(c *gin.Context) {
	h.listOf(c, h.lists.Following)
}

type ownerList func(ctx context.Context, viewerID, ownerID uint64, q pkg.PageQuery) (*pkg.Page[service.FollowItem], error)

func (h *FollowHandler) listOf(c *gin.Context, list ownerList) {
	ownerID, err := parseID(c.Param("id"), "id")
	if err != nil {
		h.Fail(c, err)
		return
	}
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	page, err := list(c.Request.Context(), userIDFromCtx(c), ownerID, q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}
