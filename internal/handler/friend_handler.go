package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Lee_Social/internal/service"
)

type FriendHandler struct {
	Responder
	svc   *service.FriendService
	lists *service.ListService
}

func NewFriendHandler(resp Responder, svc *service.FriendService, lists *service.ListService) *FriendHandler {
	return &FriendHandler{Responder: resp, svc: svc, lists: lists}
}

type respondReq struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
}

type unfriendReq struct {
	FriendID uint64 `json:"friendId" binding:"required"`
}

func (h *FriendHandler) Send(c *gin.Context) {
	var req targetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	fr, err := h.svc.SendFriendRequest(c.Request.Context(), userIDFromCtx(c), req.TargetID)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusCreated, "friend request sent", fr)
}

func (h *FriendHandler) Respond(c *gin.Context) {
	requestID, err := parseID(c.Param("id"), "id")
	if err != nil {
		h.Fail(c, err)
		return
	}
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	fr, err := h.svc.RespondFriendRequest(c.Request.Context(), userIDFromCtx(c), requestID, service.Decision(req.Decision))
	if err != nil {
		h.Fail(c, err)
		return
	}
	msg := "friend request accepted"
	if req.Decision == string(service.DecisionReject) {
		msg = "friend request rejected"
	}
	h.OK(c, http.StatusOK, msg, fr)
}

func (h *FriendHandler) Cancel(c *gin.Context) {
	requestID, err := parseID(c.Param("id"), "id")
	if err != nil {
		h.Fail(c, err)
		return
	}
	if err := h.svc.CancelFriendRequest(c.Request.Context(), userIDFromCtx(c), requestID); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "friend request cancelled", nil)
}

func (h *FriendHandler) Unfriend(c *gin.Context) {
	var req unfriendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Fail(c, bindError(err))
		return
	}
	if err := h.svc.Unfriend(c.Request.Context(), userIDFromCtx(c), req.FriendID); err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "unfriended", nil)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	page, err := h.lists.Friends(c.Request.Context(), userIDFromCtx(c), q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}

func (h *FriendHandler) PendingRequests(c *gin.Context) {
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	page, err := h.lists.PendingFriendRequests(c.Request.Context(), userIDFromCtx(c), q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}

func (h *FriendHandler) SentRequests(c *gin.Context) {
	q, err := pageQuery(c)
	if err != nil {
		h.Fail(c, err)
		return
	}
	page, err := h.lists.SentFriendRequests(c.Request.Context(), userIDFromCtx(c), q)
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.OK(c, http.StatusOK, "ok", page)
}
