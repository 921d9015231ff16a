package handler

import (
	"github.com/gin-gonic/gin"

	"p4-dashboard/internal/report"
	"p4-dashboard/internal/service"
	"p4-dashboard/pkg/response"
)

// SessionHandler 界面状态 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Get 当前操作员的界面状态
// GET /api/v1/session
func (h *SessionHandler) Get(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}
	sess, err := h.sessionSvc.Get(c.Request.Context(), username)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, sess)
}

// Save 保存界面状态；越界取值会被修正后返回
// PUT /api/v1/session
func (h *SessionHandler) Save(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}
	var sess report.Session
	if err := c.ShouldBindJSON(&sess); err != nil {
		response.BadRequest(c, 10001, "Parameter tidak valid")
		return
	}
	saved, err := h.sessionSvc.Save(c.Request.Context(), username, sess)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, saved)
}

// Reset 恢复默认界面状态
// DELETE /api/v1/session
func (h *SessionHandler) Reset(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}
	sess, err := h.sessionSvc.Reset(c.Request.Context(), username)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, sess)
}
