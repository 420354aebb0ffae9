// README: Chat handlers (turns, quote, reset, session state).
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tripbot/internal/http/middleware"
	"tripbot/internal/service"
)

type ChatHandler struct {
	planner *service.TripPlanner
	timeout time.Duration
}

func NewChatHandler(planner *service.TripPlanner, timeout time.Duration) *ChatHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChatHandler{planner: planner, timeout: timeout}
}

type chatReq struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// Chat handles POST /api/chat. The session id comes from the X-Session-ID
// header, or the body, and is created when absent.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: message is required")
		return
	}
	sid := strings.TrimSpace(c.GetHeader(middleware.SessionHeader))
	if sid == "" {
		sid = strings.TrimSpace(req.SessionID)
	}
	if sid != "" && !isValidSessionID(sid) {
		writeError(c, http.StatusBadRequest, "invalid session id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.planner.Chat(ctx, sid, req.Message)
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.Header(middleware.SessionHeader, res.SessionID)
	writeJSON(c, http.StatusOK, res)
}

// Quote handles POST /api/quote.
func (h *ChatHandler) Quote(c *gin.Context) {
	sid, ok := h.sessionID(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	quote, err := h.planner.Quote(ctx, sid)
	if err != nil {
		writeChatError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, quote)
}

// Reset handles POST /api/reset.
func (h *ChatHandler) Reset(c *gin.Context) {
	sid, ok := h.sessionID(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.planner.Reset(ctx, sid); err != nil {
		writeChatError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"success": true})
}

// Session handles GET /api/session.
func (h *ChatHandler) Session(c *gin.Context) {
	sid, ok := h.sessionID(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.planner.Session(ctx, sid)
	if err != nil {
		writeChatError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}

func (h *ChatHandler) sessionID(c *gin.Context) (string, bool) {
	sid := strings.TrimSpace(c.GetHeader(middleware.SessionHeader))
	if sid == "" {
		sid = strings.TrimSpace(c.Query("session_id"))
	}
	if !isValidSessionID(sid) {
		writeError(c, http.StatusBadRequest, "missing or invalid "+middleware.SessionHeader+" header")
		return "", false
	}
	return sid, true
}
