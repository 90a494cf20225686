package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/service"
)

// HistoryHandler serves the append-only meeting history archive.
type HistoryHandler struct {
	historyService *service.HistoryService
}

func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	if historyService == nil {
		panic("HistoryService cannot be nil for HistoryHandler")
	}
	return &HistoryHandler{historyService: historyService}
}

// List handles GET /api/history. An optional user_id query restricts the
// archive to rooms owned by that user.
func (h *HistoryHandler) List(c *gin.Context) {
	userID, ok := optionalUserIDQuery(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	entries, total, err := h.historyService.ListTerminal(c.Request.Context(), userID, page, limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"history":    entries,
		"pagination": NewPagination(page, limit, total),
	})
}

// ListByRoom handles GET /api/rooms/:id/history.
func (h *HistoryHandler) ListByRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	entries, err := h.historyService.ByRoomID(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"history": entries})
}

// Statistics handles GET /api/history/statistics, same optional user filter
// as List.
func (h *HistoryHandler) Statistics(c *gin.Context) {
	userID, ok := optionalUserIDQuery(c)
	if !ok {
		return
	}
	stats, err := h.historyService.Statistics(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, stats)
}

func optionalUserIDQuery(c *gin.Context) (uint, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user_id parameter")
		return 0, false
	}
	return uint(v), true
}
