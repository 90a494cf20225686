package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/hub"
	"github.com/Tomato-onionn/GSS-Room-Service/internal/service"
)

// RoomHandler exposes room CRUD and lifecycle transitions over REST.
type RoomHandler struct {
	roomService *service.RoomService
	registry    *hub.Registry
}

func NewRoomHandler(roomService *service.RoomService, registry *hub.Registry) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	if registry == nil {
		panic("Registry cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService, registry: registry}
}

type roomDetailRequest struct {
	MeetingLink     string `json:"meeting_link"`
	MeetingPassword string `json:"meeting_password"`
	Notes           string `json:"notes"`
	RecordedURL     string `json:"recorded_url"`
}

func (r *roomDetailRequest) toInput() *service.RoomDetailInput {
	if r == nil {
		return nil
	}
	return &service.RoomDetailInput{
		MeetingLink:     r.MeetingLink,
		MeetingPassword: r.MeetingPassword,
		Notes:           r.Notes,
		RecordedURL:     r.RecordedURL,
	}
}

type createRoomRequest struct {
	RoomName     string             `json:"room_name" binding:"required"`
	MentorID     uint               `json:"mentor_id" binding:"required"`
	UserID       uint               `json:"user_id" binding:"required"`
	StartTime    *time.Time         `json:"start_time"`
	Status       string             `json:"status" binding:"omitempty,oneof=scheduled ongoing"`
	Details      *roomDetailRequest `json:"details"`
	Participants []uint             `json:"participants"`
}

// CreateRoom handles POST /api/rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateRoom: invalid input")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), service.CreateRoomInput{
		RoomName:  req.RoomName,
		MentorID:  req.MentorID,
		UserID:    req.UserID,
		StartTime: req.StartTime,
		Status:    domain.RoomStatus(req.Status),
	}, req.Details.toInput(), req.Participants)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, room)
}

// ListRooms handles GET /api/rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, total, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": rooms, "total": total})
}

// GetRoom handles GET /api/rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.roomService.GetRoom(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

type updateRoomRequest struct {
	RoomName     *string            `json:"room_name"`
	MentorID     *uint              `json:"mentor_id"`
	UserID       *uint              `json:"user_id"`
	StartTime    *time.Time         `json:"start_time"`
	EndTime      *time.Time         `json:"end_time"`
	Details      *roomDetailRequest `json:"details"`
	Participants []uint             `json:"participants"`
}

// UpdateRoom handles PUT /api/rooms/:id.
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateRoom: invalid input")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	room, err := h.roomService.UpdateRoom(c.Request.Context(), id, service.UpdateRoomInput{
		RoomName:  req.RoomName,
		MentorID:  req.MentorID,
		UserID:    req.UserID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}, req.Details.toInput(), req.Participants)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled ongoing completed canceled"`
}

// UpdateStatus handles PATCH /api/rooms/:id/status. This is the same entry
// point the auto-completion sweeper uses.
func (h *RoomHandler) UpdateStatus(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateStatus: invalid input")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: status must be one of scheduled, ongoing, completed, canceled")
		return
	}

	room, err := h.roomService.UpdateStatus(c.Request.Context(), id, domain.RoomStatus(req.Status))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

// ResolveJoinCode handles GET /api/rooms/resolve-code?code=xxx-xxx-xxx.
// Request handlers call this before issuing external session tokens.
func (h *RoomHandler) ResolveJoinCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		ErrorResponse(c, http.StatusBadRequest, "Query parameter 'code' is required")
		return
	}
	roomID, err := h.roomService.ResolveJoinCode(c.Request.Context(), code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"meeting_id": roomID})
}

// ListRoomsByUser handles GET /api/users/:userId/rooms.
func (h *RoomHandler) ListRoomsByUser(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	rooms, total, err := h.roomService.ListRoomsByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"rooms":      rooms,
		"pagination": NewPagination(page, limit, total),
	})
}

// Presence handles GET /api/rooms/:id/presence: the live registry snapshot,
// not the durable roster. Empty for rooms with no connected participants.
func (h *RoomHandler) Presence(c *gin.Context) {
	id, ok := roomIDParam(c)
	if !ok {
		return
	}
	members := h.registry.MembersOf(id)
	SuccessResponse(c, http.StatusOK, gin.H{
		"participants":     members,
		"participantCount": len(members),
	})
}

func roomIDParam(c *gin.Context) (uint, bool) {
	return uintParam(c, "id")
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(v), true
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	return page, limit
}
