package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/service"
)

// ParticipantHandler manages the durable room roster. The live presence view
// is served by RoomHandler.Presence instead.
type ParticipantHandler struct {
	participantService *service.ParticipantService
}

func NewParticipantHandler(participantService *service.ParticipantService) *ParticipantHandler {
	if participantService == nil {
		panic("ParticipantService cannot be nil for ParticipantHandler")
	}
	return &ParticipantHandler{participantService: participantService}
}

// List handles GET /api/rooms/:id/participants.
func (h *ParticipantHandler) List(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	participants, err := h.participantService.List(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"participants": participants})
}

type addParticipantsRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

// Add handles POST /api/rooms/:id/participants.
func (h *ParticipantHandler) Add(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req addParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.AddParticipants: invalid input")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: user_ids is required")
		return
	}
	if err := h.participantService.Add(c.Request.Context(), roomID, req.UserIDs); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{"added": len(req.UserIDs)})
}

// Count handles GET /api/rooms/:id/participants/count.
func (h *ParticipantHandler) Count(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	count, err := h.participantService.Count(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"count": count})
}

// Remove handles DELETE /api/rooms/:id/participants/:userId. Removal is a
// soft deactivation, the roster row stays for history.
func (h *ParticipantHandler) Remove(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	if err := h.participantService.Remove(c.Request.Context(), roomID, userID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"removed": userID})
}
