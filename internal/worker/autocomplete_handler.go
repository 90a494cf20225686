package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/service"
)

// RoomAutoCompleteHandler runs the periodic sweep that closes out elapsed
// meetings. It is safe to run concurrently with manual status updates, the
// lifecycle transition itself resolves races.
type RoomAutoCompleteHandler struct {
	roomService *service.RoomService
}

func NewRoomAutoCompleteHandler(roomService *service.RoomService) *RoomAutoCompleteHandler {
	return &RoomAutoCompleteHandler{roomService: roomService}
}

// ProcessTask implements asynq.Handler. The task carries no payload; the
// sweep evaluates against its own clock.
func (h *RoomAutoCompleteHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
	})
	logCtx.Info("Running room auto-completion sweep...")

	completed, err := h.roomService.AutoCompleteElapsed(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Auto-completion sweep failed")
		return fmt.Errorf("auto-completion sweep: %w", err)
	}

	logCtx.WithField("completed_count", len(completed)).Info("Room auto-completion sweep finished")
	return nil
}
