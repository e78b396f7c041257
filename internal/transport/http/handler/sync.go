package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carching-assistant/internal/app"
	"carching-assistant/internal/transport/http/response"
)

type Syncer interface {
	Sync(ctx context.Context, scope string) (*app.SyncResult, error)
}

type SyncHandler struct {
	syncer Syncer
}

func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// Sync re-ingests ?source=campaigns|drive|all (default all). A failed source
// or index rebuild answers 500 with the full result. The sync keeps running
// when the client disconnects.
func (h *SyncHandler) Sync(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.syncer.Sync(ctx, c.Query("source"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownScope):
			response.Status(c, http.StatusBadRequest, response.StatusError, err.Error())
		case errors.Is(err, app.ErrSyncInProgress):
			response.Status(c, http.StatusConflict, response.StatusError, err.Error())
		default:
			response.Status(c, http.StatusInternalServerError, response.StatusError, "sync failed: "+err.Error())
		}
		return
	}

	status := http.StatusOK
	if result.Failed() {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}
