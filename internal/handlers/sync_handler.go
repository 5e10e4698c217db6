package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the batch sync to operators.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// RunAll syncs every active item, as the scheduled job does
// @Summary     Run the batch sync now
// @Tags        internal
// @Produce     json
// @Security    APIKeyAuth
// @Success     200 {object} response.Envelope{data=scheduler.RunResult}
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     409 {object} ErrorResponse "A run is already in progress"
// @Router      /internal/sync/run [post]
func (h *SyncHandler) RunAll(c *gin.Context) {
	result, err := h.syncer.RunAll(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
