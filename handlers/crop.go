package handlers

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/dkenzhe/photomatte/internal/photo"
)

// SetCropHandler stores the positioning-canvas state for a session.
func (h *PhotoHandler) SetCropHandler(ctx context.Context, c *app.RequestContext) {
	type setCropRequest struct {
		SessionID    string              `json:"session_id"`
		CropSettings *photo.CropSettings `json:"crop_settings"`
	}

	var req setCropRequest
	if err := c.BindAndValidate(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.Sessions.SetCrop(req.SessionID, req.CropSettings) {
		invalidSession(c)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
