package handlers

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
)

// HealthCheckHandler reports server liveness and matting model reachability.
func (h *PhotoHandler) HealthCheckHandler(ctx context.Context, c *app.RequestContext) {
	modelStatus := "not running"
	if h.Matting.IsRunning() {
		modelStatus = "running"
	}

	c.JSON(http.StatusOK, map[string]string{
		"status":       "ok",
		"model_status": modelStatus,
	})
}
