package handlers

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/dkenzhe/photomatte/internal/auth"
)

type UserHandler struct{}

// TestAuthHandler mints JWT tokens for testing purposes only. Registered
// only when auth is enabled.
func (h *UserHandler) TestAuthHandler(ctx context.Context, c *app.RequestContext) {
	type authTestRequest struct {
		UserID string `json:"user_id" binding:"required"`
	}

	var req authTestRequest
	if err := c.BindAndValidate(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}
