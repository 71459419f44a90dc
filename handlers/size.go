package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/dkenzhe/photomatte/internal/photo"
)

// SetSizeHandler stores the output size choice for a session. Custom
// dimensions arrive as strings from the form inputs, so both string and
// numeric JSON values are accepted.
func (h *PhotoHandler) SetSizeHandler(ctx context.Context, c *app.RequestContext) {
	type setSizeRequest struct {
		SessionID    string      `json:"session_id"`
		Size         string      `json:"size"`
		CustomWidth  interface{} `json:"custom_width"`
		CustomHeight interface{} `json:"custom_height"`
	}

	var req setSizeRequest
	if err := c.BindAndValidate(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	choice := &photo.SizeChoice{
		Type:         req.Size,
		CustomWidth:  looseInt(req.CustomWidth),
		CustomHeight: looseInt(req.CustomHeight),
	}
	if !h.Sessions.SetSize(req.SessionID, choice) {
		invalidSession(c)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// looseInt coerces a JSON number or numeric string to int, returning 0 for
// anything else.
func looseInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
