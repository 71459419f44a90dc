package handlers

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
)

//go:embed ui/index.html
var indexHTML []byte

// IndexHandler serves the bundled single-page editor UI.
func (h *PhotoHandler) IndexHandler(ctx context.Context, c *app.RequestContext) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
