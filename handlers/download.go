package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
)

// DownloadHandler serves the processed result of a session as an
// attachment.
func (h *PhotoHandler) DownloadHandler(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("sessionId")

	sess, ok := h.Sessions.Get(sessionID)
	if !ok || sess.Processed == nil {
		jsonError(c, http.StatusBadRequest, "not found")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", DownloadName(sess.Filename)))
	c.Data(http.StatusOK, sess.ProcessedContentType, sess.Processed)
}
