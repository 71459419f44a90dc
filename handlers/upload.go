package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/dkenzhe/photomatte/internal/photo"
)

// UploadHandler accepts a multipart image upload, opens a session for it,
// and returns a base64 preview along with the image dimensions.
func (h *PhotoHandler) UploadHandler(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		jsonError(c, http.StatusBadRequest, "no image uploaded")
		return
	}
	if fileHeader.Filename == "" {
		jsonError(c, http.StatusBadRequest, "no file selected")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !photo.AllowedExtension(ext) {
		jsonError(c, http.StatusBadRequest, "invalid format: want jpg, jpeg, png, webp or bmp")
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		jsonError(c, http.StatusBadRequest, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to open upload: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}
	if len(data) > MaxUploadBytes {
		jsonError(c, http.StatusBadRequest, "file too large")
		return
	}

	width, height, err := photo.Dimensions(data)
	if err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Sprintf("unreadable image: %v", err))
		return
	}

	sessionID := h.Sessions.Create(fileHeader.Filename, data)
	log.Printf("Uploaded %dx%d, session %s", width, height, sessionID)

	preview := base64.StdEncoding.EncodeToString(data)
	c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": sessionID,
		"width":      width,
		"height":     height,
		"preview":    fmt.Sprintf("data:image/%s;base64,%s", strings.TrimPrefix(ext, "."), preview),
	})
}
