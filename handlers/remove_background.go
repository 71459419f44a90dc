package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/dkenzhe/photomatte/internal/photo"
)

// RemoveBackgroundHandler runs the full pipeline for a session: resolve the
// target size, apply the stored crop (or a center cover-resize), send the
// image through the matting model, optionally flatten onto a solid
// background color, and return the encoded result.
func (h *PhotoHandler) RemoveBackgroundHandler(ctx context.Context, c *app.RequestContext) {
	type removeRequest struct {
		SessionID       string  `json:"session_id"`
		BackgroundColor *string `json:"background_color"`
	}

	body, err := c.Body()
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var req removeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// An omitted background_color means white; an explicit null or empty
	// string keeps transparency.
	bgColor := ""
	var fields map[string]json.RawMessage
	_ = json.Unmarshal(body, &fields)
	if _, present := fields["background_color"]; !present {
		bgColor = "#ffffff"
	} else if req.BackgroundColor != nil {
		bgColor = *req.BackgroundColor
	}

	sess, ok := h.Sessions.Get(req.SessionID)
	if !ok {
		invalidSession(c)
		return
	}

	// Lazy model start, once per process. Mirrors the sidecar lifecycle:
	// the first request pays the model-load cost.
	if !h.Matting.IsRunning() {
		if err := h.Matting.Start(); err != nil {
			jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to start model: %v", err))
			return
		}
		if !h.Matting.IsRunning() {
			jsonError(c, http.StatusInternalServerError, "model not available")
			return
		}
	}

	img, err := photo.Decode(sess.Original)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to decode image: %v", err))
		return
	}

	target, hasTarget := photo.ResolveSize(sess.Size)
	switch {
	case hasTarget && sess.Crop != nil:
		img = photo.ApplyCrop(img, *sess.Crop, target)
	case hasTarget:
		img = photo.CoverResize(img, target)
	}

	srcPNG, err := photo.EncodePNG(img)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to encode image: %v", err))
		return
	}

	cutPNG, err := h.Matting.Process(ctx, srcPNG)
	if err != nil {
		log.Printf("Matting failed for session %s: %v", sess.ID, err)
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("background removal failed: %v", err))
		return
	}
	result, err := photo.Decode(cutPNG)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to decode model output: %v", err))
		return
	}

	transparent := true
	if bgColor != "" {
		bg, err := photo.ParseHexColor(bgColor)
		if err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			return
		}
		result = photo.Flatten(result, bg)
		transparent = false
	}

	data, contentType, err := photo.Encode(result, transparent)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, fmt.Sprintf("failed to encode result: %v", err))
		return
	}

	resultKey, resultURL := h.mirrorResult(ctx, sess.ID, sess.Filename, data, contentType)
	h.Sessions.SetProcessed(sess.ID, data, contentType, resultKey)

	bounds := result.Bounds()
	resp := map[string]interface{}{
		"success": true,
		"image":   fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)),
		"width":   bounds.Dx(),
		"height":  bounds.Dy(),
	}
	if resultURL != "" {
		resp["result_url"] = resultURL
	}
	c.JSON(http.StatusOK, resp)
}

// mirrorResult uploads the processed bytes to blob storage when configured.
// Failures are logged and otherwise ignored; the in-memory copy still
// serves downloads.
func (h *PhotoHandler) mirrorResult(ctx context.Context, sessionID, filename string, data []byte, contentType string) (key, url string) {
	if h.Storage == nil {
		return "", ""
	}
	key = fmt.Sprintf("results/%s/%s", sessionID, DownloadName(filename))
	url, err := h.Storage.UploadBlob(ctx, data, key, contentType)
	if err != nil {
		log.Printf("Failed to mirror result for session %s: %v", sessionID, err)
		return "", ""
	}
	return key, url
}

// DownloadName derives the attachment filename for a processed result.
func DownloadName(original string) string {
	stem := strings.TrimSuffix(original, filepath.Ext(original))
	return stem + "_no_bg.png"
}
