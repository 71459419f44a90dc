package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkenzhe/photomatte/internal/photo"
	"github.com/dkenzhe/photomatte/internal/session"
)

// identityRemover pretends the model is up and returns its input unchanged,
// so pipeline geometry can be asserted end to end.
type identityRemover struct{}

func (identityRemover) IsRunning() bool { return true }
func (identityRemover) Start() error    { return nil }
func (identityRemover) Process(ctx context.Context, img []byte) ([]byte, error) {
	return img, nil
}

// downRemover simulates an unreachable sidecar that also fails to start.
type downRemover struct{}

func (downRemover) IsRunning() bool { return false }
func (downRemover) Start() error    { return nil }
func (downRemover) Process(ctx context.Context, img []byte) ([]byte, error) {
	return nil, fmt.Errorf("unreachable")
}

func newTestEngine(ph *PhotoHandler) *route.Engine {
	e := route.NewEngine(config.NewOptions([]config.Option{}))
	e.POST("/upload", ph.UploadHandler)
	e.POST("/set-size", ph.SetSizeHandler)
	e.POST("/set-crop", ph.SetCropHandler)
	e.POST("/remove-background", ph.RemoveBackgroundHandler)
	e.GET("/download/:sessionId", ph.DownloadHandler)
	e.GET("/api/health", ph.HealthCheckHandler)
	return e
}

func newTestHandler() *PhotoHandler {
	return &PhotoHandler{
		Sessions: session.NewStore(time.Hour),
		Matting:  identityRemover{},
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	data, err := photo.EncodePNG(img)
	require.NoError(t, err)
	return data
}

func multipartUpload(t *testing.T, filename string, data []byte) (body []byte, contentType string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes(), writer.FormDataContentType()
}

func postJSON(e *route.Engine, path string, payload interface{}) *ut.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return ut.PerformRequest(e, "POST", path,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func decodeJSON(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func uploadSession(t *testing.T, e *route.Engine, w, h int) string {
	t.Helper()
	body, ct := multipartUpload(t, "photo.png", testPNG(t, w, h))
	resp := ut.PerformRequest(e, "POST", "/upload",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: ct}).Result()
	require.Equal(t, 200, resp.StatusCode())

	got := decodeJSON(t, resp.Body())
	require.Equal(t, true, got["success"])
	return got["session_id"].(string)
}

func TestUploadHandler(t *testing.T) {
	e := newTestEngine(newTestHandler())

	body, ct := multipartUpload(t, "photo.png", testPNG(t, 120, 80))
	resp := ut.PerformRequest(e, "POST", "/upload",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: ct}).Result()

	require.Equal(t, 200, resp.StatusCode())
	got := decodeJSON(t, resp.Body())
	assert.Equal(t, true, got["success"])
	assert.Equal(t, float64(120), got["width"])
	assert.Equal(t, float64(80), got["height"])
	assert.True(t, strings.HasPrefix(got["preview"].(string), "data:image/png;base64,"))
	assert.NotEmpty(t, got["session_id"])
}

func TestUploadHandlerRejectsBadExtension(t *testing.T) {
	e := newTestEngine(newTestHandler())

	body, ct := multipartUpload(t, "photo.gif", testPNG(t, 10, 10))
	resp := ut.PerformRequest(e, "POST", "/upload",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: ct}).Result()

	assert.Equal(t, 400, resp.StatusCode())
}

func TestUploadHandlerRejectsGarbage(t *testing.T) {
	e := newTestEngine(newTestHandler())

	body, ct := multipartUpload(t, "photo.png", []byte("not an image"))
	resp := ut.PerformRequest(e, "POST", "/upload",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: ct}).Result()

	assert.Equal(t, 400, resp.StatusCode())
}

func TestUploadHandlerMissingFile(t *testing.T) {
	e := newTestEngine(newTestHandler())

	resp := postJSON(e, "/upload", map[string]string{}).Result()
	assert.Equal(t, 400, resp.StatusCode())
}

func TestSetSizeAndCropUnknownSession(t *testing.T) {
	e := newTestEngine(newTestHandler())

	resp := postJSON(e, "/set-size", map[string]interface{}{
		"session_id": "missing", "size": "passport_us",
	}).Result()
	assert.Equal(t, 400, resp.StatusCode())

	resp = postJSON(e, "/set-crop", map[string]interface{}{
		"session_id": "missing",
	}).Result()
	assert.Equal(t, 400, resp.StatusCode())
}

func TestRemoveBackgroundFlattened(t *testing.T) {
	ph := newTestHandler()
	e := newTestEngine(ph)
	sid := uploadSession(t, e, 300, 200)

	// Custom dimensions arrive as strings from the form inputs.
	resp := postJSON(e, "/set-size", map[string]interface{}{
		"session_id": sid, "size": "custom",
		"custom_width": "90", "custom_height": "60",
	}).Result()
	require.Equal(t, 200, resp.StatusCode())

	resp = postJSON(e, "/set-crop", map[string]interface{}{
		"session_id": sid,
		"crop_settings": map[string]float64{
			"scale": 1, "offsetX": 0, "offsetY": 0, "canvasW": 150, "canvasH": 100,
		},
	}).Result()
	require.Equal(t, 200, resp.StatusCode())

	resp = postJSON(e, "/remove-background", map[string]interface{}{
		"session_id": sid, "background_color": "#ffffff",
	}).Result()
	require.Equal(t, 200, resp.StatusCode())

	got := decodeJSON(t, resp.Body())
	assert.Equal(t, true, got["success"])
	assert.Equal(t, float64(90), got["width"])
	assert.Equal(t, float64(60), got["height"])
	assert.True(t, strings.HasPrefix(got["image"].(string), "data:image/jpeg;base64,"))
}

func TestRemoveBackgroundTransparent(t *testing.T) {
	ph := newTestHandler()
	e := newTestEngine(ph)
	sid := uploadSession(t, e, 100, 100)

	resp := postJSON(e, "/set-size", map[string]interface{}{
		"session_id": sid, "size": "linkedin",
	}).Result()
	require.Equal(t, 200, resp.StatusCode())

	resp = postJSON(e, "/remove-background", map[string]interface{}{
		"session_id": sid, "background_color": nil,
	}).Result()
	require.Equal(t, 200, resp.StatusCode())

	got := decodeJSON(t, resp.Body())
	assert.Equal(t, float64(400), got["width"])
	assert.Equal(t, float64(400), got["height"])
	assert.True(t, strings.HasPrefix(got["image"].(string), "data:image/png;base64,"))
}

func TestRemoveBackgroundBadColor(t *testing.T) {
	e := newTestEngine(newTestHandler())
	sid := uploadSession(t, e, 50, 50)

	resp := postJSON(e, "/remove-background", map[string]interface{}{
		"session_id": sid, "background_color": "#nothex",
	}).Result()
	assert.Equal(t, 400, resp.StatusCode())
}

func TestRemoveBackgroundUnknownSession(t *testing.T) {
	e := newTestEngine(newTestHandler())

	resp := postJSON(e, "/remove-background", map[string]interface{}{
		"session_id": "missing",
	}).Result()
	assert.Equal(t, 400, resp.StatusCode())
}

func TestRemoveBackgroundModelDown(t *testing.T) {
	ph := newTestHandler()
	ph.Matting = downRemover{}
	e := newTestEngine(ph)
	sid := uploadSession(t, e, 50, 50)

	resp := postJSON(e, "/remove-background", map[string]interface{}{
		"session_id": sid,
	}).Result()
	assert.Equal(t, 500, resp.StatusCode())
}

func TestDownload(t *testing.T) {
	ph := newTestHandler()
	e := newTestEngine(ph)
	sid := uploadSession(t, e, 60, 60)

	// background_color omitted entirely: the result is flattened onto the
	// default white background.
	resp := postJSON(e, "/remove-background", map[string]interface{}{
		"session_id": sid,
	}).Result()
	require.Equal(t, 200, resp.StatusCode())
	got := decodeJSON(t, resp.Body())
	assert.True(t, strings.HasPrefix(got["image"].(string), "data:image/jpeg;base64,"))

	dl := ut.PerformRequest(e, "GET", "/download/"+sid, nil).Result()
	require.Equal(t, 200, dl.StatusCode())
	assert.Equal(t, "image/jpeg", string(dl.Header.ContentType()))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "photo_no_bg.png")
	assert.NotEmpty(t, dl.Body())
}

func TestDownloadBeforeProcessing(t *testing.T) {
	ph := newTestHandler()
	e := newTestEngine(ph)
	sid := uploadSession(t, e, 60, 60)

	dl := ut.PerformRequest(e, "GET", "/download/"+sid, nil).Result()
	assert.Equal(t, 400, dl.StatusCode())

	dl = ut.PerformRequest(e, "GET", "/download/unknown", nil).Result()
	assert.Equal(t, 400, dl.StatusCode())
}

func TestHealthCheck(t *testing.T) {
	e := newTestEngine(newTestHandler())

	resp := ut.PerformRequest(e, "GET", "/api/health", nil).Result()
	require.Equal(t, 200, resp.StatusCode())
	got := decodeJSON(t, resp.Body())
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "running", got["model_status"])
}
