// Package matting talks to the InSPyReNet sidecar: a Python process serving
// the pre-trained transparent-background model. Jobs are queued over REST
// and results are streamed back over a WebSocket, one binary frame per
// output image.
package matting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultAddr is where the sidecar listens unless MATTE_SIDECAR_ADDR
	// overrides it.
	DefaultAddr = "127.0.0.1:9090"

	// Binary result frames start with an 8-byte header (event type + image
	// format, 4 bytes each) before the encoded image.
	binaryHeaderLen = 8

	queueTimeout   = 30 * time.Second
	collectTimeout = 5 * time.Minute
)

// Remover produces an RGBA cutout (subject with transparent background)
// from an encoded source image.
type Remover interface {
	IsRunning() bool
	Start() error
	Process(ctx context.Context, img []byte) ([]byte, error)
}

// Client implements Remover against the sidecar HTTP/WebSocket API.
type Client struct {
	addr string
	http *http.Client
}

var _ Remover = (*Client)(nil)

func NewClient(addr string) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Client{
		addr: addr,
		http: &http.Client{Timeout: queueTimeout},
	}
}

// IsRunning probes the sidecar health endpoint.
func (c *Client) IsRunning() bool {
	resp, err := c.http.Get("http://" + c.addr + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Start launches the sidecar process and waits for it to come up.
func (c *Client) Start() error {
	return startSidecar(c.addr)
}

// Process runs one matting job: queue the image, then collect the RGBA PNG
// result over the WebSocket. Binary result frames carry no job ID, so each
// job gets its own client ID and with it a private sidecar queue; overlapping
// jobs can never see each other's frames.
func (c *Client) Process(ctx context.Context, img []byte) ([]byte, error) {
	clientID := uuid.NewString()
	jobID, err := c.queue(ctx, img, clientID)
	if err != nil {
		return nil, fmt.Errorf("queue matting job: %w", err)
	}
	result, err := c.collect(ctx, jobID, clientID)
	if err != nil {
		return nil, fmt.Errorf("collect matting result: %w", err)
	}
	return result, nil
}

type queueResponse struct {
	JobID string `json:"job_id"`
}

func (c *Client) queue(ctx context.Context, img []byte, clientID string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "input.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(img)); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	_ = writer.WriteField("type", "rgba")
	_ = writer.WriteField("client_id", clientID)
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+c.addr+"/api/matte", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sidecar returned %d: %s", resp.StatusCode, msg)
	}

	var qr queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return "", fmt.Errorf("decode queue response: %w", err)
	}
	if qr.JobID == "" {
		return "", fmt.Errorf("sidecar returned empty job id")
	}
	return qr.JobID, nil
}

type jobEvent struct {
	Type string `json:"type"`
	Data struct {
		JobID string `json:"job_id"`
		State string `json:"state"`
		Error string `json:"error"`
	} `json:"data"`
}

func (c *Client) collect(ctx context.Context, jobID, clientID string) ([]byte, error) {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/ws", RawQuery: "clientId=" + clientID}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial sidecar websocket: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(collectTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	var result []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read sidecar message: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			var event jobEvent
			if err := json.Unmarshal(msg, &event); err != nil {
				continue
			}
			if event.Type != "job" || event.Data.JobID != jobID {
				continue
			}
			switch event.Data.State {
			case "failed":
				return nil, fmt.Errorf("matting failed: %s", event.Data.Error)
			case "done":
				if result == nil {
					return nil, fmt.Errorf("job finished without a result frame")
				}
				return result, nil
			}
		case websocket.BinaryMessage:
			if len(msg) <= binaryHeaderLen {
				continue
			}
			result = msg[binaryHeaderLen:]
		}
	}
}
