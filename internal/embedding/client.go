// Package embedding talks to the external face-embedding service. The core
// never computes embeddings itself; it consumes a fixed-length vector or a
// no-face signal and nothing more.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8000"

// maxUploadDimension bounds the width and height of uploaded captures.
// Face models work on small crops, so shipping full camera frames only
// costs bandwidth.
const maxUploadDimension = 1024

// ErrNoFace signals that the service found no usable face in the image.
// Callers resubmit a new capture; there is no internal retry.
var ErrNoFace = errors.New("no face detected in image")

// Client computes face embeddings using the embedding server.
type Client struct {
	baseURL string
	dim     int
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a new embedding client. dim is the expected vector
// length; a response with a different dimension is treated as an error.
func NewClient(baseURL string, dim int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// faceResponse represents the response from the face embedding endpoint.
type faceResponse struct {
	FacesCount int       `json:"faces_count"`
	Embedding  []float32 `json:"embedding"`
	Dim        int       `json:"dim"`
	Model      string    `json:"model"`
}

// Embed computes the face embedding for an image. Returns ErrNoFace when the
// service detects no face. The configured timeout bounds the whole call so a
// stalled model server cannot block authentication indefinitely.
func (c *Client) Embed(ctx context.Context, imageData []byte) ([]float32, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Formats our decoders do not handle (webp among them) go through
	// unchanged; the service decodes uploads itself.
	payload := imageData
	if scaled, err := Downscale(imageData, maxUploadDimension); err == nil {
		payload = scaled
	}

	body, err := c.postMultipartImage(ctx, "/embed/face", payload)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.FacesCount == 0 || len(resp.Embedding) == 0 {
		return nil, ErrNoFace
	}

	if c.dim > 0 && len(resp.Embedding) != c.dim {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(resp.Embedding), c.dim)
	}

	return resp.Embedding, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit Content-Type
// header based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
