package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	maskimage "mask-annotator/internal/image"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 60 * time.Second

	maxErrorBody = 4 << 10
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Client talks to the annotation server. It satisfies Segmenter, Store,
// SessionResetter and Uploader.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var (
	_ Segmenter       = (*Client)(nil)
	_ Store           = (*Client)(nil)
	_ SessionResetter = (*Client)(nil)
	_ Uploader        = (*Client)(nil)
)

// NewClient creates a client for baseURL. A nil logger discards output.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "backend"),
	}
}

// Upload posts the image as multipart field "image".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("upload: read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	var res UploadResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/upload", mw.FormDataContentType(), &body, &res); err != nil {
		return UploadResult{}, err
	}
	if res.ImageID == "" {
		return UploadResult{}, fmt.Errorf("upload: server returned no image_id")
	}
	c.logger.Info("image uploaded", "image_id", res.ImageID, "image_path", res.ImagePath)
	return res, nil
}

type segmentBody struct {
	ImagePath string     `json:"image_path"`
	Box       [4]float64 `json:"box"`
}

// Segment posts the box prompt and decodes the returned mask image.
func (c *Client) Segment(ctx context.Context, req SegmentRequest) (image.Image, error) {
	payload, err := json.Marshal(segmentBody{ImagePath: req.ImageRef, Box: req.Box.Array()})
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/sam", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	src, err := maskimage.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	c.logger.Debug("segmentation received",
		"box", req.Box.Array(), "width", src.Width(), "height", src.Height())
	return src.Image, nil
}

// Save uploads the mask as PNG under maskID.
func (c *Client) Save(ctx context.Context, maskID string, mask *image.Gray) error {
	data, err := maskimage.EncodePNG(mask)
	if err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("mask_id", maskID); err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}
	part, err := mw.CreateFormFile("mask", maskID+".png")
	if err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}

	if err := c.doJSON(ctx, http.MethodPost, "/api/masks", mw.FormDataContentType(), &body, nil); err != nil {
		return err
	}
	c.logger.Info("mask saved", "mask_id", maskID)
	return nil
}

// List returns every stored mask record.
func (c *Client) List(ctx context.Context) ([]MaskRecord, error) {
	var records []MaskRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/masks", "", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Reset clears the server session.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/reset", "", nil, nil); err != nil {
		return err
	}
	c.logger.Info("session reset")
	return nil
}

// doJSON performs a request and decodes a JSON response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	resp, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// do sends a request and converts non-2xx responses into *StatusError.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("request complete", "method", method, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}
	return resp, nil
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
