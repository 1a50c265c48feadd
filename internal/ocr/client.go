// Package ocr is a thin client for the external OCR server. The service
// forwards image uploads verbatim and relays whatever comes back; no image
// processing happens here.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Result is the OCR server's response, relayed to the caller as-is.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client talks to the OCR server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the OCR server at baseURL
// (e.g. "http://localhost:5000").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Recognize forwards the image to the OCR endpoint and returns its response.
func (c *Client) Recognize(ctx context.Context, filename string, image io.Reader) (*Result, error) {
	return c.post(ctx, "/api/ocr", filename, image)
}

// Preview forwards the image to the preprocessing endpoint. On success the
// result body is the processed image with its Content-Type.
func (c *Client) Preview(ctx context.Context, filename string, image io.Reader) (*Result, error) {
	return c.post(ctx, "/api/preprocess", filename, image)
}

func (c *Client) post(ctx context.Context, path, filename string, image io.Reader) (*Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact ocr server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
