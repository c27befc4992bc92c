package modelserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/saturnino-fabrica-de-software/idverify/internal/provider/httpjson"
)

// Config holds the configuration for the model server client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	InputSize int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:8500",
		Timeout:   60 * time.Second,
		InputSize: 224,
	}
}

// Client is the HTTP client for the model server
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new model server client
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// DetectRegions calls POST /detect/regions
func (c *Client) DetectRegions(ctx context.Context, img string) (*RegionsResponse, error) {
	var resp RegionsResponse
	if err := c.doRequest(ctx, "/detect/regions", ImageRequest{Image: img}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OCR calls POST /ocr
func (c *Client) OCR(ctx context.Context, img string) (*OCRResponse, error) {
	var resp OCRResponse
	if err := c.doRequest(ctx, "/ocr", ImageRequest{Image: img}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Landmarks calls POST /landmarks
func (c *Client) Landmarks(ctx context.Context, img string) (*LandmarksResponse, error) {
	var resp LandmarksResponse
	if err := c.doRequest(ctx, "/landmarks", ImageRequest{Image: img}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Classify calls POST /classify
func (c *Client) Classify(ctx context.Context, img, layer string) (*ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := c.doRequest(ctx, "/classify", ClassifyRequest{Image: img, Layer: layer}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Gradients calls POST /gradients
func (c *Client) Gradients(ctx context.Context, img, layer string, class int) (*GradientsResponse, error) {
	var resp GradientsResponse
	req := GradientsRequest{Image: img, Layer: layer, Class: class}
	if err := c.doRequest(ctx, "/gradients", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest posts body and maps transport failures onto the package errors.
// Requests are never retried.
func (c *Client) doRequest(ctx context.Context, path string, body, result any) error {
	err := httpjson.Do(ctx, c.httpClient, http.MethodPost, c.config.BaseURL+path, body, result)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var se *httpjson.StatusError
	switch {
	case errors.As(err, &se) && se.Temporary():
		return fmt.Errorf("%w: %s: status %d: %s", ErrModelServerUnavailable, path, se.StatusCode, se.Body)
	case errors.As(err, &se):
		return fmt.Errorf("%w: %s: status %d: %s", ErrRequestRejected, path, se.StatusCode, se.Body)
	case errors.Is(err, httpjson.ErrDecode):
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, path, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %s: %v", ErrModelServerTimeout, path, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrModelServerUnavailable, path, err)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
