package deepface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/idverify/internal/provider/httpjson"
)

// Config holds the configuration for the DeepFace client
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	Model          string
	Detector       string
	DistanceMetric string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:5005",
		Timeout:        60 * time.Second,
		Model:          "VGG-Face",
		Detector:       "opencv",
		DistanceMetric: "cosine",
	}
}

// Client is the HTTP client for DeepFace API
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new DeepFace client
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Represent calls POST /represent to detect faces and generate embeddings
func (c *Client) Represent(ctx context.Context, img string) (*RepresentResponse, error) {
	req := RepresentRequest{
		Img:              img,
		Model:            c.config.Model,
		Detector:         c.config.Detector,
		EnforceDetection: true,
	}

	var resp RepresentResponse
	if err := c.doRequest(ctx, "/represent", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Verify calls POST /verify to judge whether two images show the same person
func (c *Client) Verify(ctx context.Context, img1, img2 string, enforceDetection bool) (*VerifyResponse, error) {
	req := VerifyRequest{
		Img1:             img1,
		Img2:             img2,
		Model:            c.config.Model,
		Detector:         c.config.Detector,
		DistanceMetric:   c.config.DistanceMetric,
		EnforceDetection: enforceDetection,
	}

	var resp VerifyResponse
	if err := c.doRequest(ctx, "/verify", req, &resp); err != nil {
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
		return fmt.Errorf("%w: status %d: %s", ErrDeepFaceUnavailable, se.StatusCode, se.Body)
	case errors.As(err, &se):
		return fmt.Errorf("%w: status %d: %s", ErrRequestRejected, se.StatusCode, se.Body)
	case errors.Is(err, httpjson.ErrDecode):
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %v", ErrDeepFaceTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrDeepFaceUnavailable, err)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// isNoFaceError reports whether DeepFace refused the image for having no face
func isNoFaceError(err error) bool {
	return errors.Is(err, ErrRequestRejected) && strings.Contains(err.Error(), "Face could not be detected")
}
