package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// skipDetector makes the API embed the whole image as a face
const skipDetector = "skip"

// Config holds the configuration for the DeepFace client
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	Model            string
	Detector         string
	FallbackDetector string
	RetryCount       int
	RetryBackoff     time.Duration
}

// DefaultConfig returns a Config matching the 128-d OpenFace setup
func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:5005",
		Timeout:          30 * time.Second,
		Model:            "OpenFace",
		Detector:         "opencv",
		FallbackDetector: "retinaface",
		RetryCount:       3,
		RetryBackoff:     time.Second,
	}
}

// Client is the HTTP client for DeepFace API
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new DeepFace client
func NewClient(config Config) *Client {
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Represent calls POST /represent with the given detector backend
func (c *Client) Represent(ctx context.Context, image []byte, detector string) (*RepresentResponse, error) {
	req := RepresentRequest{
		Img:              dataURI(image),
		ModelName:        c.config.Model,
		DetectorBackend:  detector,
		EnforceDetection: detector != skipDetector,
		Align:            true,
	}

	var resp RepresentResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/represent", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Ping calls GET / which answers once the models are loaded
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/", nil, nil)
}

// dataURI wraps the image the way the API expects base64 input
func dataURI(image []byte) string {
	return "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// maxBackoff is the maximum backoff duration for retries
const maxBackoff = 30 * time.Second

// calculateBackoff doubles base per attempt: base, 2*base, 4*base, capped at maxBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// doRequestWithRetry executes HTTP request with retry logic
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(c.config.RetryBackoff, attempt)):
			}
		}

		lastErr = c.doRequest(ctx, method, path, body, result)
		if lastErr == nil {
			return nil
		}

		// Don't retry on context errors
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Only server errors and transport failures are retried
		if isClientError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrDeepFaceUnavailable, lastErr)
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := string(respBody)
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
