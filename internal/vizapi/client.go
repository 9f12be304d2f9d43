// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vizapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the inference client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotReachable
	ErrTypeTimeout
	ErrTypeRequest
	ErrTypeUploadRejected
)

// Sentinel errors for easy checking.
var (
	ErrNotReachable = &ClientError{Type: ErrTypeNotReachable, Message: "server is not reachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// UploadFailedMessage is the error text for a rejected upload.
const UploadFailedMessage = "Failed to upload file."

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the client.
type ClientConfig struct {
	// BaseURL is the server base URL (default: http://localhost:8000)
	BaseURL string

	// QueryPath is the inference endpoint (default: /query)
	QueryPath string

	// UploadPath is the dataset ingestion endpoint (default: /upload_data)
	UploadPath string

	// Timeout bounds one query round trip (default: 60s)
	Timeout time.Duration

	// UploadTimeout bounds one upload round trip (default: 120s)
	UploadTimeout time.Duration

	// UserAgent is sent with every request
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:8000",
		QueryPath:     "/query",
		UploadPath:    "/upload_data",
		Timeout:       60 * time.Second,
		UploadTimeout: 120 * time.Second,
		UserAgent:     "chartchat",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the inference server. It is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	uploadClient *http.Client
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values from DefaultConfig.
func NewClientWithConfig(config *ClientConfig) *Client {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}

	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.QueryPath == "" {
		cfg.QueryPath = defaults.QueryPath
	}
	if cfg.UploadPath == "" {
		cfg.UploadPath = defaults.UploadPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = defaults.UploadTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	return &Client{
		config:       &cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		uploadClient: &http.Client{Timeout: cfg.UploadTimeout},
	}
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return *c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies the server answers HTTP at its base URL. Any status
// counts; only transport failures are errors.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	drainAndClose(resp.Body)
	return nil
}

// =============================================================================
// QUERY
// =============================================================================

// Query sends one prompt to the inference endpoint. See the package
// documentation for how results and errors are split.
func (c *Client) Query(ctx context.Context, prompt string) (*QueryResult, error) {
	body, err := json.Marshal(QueryRequest{Prompt: prompt})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.QueryPath, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	result := &QueryResult{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// Headers arrived, so the server did answer; treat the body as unreadable.
		return result, nil
	}
	result.Payload, result.Decoded = DecodeQueryResponse(raw)
	return result, nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// UploadDataset sends the raw file bytes as a multipart form with a single
// "file" field. The response body is not consumed beyond its status.
func (c *Client) UploadDataset(ctx context.Context, filename string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to build form", Cause: err}
	}
	if _, err := part.Write(data); err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to build form", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to build form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.UploadPath, &buf)
	if err != nil {
		return &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ack UploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.Detail != "" {
			return &ClientError{
				Type:    ErrTypeUploadRejected,
				Message: UploadFailedMessage,
				Cause:   errors.New(ack.Detail),
			}
		}
		return &ClientError{Type: ErrTypeUploadRejected, Message: UploadFailedMessage}
	}
	return nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeNotReachable, Message: ErrNotReachable.Message, Cause: err}
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsNotReachable checks if an error means no HTTP response was obtained.
func IsNotReachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotReachable
	}
	return false
}

// IsUploadRejected checks if the server answered an upload with a non-2xx status.
func IsUploadRejected(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUploadRejected
	}
	return false
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
