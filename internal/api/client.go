package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxErrorBodyBytes     = 1 << 20

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
	requestIDHeader = "X-Request-ID"
)

// TokenSource yields the bearer token. It is consulted on every request so a
// token replaced mid-session is picked up by the next call.
type TokenSource interface {
	Token() string
}

// Config customizes the API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Tokens     TokenSource
	UserAgent  string
	Logger     *slog.Logger
}

// Client performs requests against the Pony Express backend and normalizes
// responses and errors.
type Client struct {
	baseURL   string
	client    *http.Client
	tokens    TokenSource
	userAgent string
	logger    *slog.Logger
}

// Request is a fully described backend call.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https: %q", cfg.BaseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("api base url has no host: %q", cfg.BaseURL)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "api")
	}

	return &Client{
		baseURL:   base,
		client:    client,
		tokens:    cfg.Tokens,
		userAgent: strings.TrimSpace(cfg.UserAgent),
		logger:    logger,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) PostJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPost, path, body)
}

func (c *Client) PutJSON(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPut, path, body)
}

func (c *Client) PostForm(ctx context.Context, path string, values url.Values) (json.RawMessage, error) {
	return c.doForm(ctx, http.MethodPost, path, values)
}

func (c *Client) PutForm(ctx context.Context, path string, values url.Values) (json.RawMessage, error) {
	return c.doForm(ctx, http.MethodPut, path, values)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
	}

	return c.Do(ctx, Request{Method: method, Path: path, Body: raw, ContentType: contentTypeJSON})
}

func (c *Client) doForm(ctx context.Context, method, path string, values url.Values) (json.RawMessage, error) {
	return c.Do(ctx, Request{
		Method:      method,
		Path:        path,
		Body:        []byte(values.Encode()),
		ContentType: contentTypeForm,
	})
}

// Do sends req and returns the JSON body of a successful response.
// A 204 response yields an empty object.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", req.Method, req.Path, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(requestIDHeader, requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.Path, "request_id", requestID, "error", err)

		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug(
		"received response",
		"method", req.Method,
		"path", req.Path,
		"status_code", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started).String(),
	)

	return handleResponse(resp)
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func handleResponse(resp *http.Response) (json.RawMessage, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.StatusCode == http.StatusNoContent {
			return json.RawMessage(`{}`), nil
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return json.RawMessage(`{}`), nil
		}
		if !json.Valid(raw) {
			return nil, errors.New("response body is not valid json")
		}

		return json.RawMessage(raw), nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var payload errorBody
	if err := json.Unmarshal(raw, &payload); err != nil {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = strings.ToLower(http.StatusText(resp.StatusCode))
		}

		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if detail := bytes.TrimSpace(payload.Detail); len(detail) > 0 && !bytes.Equal(detail, []byte("null")) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, detail); err != nil {
			compact.Reset()
			compact.Write(detail)
		}

		return nil, &ValidationError{Status: resp.StatusCode, Detail: compact.String()}
	}

	return nil, &APIError{Status: resp.StatusCode, Code: payload.Error, Message: payload.Message}
}

func decode[T any](raw json.RawMessage, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}

	return out, nil
}
