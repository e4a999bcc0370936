package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"meetingassist/internal/config"
	"meetingassist/internal/logging"
	"meetingassist/internal/services"
)

// HTTPDoer describes the HTTP client used by the gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Base selects which backend base URL a path is resolved against.
type Base int

const (
	// MeetingsAPI serves /clients/{id}/meetings/... and /upload-url.
	MeetingsAPI Base = iota
	// ClientsAPI serves /clients.
	ClientsAPI
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxResponseBytes = 16 << 20

// Options configures a Client.
type Options struct {
	BaseURL        string
	ClientsBaseURL string
	HTTP           HTTPDoer
	Timeout        time.Duration
	Logger         *slog.Logger
}

// Client is the Resource Gateway.
type Client struct {
	meetingsBase string
	clientsBase  string
	http         HTTPDoer
	logger       *slog.Logger
	newID        func() string
}

// New constructs a gateway. BaseURL is required; ClientsBaseURL defaults to it.
func New(opts Options) (*Client, error) {
	meetingsBase := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if meetingsBase == "" {
		return nil, fmt.Errorf("%w: api base url is not configured", services.ErrConfiguration)
	}
	if _, err := url.Parse(meetingsBase); err != nil {
		return nil, fmt.Errorf("%w: api base url: %v", services.ErrConfiguration, err)
	}
	clientsBase := strings.TrimRight(strings.TrimSpace(opts.ClientsBaseURL), "/")
	if clientsBase == "" {
		clientsBase = meetingsBase
	}
	doer := opts.HTTP
	if doer == nil {
		doer = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		meetingsBase: meetingsBase,
		clientsBase:  clientsBase,
		http:         doer,
		logger:       logging.NewComponentLogger(opts.Logger, "api"),
		newID:        uuid.NewString,
	}, nil
}

// NewFromConfig builds a gateway from application config.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", services.ErrConfiguration)
	}
	return New(Options{
		BaseURL:        cfg.API.BaseURL,
		ClientsBaseURL: cfg.API.ClientsBaseURL,
		Timeout:        cfg.RequestTimeout(),
		Logger:         logger,
	})
}

// Do sends one request. path must already have its identifier segments
// escaped. body, when non-nil, is JSON encoded. On a 2xx response the body is
// decoded into out when out is non-nil and the body is not empty.
func (c *Client) Do(ctx context.Context, base Base, method, path string, query url.Values, body, out any) error {
	target := c.meetingsBase
	if base == ClientsAPI {
		target = c.clientsBase
	}
	target += path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, "api", method+" "+path, "encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return services.Wrap(services.ErrTransport, "api", method+" "+path, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = c.newID()
		ctx = services.WithRequestID(ctx, requestID)
	}
	req.Header.Set(RequestIDHeader, requestID)

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("request failed", logging.String("method", method), logging.String("path", path), logging.Error(err))
		return services.Wrap(services.ErrTransport, "api", method+" "+path, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return services.Wrap(services.ErrTransport, "api", method+" "+path, "read response", err)
	}
	logger.Debug("request completed",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := NewRequestError(method, path, resp.StatusCode, data)
		logging.WarnWithContext(logger, "backend returned an error", "api_error",
			logging.String("method", method),
			logging.String("path", path),
			logging.Int("status", resp.StatusCode),
			logging.String("error_message", reqErr.Message),
			logging.String(logging.FieldErrorHint, "retry the action or check the backend logs for this request id"),
		)
		return reqErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return services.Wrap(services.ErrServer, "api", method+" "+path, "decode response", err)
	}
	return nil
}

func clientsPath() string {
	return "/clients"
}

func meetingsPath(clientID string) string {
	return "/clients/" + url.PathEscape(clientID) + "/meetings"
}

func meetingPath(clientID, meetingID, action string) string {
	return meetingsPath(clientID) + "/" + url.PathEscape(meetingID) + "/" + action
}
