// Package agentic provides a Go client for the Kore.ai Agentic App Platform
// REST API.
//
// Example usage:
//
//	client := agentic.NewClient("", "my-app-id", "production", apiKey)
//
//	result, err := client.ExecuteRun(ctx, agentic.ExecuteOptions{
//	    Query:            "What is the weather in San Francisco?",
//	    SessionReference: "session-001",
//	})
//
//	// Check an asynchronous run later
//	status, err := client.GetRunStatus(ctx, result.SessionInfo.RunID, nil)
package agentic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://agent-platform.kore.ai/api/v2"

// DefaultTimeout applies to non-streaming requests.
const DefaultTimeout = 30 * time.Second

// Client talks to the Agentic App Platform for one app/environment pair.
type Client struct {
	baseURL string
	appID   string
	envName string
	apiKey  string

	httpClient *http.Client
	logger     *Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client for non-streaming requests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the non-streaming request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *Logger) ClientOption {
	return func(client *Client) {
		if l != nil {
			client.logger = l
		}
	}
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, appID, envName, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		appID:   appID,
		envName: envName,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: &Logger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) executeURL() string {
	return fmt.Sprintf("%s/apps/%s/environments/%s/runs/execute", c.baseURL, c.appID, c.envName)
}

func (c *Client) statusURL(runID string) string {
	return fmt.Sprintf("%s/apps/%s/environments/%s/runs/%s/status", c.baseURL, c.appID, c.envName, runID)
}

// ExecuteOptions are the caller-facing parameters of an execute call.
type ExecuteOptions struct {
	// Query is the input text. Required.
	Query string

	// SessionReference scopes the run to a conversation. Required.
	SessionReference string

	// UserReference identifies the user. Defaults to SessionReference.
	UserReference string

	// StreamEnabled requests status streaming over SSE.
	StreamEnabled bool

	// StreamMode is tokens, messages or custom. Implies nothing on its own;
	// it is sent alongside the enable flag.
	StreamMode string

	// DebugEnabled requests debug output from the platform.
	DebugEnabled bool

	// DebugMode is all, function-call or thoughts.
	DebugMode string

	// Metadata is spliced into the request body as metaData.
	Metadata map[string]any
}

// ExecuteRun executes an agentic run and returns its normalized result.
// With StreamEnabled the SSE response is collected into the same result
// shape, including the fallback status lookup for streams that carry no
// content.
func (c *Client) ExecuteRun(ctx context.Context, opts ExecuteOptions) (*RunResult, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, newError(KindValidation, 0, "query cannot be empty")
	}
	if strings.TrimSpace(opts.SessionReference) == "" {
		return nil, newError(KindValidation, 0, "session identity cannot be empty")
	}
	if opts.StreamMode != "" && !validStreamMode(opts.StreamMode) {
		return nil, newError(KindValidation, 0,
			"invalid stream mode %q, must be %s, %s or %s",
			opts.StreamMode, StreamTokens, StreamMessages, StreamCustom)
	}
	if opts.DebugMode != "" && !validDebugMode(opts.DebugMode) {
		return nil, newError(KindValidation, 0,
			"invalid debug mode %q, must be %s, %s or %s",
			opts.DebugMode, DebugAll, DebugFunctionCall, DebugThoughts)
	}

	userRef := opts.UserReference
	if userRef == "" {
		userRef = opts.SessionReference
	}

	request := ExecuteRequest{
		SessionIdentity: BuildSessionIdentity(userRef, opts.SessionReference),
		Input:           BuildInput(opts.Query),
	}
	if opts.StreamEnabled || opts.StreamMode != "" {
		request.Stream = &StreamConfig{
			Enable:     opts.StreamEnabled,
			StreamMode: opts.StreamMode,
		}
	}
	if opts.DebugEnabled {
		request.Debug = &DebugConfig{
			Enable:    true,
			DebugMode: opts.DebugMode,
		}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, wrapError(KindRequest, err, "marshal request body")
	}
	if len(opts.Metadata) > 0 {
		body, err = sjson.SetBytes(body, "metaData", opts.Metadata)
		if err != nil {
			return nil, wrapError(KindRequest, err, "attach metadata")
		}
	}

	if opts.StreamEnabled {
		return c.executeStreaming(ctx, body)
	}
	return c.executeSync(ctx, body)
}

func (c *Client) executeSync(ctx context.Context, body []byte) (*RunResult, error) {
	reqURL := c.executeURL()
	reqLog := c.logger.StartRequest(http.MethodPost, reqURL)
	c.logger.Debug("request body", "body", string(body))

	resp, err := c.post(ctx, c.httpClient, reqURL, body, false)
	if err != nil {
		reqLog.Error(err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		reqLog.Error(err)
		return nil, wrapError(KindRequest, err, "read response body")
	}

	if resp.StatusCode >= 400 {
		apiErr := c.errorFromResponse(resp.StatusCode, respBody)
		reqLog.Error(apiErr)
		return nil, apiErr
	}
	reqLog.Success(resp.StatusCode)
	c.logger.Debug("response body", "body", string(respBody))

	var result RunResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, wrapError(KindResponse, err, "decode execute response")
	}
	result.Raw = respBody
	return &result, nil
}

func (c *Client) executeStreaming(ctx context.Context, body []byte) (*RunResult, error) {
	reqURL := c.executeURL()
	reqLog := c.logger.StartRequest(http.MethodPost, reqURL)
	c.logger.Debug("request body", "body", string(body))

	// A plain client without a timeout: the stream stays open for the
	// lifetime of the run and is bounded by ctx instead.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	resp, err := c.post(ctx, streamClient, reqURL, body, true)
	if err != nil {
		reqLog.Error(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := c.errorFromResponse(resp.StatusCode, respBody)
		reqLog.Error(apiErr)
		return nil, apiErr
	}

	collector := &StreamCollector{Fetcher: c, Logger: c.logger}
	result, err := collector.Collect(ctx, resp.Body)
	if err != nil {
		reqLog.Error(err)
		return nil, err
	}
	reqLog.Success(resp.StatusCode)
	return result, nil
}

// GetRunStatus fetches the status of a run, optionally scoped by a session
// identity for context verification.
func (c *Client) GetRunStatus(ctx context.Context, runID string, identity []SessionIdentityItem) (*StatusResult, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, newError(KindValidation, 0, "run ID cannot be empty")
	}

	body := []byte("{}")
	if len(identity) > 0 {
		var err error
		body, err = json.Marshal(map[string]any{"sessionIdentity": identity})
		if err != nil {
			return nil, wrapError(KindRequest, err, "marshal request body")
		}
	}

	reqURL := c.statusURL(runID)
	reqLog := c.logger.StartRequest(http.MethodPost, reqURL)

	resp, err := c.post(ctx, c.httpClient, reqURL, body, false)
	if err != nil {
		reqLog.Error(err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		reqLog.Error(err)
		return nil, wrapError(KindRequest, err, "read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		apiErr := newError(KindRunNotFound, http.StatusNotFound, "run %q not found", runID)
		reqLog.Error(apiErr)
		return nil, apiErr
	}
	if resp.StatusCode >= 400 {
		apiErr := c.errorFromResponse(resp.StatusCode, respBody)
		reqLog.Error(apiErr)
		return nil, apiErr
	}
	reqLog.Success(resp.StatusCode)
	c.logger.Debug("response body", "body", string(respBody))

	return newStatusResult(runID, respBody), nil
}

// FetchRunStatus implements StatusFetcher for the stream collector.
func (c *Client) FetchRunStatus(ctx context.Context, runID string, identity []SessionIdentityItem) (*StatusResult, error) {
	return c.GetRunStatus(ctx, runID, identity)
}

// PollRunStatus polls until the run reaches a terminal state or maxAttempts
// is exhausted. Non-positive maxAttempts and interval select the defaults
// of 30 attempts every 2 seconds.
func (c *Client) PollRunStatus(ctx context.Context, runID string, maxAttempts int, interval time.Duration) (*StatusResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}

	c.logger.Debug("polling run status",
		"run_id", runID,
		"max_attempts", maxAttempts,
		"interval", interval.String(),
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.logger.Debug("poll attempt", "attempt", attempt, "run_id", runID)

		status, err := c.GetRunStatus(ctx, runID, nil)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case StatusSuccess:
			return status, nil
		case StatusFailed:
			msg := status.ErrorMessage()
			if msg == "" {
				msg = "run failed"
			}
			return nil, newError(KindResponse, 0, "run failed: %s", msg)
		case StatusPending, StatusRunning:
			if attempt == maxAttempts {
				continue
			}
			select {
			case <-ctx.Done():
				return nil, wrapError(KindTimeout, ctx.Err(), "polling interrupted")
			case <-time.After(interval):
			}
		default:
			return nil, newError(KindResponse, 0, "unknown run status: %q", status.Status)
		}
	}

	return nil, newError(KindTimeout, 0,
		"run did not complete after %s", time.Duration(maxAttempts)*interval)
}

func (c *Client) post(ctx context.Context, client *http.Client, reqURL string, body []byte, streaming bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, wrapError(KindRequest, err, "create request")
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	return resp, nil
}

func (c *Client) classifyTransportError(err error) *Error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return newError(KindTimeout, 0, "request timed out after %s", c.httpClient.Timeout)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(KindTimeout, err, "request timed out")
	}
	return wrapError(KindRequest, err, "request failed")
}

func (c *Client) errorFromResponse(statusCode int, body []byte) *Error {
	switch statusCode {
	case http.StatusUnauthorized:
		return newError(KindAuthentication, statusCode, "authentication failed, check your API key")
	case http.StatusNotFound:
		return newError(KindRequest, statusCode,
			"resource not found, check app id %q and environment %q", c.appID, c.envName)
	case http.StatusTooManyRequests:
		return newError(KindRequest, statusCode, "rate limit exceeded, please retry later")
	}

	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = "unknown error"
	}
	return newError(KindResponse, statusCode, "api error: %s", msg)
}
