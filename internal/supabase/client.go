// Package supabase is the remote data-access layer: a thin client over
// the hosted backend's auth and table-REST surfaces. Every failure comes
// back as a *RemoteError; transport errors never cross this boundary raw,
// and nothing here retries.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RemoteError is the tagged failure value for remote calls. Message is
// human-readable and safe to display inline.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// Client talks to the hosted backend
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client. baseURL and anonKey must be
// non-empty; config validation guarantees that at startup.
func NewClient(baseURL, anonKey string, logger *zap.Logger) (*Client, error) {
	if baseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("baseURL and anonKey are required")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{},
		logger:  logger,
	}, nil
}

// FunctionURL returns the invoke URL of a hosted function
func (c *Client) FunctionURL(name string) string {
	return c.baseURL + "/functions/v1/" + name
}

// do performs one request against the backend and decodes a 2xx JSON
// body into out (when out is non-nil). Non-2xx responses are mapped to a
// *RemoteError carrying the backend's message. Each call is attempted
// exactly once.
func (c *Client) do(ctx context.Context, op, method, path string, accessToken string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Message: "failed to encode request: " + err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RemoteError{Op: op, Message: "failed to build request: " + err.Error()}
	}

	req.Header.Set("apikey", c.anonKey)
	token := accessToken
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		// Ask the table surface to echo affected rows back
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("remote call failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err),
		)
		return &RemoteError{Op: op, Message: "network error: " + err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, Status: resp.StatusCode, Message: "failed to read response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := remoteMessage(raw)
		c.logger.Warn("remote call rejected",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return &RemoteError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &RemoteError{Op: op, Status: resp.StatusCode, Message: "failed to decode response: " + err.Error()}
		}
	}

	return nil
}

// remoteMessage digs a display message out of a backend error body
func remoteMessage(raw []byte) string {
	var payload struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		for _, m := range []string{payload.Message, payload.Msg, payload.ErrorDescription, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "request failed"
}
