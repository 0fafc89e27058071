package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopfront/internal/config"
	"shopfront/internal/model"
	"shopfront/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/auth/refresh/"

// genericFailureMessage is shown when a transport error leaves us with
// nothing better to tell the user.
const genericFailureMessage = "Request failed, please try again"

// Client is the single point of outbound request dispatch. It attaches
// the bearer token from persisted storage, and on a 401 performs
// at-most-one silent token refresh before re-issuing the original
// request. Concurrent 401s share a single in-flight refresh call.
type Client struct {
	baseURL  string
	http     *http.Client
	store    storage.Store
	notifier Notifier
	logger   zerolog.Logger
	refresh  singleflight.Group
}

// NewClient creates a configured API client. The storage store is the
// shared credential source: tokens written by the session store are
// read here at request time.
func NewClient(cfg config.APIConfig, store storage.Store, notifier Notifier, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:  ResolveBaseURL(cfg.BaseURL, cfg.ProdBaseURL, cfg.Hostname),
		http:     &http.Client{Timeout: timeout},
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "api-client").Logger(),
	}
}

// BaseURL returns the resolved backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do dispatches a single request. body (when non-nil) is marshalled as
// JSON; out (when non-nil) receives the decoded response body.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, false)
}

// do implements the dispatch-and-recover cycle. retried marks a request
// that has already been re-issued after a refresh so a second 401 is
// propagated rather than refreshed again.
func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token, ok := c.store.Get(storage.KeyAccessToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.notifier.Notify(genericFailureMessage)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.notifier.Notify(genericFailureMessage)
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("retried", retried).
		Msg("request completed")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried {
		if refreshToken, ok := c.store.Get(storage.KeyRefreshToken); ok && refreshToken != "" {
			if err := c.refreshAccessToken(ctx); err != nil {
				// Irrecoverable: the session is gone. Clear credentials
				// so rehydration lands in a logged-out state.
				c.clearCredentials()
				c.notifier.Notify(model.ErrSessionExpired.Message)
				return fmt.Errorf("%w: %v", model.ErrSessionExpired, err)
			}
			return c.do(ctx, method, path, body, out, true)
		}
	}

	apiErr := parseAPIError(resp.StatusCode, respBody)
	c.notifier.Notify(apiErr.Error())
	return apiErr
}

// refreshAccessToken exchanges the persisted refresh token for a new
// access token and persists it. Concurrent callers are collapsed into
// one refresh call; each receives the same result.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refreshToken, ok := c.store.Get(storage.KeyRefreshToken)
		if !ok || refreshToken == "" {
			return nil, model.ErrNotAuthenticated
		}

		payload, err := json.Marshal(model.RefreshRequest{Refresh: refreshToken})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("refresh request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read refresh response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, parseAPIError(resp.StatusCode, respBody)
		}

		var refreshed model.RefreshResponse
		if err := json.Unmarshal(respBody, &refreshed); err != nil {
			return nil, fmt.Errorf("failed to decode refresh response: %w", err)
		}
		if refreshed.Access == "" {
			return nil, fmt.Errorf("refresh response missing access token")
		}

		c.store.Set(storage.KeyAccessToken, refreshed.Access)
		if err := c.store.Save(); err != nil {
			c.logger.Error().Err(err).Msg("failed to persist refreshed access token")
		}

		c.logger.Debug().Msg("access token refreshed")
		return refreshed.Access, nil
	})
	return err
}

// clearCredentials wipes persisted identity and tokens after an
// irrecoverable refresh failure.
func (c *Client) clearCredentials() {
	c.store.Delete(storage.KeyAccessToken)
	c.store.Delete(storage.KeyRefreshToken)
	c.store.Delete(storage.KeyUser)
	if err := c.store.Save(); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist credential wipe")
	}
}

// parseAPIError maps an error response body to an APIError, falling
// back to a generic message when the envelope is empty or unparseable.
func parseAPIError(status int, body []byte) *model.APIError {
	var envelope model.ErrorEnvelope
	if len(body) > 0 {
		_ = json.Unmarshal(body, &envelope)
	}

	message := envelope.UserMessage()
	if message == "" {
		message = genericFailureMessage
	}

	return &model.APIError{
		StatusCode: status,
		Message:    message,
	}
}
