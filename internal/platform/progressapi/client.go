// Package progressapi is the HTTP implementation of the remote Progress
// Service contract. It posts queued mutations as JSON and maps response
// classes onto the remote package's error taxonomy.
package progressapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/lingua-engine/internal/config"
	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/remote"
)

// endpoints maps each mutation type onto its remote path. The queue
// payload is already the wire shape, so replay is a straight POST of
// the stored bytes.
var endpoints = map[domain.MutationType]string{
	domain.MutationTypeProgress:           "/v1/progress",
	domain.MutationTypeExerciseSubmission: "/v1/submissions",
	domain.MutationTypeReview:             "/v1/reviews",
	domain.MutationTypeSelfCheck:          "/v1/self-checks",
}

// maxErrorBodyBytes caps how much of an error response body is read for
// logging and error messages.
const maxErrorBodyBytes = 2048

// Client talks to the remote Progress Service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ remote.ProgressClient = (*Client)(nil)

// NewClient creates a Progress Service client from the sync
// configuration section.
func NewClient(cfg config.SyncConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("sync base URL cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "progress_client")),
	}, nil
}

// Replay posts one queued mutation to its endpoint. A 2xx response
// acknowledges the mutation; 4xx maps to remote.ErrRejected; anything
// else, transport failures included, maps to remote.ErrUnavailable.
func (c *Client) Replay(ctx context.Context, mutation *domain.PendingMutation) error {
	if mutation == nil {
		return fmt.Errorf("%w: mutation is nil", remote.ErrRejected)
	}

	path, ok := endpoints[mutation.Type]
	if !ok {
		// An unknown type can never be accepted, so replaying is futile.
		return fmt.Errorf("%w: unknown mutation type %q", remote.ErrRejected, mutation.Type)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(mutation.Payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", remote.ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "replay request failed",
			slog.String("type", string(mutation.Type)),
			slog.Int64("seq", mutation.Seq),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", remote.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.DebugContext(ctx, "mutation acknowledged",
			slog.String("type", string(mutation.Type)),
			slog.Int64("seq", mutation.Seq))
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		c.logger.WarnContext(ctx, "mutation rejected",
			slog.String("type", string(mutation.Type)),
			slog.Int64("seq", mutation.Seq),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d: %s", remote.ErrRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.WarnContext(ctx, "remote returned server error",
		slog.String("type", string(mutation.Type)),
		slog.Int64("seq", mutation.Seq),
		slog.Int("status", resp.StatusCode))
	return fmt.Errorf("%w: status %d", remote.ErrUnavailable, resp.StatusCode)
}
