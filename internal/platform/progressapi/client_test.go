package progressapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lingua-engine/internal/config"
	"github.com/phrazzld/lingua-engine/internal/domain"
	"github.com/phrazzld/lingua-engine/internal/remote"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.SyncConfig{BaseURL: baseURL, RequestTimeoutMs: 2000}, testLogger())
	require.NoError(t, err)
	return client
}

func progressMutation(t *testing.T) *domain.PendingMutation {
	t.Helper()
	mutation, err := domain.NewPendingMutation(domain.MutationTypeProgress, remote.ProgressPayload{
		LessonID:  uuid.New(),
		Score:     92,
		TimeSpent: 340,
	})
	require.NoError(t, err)
	return mutation
}

func TestReplayPostsPayloadToTypedEndpoint(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	mutation := progressMutation(t)

	err := client.Replay(context.Background(), mutation)
	require.NoError(t, err)
	assert.Equal(t, "/v1/progress", gotPath)

	var payload remote.ProgressPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, 92, payload.Score)
}

func TestReplayMapsClientErrorToRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "score out of range", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Replay(context.Background(), progressMutation(t))
	assert.ErrorIs(t, err, remote.ErrRejected)
	assert.Contains(t, err.Error(), "score out of range")
}

func TestReplayMapsServerErrorToUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.Replay(context.Background(), progressMutation(t))
	assert.ErrorIs(t, err, remote.ErrUnavailable)
}

func TestReplayMapsTransportFailureToUnavailable(t *testing.T) {
	t.Parallel()

	// Nothing is listening on this address.
	client := newTestClient(t, "http://127.0.0.1:1")

	err := client.Replay(context.Background(), progressMutation(t))
	assert.ErrorIs(t, err, remote.ErrUnavailable)
}

func TestReplayRejectsUnknownMutationType(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://example.invalid")

	err := client.Replay(context.Background(), &domain.PendingMutation{Type: "bogus"})
	assert.ErrorIs(t, err, remote.ErrRejected)

	err = client.Replay(context.Background(), nil)
	assert.ErrorIs(t, err, remote.ErrRejected)
}
