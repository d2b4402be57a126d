package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moodlog-app/moodlog/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientFor(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "tok-123", 2*time.Second)
}

func TestUpsertEntry_Success(t *testing.T) {
	c := newClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/entries", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var req UpsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "loc-1", req.LocalID)

		_ = json.NewEncoder(w).Encode(UpsertResponse{ServerID: "srv-1", CreatedAtServer: 777})
	})

	resp, err := c.UpsertEntry(context.Background(), UpsertRequest{
		LocalID: "loc-1", OwnerID: "u1", Payload: []byte(`{"mood":"ok"}`), CreatedAtClient: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", resp.ServerID)
	assert.EqualValues(t, 777, resp.CreatedAtServer)
}

func TestUpsertEntry_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: common.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: common.ErrUnauthorized},
		{name: "bad request", status: http.StatusBadRequest, want: common.ErrInvalidEntry},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, want: common.ErrInvalidEntry},
		{name: "server error", status: http.StatusInternalServerError, want: common.ErrUnavailable},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, want: common.ErrUnavailable},
		{name: "too many requests", status: http.StatusTooManyRequests, want: common.ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newClientFor(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, tc.status)
			})
			_, err := c.UpsertEntry(context.Background(), UpsertRequest{LocalID: "x"})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpsertEntry_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewHTTPClient(srv.URL, "", time.Second)
	_, err := c.UpsertEntry(context.Background(), UpsertRequest{LocalID: "x"})
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestPing(t *testing.T) {
	c := newClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Ping(context.Background()))
}

func TestPresignAttachment(t *testing.T) {
	c := newClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/attachments/presign", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url": "https://bucket.example/put", "key": "owners/u1/e1",
		})
	})

	url, err := c.PresignAttachment(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example/put", url)
}

func TestRecent(t *testing.T) {
	c := newClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/entries", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entries": []RemoteEntry{{ServerID: "srv-1", LocalID: "loc-1"}},
		})
	})

	got, err := c.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "srv-1", got[0].ServerID)
}
