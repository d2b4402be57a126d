// Package remote implements the client side of the remote store contract:
// idempotent entry upserts, attachment presign requests, and a liveness
// probe the connectivity monitor uses.
package remote

import (
	"context"
	"encoding/json"
)

// UpsertRequest is one entry submission. LocalID doubles as the idempotency
// key: resubmitting the same LocalID must yield the same response.
type UpsertRequest struct {
	LocalID         string          `json:"local_id"`
	OwnerID         string          `json:"owner_id"`
	Payload         json.RawMessage `json:"payload"`
	CreatedAtClient int64           `json:"created_at_client"`
}

// UpsertResponse carries the remote identity assigned (or re-returned) for
// the submitted entry.
type UpsertResponse struct {
	ServerID        string `json:"server_id"`
	CreatedAtServer int64  `json:"created_at_server"`
}

// RemoteEntry is one synced entry as the server reports it.
type RemoteEntry struct {
	ServerID        string          `json:"server_id"`
	LocalID         string          `json:"local_id"`
	Payload         json.RawMessage `json:"payload"`
	CreatedAtClient int64           `json:"created_at_client"`
	CreatedAtServer int64           `json:"created_at_server"`
}

// Client is the transport-facing surface the sync engine and connectivity
// monitor depend on. Errors returned by implementations are mapped to the
// common sentinel set so callers can classify without knowing the transport.
type Client interface {
	UpsertEntry(ctx context.Context, req UpsertRequest) (*UpsertResponse, error)
	Recent(ctx context.Context, limit int) ([]RemoteEntry, error)
	PresignAttachment(ctx context.Context, entryLocalID string) (string, error)
	Ping(ctx context.Context) error
	Close() error
}
