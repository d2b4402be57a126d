package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moodlog-app/moodlog/internal/common"
)

// HTTPClient talks JSON over HTTP to the remote store.
type HTTPClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewHTTPClient builds a client for the given base URL. The token is the
// collaborator-issued bearer credential attached to every request.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) UpsertEntry(ctx context.Context, req UpsertRequest) (*UpsertResponse, error) {
	var resp UpsertResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/entries", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Recent(ctx context.Context, limit int) ([]RemoteEntry, error) {
	var resp struct {
		Entries []RemoteEntry `json:"entries"`
	}
	path := "/api/v1/entries?limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *HTTPClient) PresignAttachment(ctx context.Context, entryLocalID string) (string, error) {
	req := struct {
		EntryLocalID string `json:"entry_local_id"`
	}{EntryLocalID: entryLocalID}
	var resp struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/attachments/presign", req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		// transport-level failures are transient by definition
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", common.ErrUnavailable, err)
	}
	return nil
}

// mapStatus folds HTTP status codes into the sentinel taxonomy the engine
// classifies on.
func mapStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg := readErrorMessage(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", common.ErrInvalidEntry, msg)
	default:
		return fmt.Errorf("%w: http %d: %s", common.ErrUnavailable, resp.StatusCode, msg)
	}
}

func readErrorMessage(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil || len(b) == 0 {
		return resp.Status
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(b))
}
