// Package netx contains small networking helpers shared by client components.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// UploadPresigned PUTs body to a presigned object-storage URL. Transient
// failures (transport errors and 5xx responses) are retried a few times with
// fibonacci backoff; 4xx responses fail immediately since the URL is either
// expired or malformed.
func UploadPresigned(ctx context.Context, url string, body []byte) error {
	b := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/octet-stream")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("upload failed: %s", resp.Status))
		default:
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
		}
	})
}
