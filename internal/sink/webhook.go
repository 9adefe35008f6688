package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/shared"
)

const (
	webhookMaxAttempts = 3
	webhookBackoff     = 500 * time.Millisecond
)

// WebhookSink posts payload chunks to a chat webhook, in chunk order.
//
// Each chunk retries independently with backoff; the first chunk to exhaust
// its retries fails the whole delivery with its index reported, so a partial
// post is never silent.
type WebhookSink struct {
	url        string
	httpClient *http.Client

	// sleep is swappable in tests so retry paths run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWebhookSink creates a sink posting to the given webhook URL.
func NewWebhookSink(url string, client *http.Client) (*WebhookSink, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: webhook URL required", shared.ErrInvalidInput)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookSink{url: url, httpClient: client, sleep: sleepCtx}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *WebhookSink) Deliver(ctx context.Context, name string, payload *formatter.Payload) ([]string, error) {
	total := len(payload.Chunks)
	for i, chunk := range payload.Chunks {
		if err := s.postChunk(ctx, chunk); err != nil {
			return nil, fmt.Errorf("%w: chunk %d/%d: %v", shared.ErrDeliveryFailed, i+1, total, err)
		}
	}
	return nil, nil
}

// postChunk sends one message, retrying on failure up to the attempt bound.
func (s *WebhookSink) postChunk(ctx context.Context, chunk []byte) error {
	body, err := json.Marshal(map[string]string{"content": string(chunk)})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= webhookMaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, webhookBackoff<<(attempt-2)); err != nil {
				return err
			}
		}

		lastErr = s.post(ctx, body)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (s *WebhookSink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
