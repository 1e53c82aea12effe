package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gogogo/internal/general/jwt"
	"gogogo/internal/ports"
)

// Notifier posts notification payloads to the chat-bot webhook.
type Notifier struct {
	url    string
	client *http.Client
	signer *jwt.Manager // nil disables the Authorization header
}

var _ ports.Notifier = (*Notifier)(nil)

// New returns a notifier for url. Every delivery is bounded by timeout.
func New(url string, timeout time.Duration, signer *jwt.Manager) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		signer: signer,
	}
}

// Notify POSTs payload as JSON and returns the response status.
// Any completed exchange is a success; only transport failures are errors.
func (n *Notifier) Notify(ctx context.Context, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if n.signer != nil {
		token, err := n.signer.IssueWebhookToken(eventOf(payload))
		if err != nil {
			return 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}

// eventOf extracts the "type" discriminator of a payload, if any.
func eventOf(payload any) string {
	if t, ok := payload.(interface{ EventType() string }); ok {
		return t.EventType()
	}
	return ""
}

// Noop discards notifications. It is used when no webhook URL is configured.
type Noop struct{}

var _ ports.Notifier = Noop{}

// Notify reports success without sending anything.
func (Noop) Notify(context.Context, any) (int, error) { return http.StatusNoContent, nil }
