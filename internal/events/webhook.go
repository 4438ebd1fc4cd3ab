package events

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/mural-robotics/wallsweep/internal/httputil"
	"github.com/mural-robotics/wallsweep/internal/monitoring"
)

// WebhookNotifier forwards every bus event to an external HTTP endpoint
// as a JSON POST. Delivery is best effort: failures are logged and the
// event is dropped.
type WebhookNotifier struct {
	url    string
	client httputil.HTTPClient
}

// NewWebhookNotifier creates a notifier posting to url. A nil client
// falls back to the default HTTP client.
func NewWebhookNotifier(url string, client httputil.HTTPClient) *WebhookNotifier {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &WebhookNotifier{url: url, client: client}
}

// Run subscribes to the bus and posts events until the context is
// cancelled or the bus closes.
func (n *WebhookNotifier) Run(ctx context.Context, bus *Bus) {
	id, ch := bus.Subscribe()
	defer bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			n.deliver(ev)
		}
	}
}

func (n *WebhookNotifier) deliver(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		monitoring.Logf("webhook: failed to encode event %s: %v", ev.ID, err)
		return
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		monitoring.Logf("webhook: failed to deliver event %s: %v", ev.ID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		monitoring.Logf("webhook: endpoint returned %d for event %s", resp.StatusCode, ev.ID)
	}
}
