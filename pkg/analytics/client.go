package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event names understood by the collector.
const (
	EventPurchase            = "purchase"
	EventRefund              = "refund"
	EventSubscriptionCancel  = "subscription_cancel"
	EventSubscriptionResume  = "subscription_resume"
	EventSubscriptionDeleted = "subscription_deleted"
)

// Event is one notification for the collector, keyed by customer uid.
type Event struct {
	Uid        string                 `json:"uid"`
	Title      string                 `json:"title"`
	HappenedAt time.Time              `json:"happenedAt"`
	Data       map[string]interface{} `json:"data"`
}

// Amendment patches an already-delivered event: Where selects it, Update is
// merged into its attributes.
type Amendment struct {
	Uid    string                 `json:"uid"`
	Event  string                 `json:"event"`
	Where  map[string]interface{} `json:"where"`
	Update map[string]interface{} `json:"update"`
}

// Client is the one-way collector client. Calls carry a bounded timeout;
// the caller decides whether failures matter.
type Client struct {
	host   string
	secret string
	http   *http.Client
}

func NewClient(host, secret string) *Client {
	return &Client{
		host:   host,
		secret: secret,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify delivers one event.
func (c *Client) Notify(ctx context.Context, event Event) error {
	return c.send(ctx, http.MethodPost, c.host+"/notify", event)
}

// ModifyEvent patches an already-delivered event.
func (c *Client) ModifyEvent(ctx context.Context, amendment Amendment) error {
	return c.send(ctx, http.MethodPatch, c.host+"/event", amendment)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal analytics payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("analytics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("analytics collector returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
