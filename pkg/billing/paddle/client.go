package paddle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Client is a typed read client for the catalog provider's REST API. Only
// the read endpoints the adapter needs are implemented.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *gocache.Cache
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   gocache.New(2*time.Minute, 5*time.Minute),
	}
}

type productData struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	CustomData map[string]string `json:"custom_data"`
}

type productPage struct {
	Data []productData `json:"data"`
	Meta struct {
		Pagination struct {
			HasMore bool   `json:"has_more"`
			Next    string `json:"next"`
		} `json:"pagination"`
	} `json:"meta"`
}

type transactionData struct {
	ID             string `json:"id"`
	InvoiceNumber  string `json:"invoice_number"`
	SubscriptionID string `json:"subscription_id"`
	DiscountID     string `json:"discount_id"`
}

type discountData struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// ListProducts fetches one catalog page. An empty after cursor fetches the
// first page; the returned cursor is empty once the catalog is exhausted.
func (c *Client) ListProducts(ctx context.Context, after string) ([]productData, string, error) {
	endpoint := c.baseURL + "/products?per_page=200"
	if after != "" {
		endpoint += "&after=" + url.QueryEscape(after)
	}
	var page productPage
	if err := c.get(ctx, endpoint, &page); err != nil {
		return nil, "", err
	}
	next := ""
	if page.Meta.Pagination.HasMore {
		if len(page.Data) == 0 {
			return nil, "", fmt.Errorf("catalog page reports more data but is empty")
		}
		next = page.Data[len(page.Data)-1].ID
	}
	return page.Data, next, nil
}

// GetTransaction resolves a transaction for invoice/discount enrichment.
// Transactions are immutable once completed, so responses are cached.
func (c *Client) GetTransaction(ctx context.Context, id string) (*transactionData, error) {
	if cached, ok := c.cache.Get("txn:" + id); ok {
		return cached.(*transactionData), nil
	}
	var resp struct {
		Data transactionData `json:"data"`
	}
	if err := c.get(ctx, c.baseURL+"/transactions/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	c.cache.SetDefault("txn:"+id, &resp.Data)
	return &resp.Data, nil
}

// GetDiscount resolves a discount id to its human code.
func (c *Client) GetDiscount(ctx context.Context, id string) (*discountData, error) {
	if cached, ok := c.cache.Get("discount:" + id); ok {
		return cached.(*discountData), nil
	}
	var resp struct {
		Data discountData `json:"data"`
	}
	if err := c.get(ctx, c.baseURL+"/discounts/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	c.cache.SetDefault("discount:"+id, &resp.Data)
	return &resp.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog provider returned status %d for %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog provider response: %w", err)
	}
	return nil
}
