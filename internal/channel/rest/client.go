package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/channel"
)

// Client is the HTTP implementation of channel.Client. Every call carries the
// configured timeout; a stalled channel degrades only its own row or run.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) PullOrders(ctx context.Context, token string, since time.Time) ([]channel.ExternalOrder, error) {
	var out struct {
		Orders []channel.ExternalOrder `json:"orders"`
	}
	if err := c.get(ctx, token, "/orders", since, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) PullInventory(ctx context.Context, token string, since time.Time) ([]channel.ExternalInventoryItem, error) {
	var out struct {
		Items []channel.ExternalInventoryItem `json:"items"`
	}
	if err := c.get(ctx, token, "/inventory", since, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) PushQuantity(ctx context.Context, token, externalSKU string, quantity int) error {
	body, err := json.Marshal(map[string]int{"quantity": quantity})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/inventory/%s", c.baseURL, url.PathEscape(externalSKU))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstreamf("push quantity for %s: %v", externalSKU, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Upstreamf("push quantity for %s: status %d", externalSKU, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, token, path string, since time.Time, out interface{}) error {
	u := c.baseURL + path
	if !since.IsZero() {
		u += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstreamf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Upstreamf("get %s: status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
