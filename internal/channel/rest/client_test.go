package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwise/fulfillment-service/internal/apperr"
)

func TestPullOrders(t *testing.T) {
	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, since.Format(time.RFC3339), r.URL.Query().Get("since"))

		_, _ = w.Write([]byte(`{"orders":[
			{"external_id":"ext-1","order_number":"SO-1001","items":[{"sku":"A101","quantity":2}]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	orders, err := c.PullOrders(context.Background(), "tok-1", since)
	require.NoError(t, err)

	require.Len(t, orders, 1)
	assert.Equal(t, "ext-1", orders[0].ExternalID)
	assert.Equal(t, "SO-1001", orders[0].OrderNumber)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
}

func TestPullOrders_ZeroCursorOmitsSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since"))
		_, _ = w.Write([]byte(`{"orders":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	orders, err := c.PullOrders(context.Background(), "tok-1", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPullInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{"external_id":"it-1","sku":"A101","name":"Widget"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	items, err := c.PullInventory(context.Background(), "tok-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A101", items[0].SKU)
}

func TestPushQuantity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/inventory/ext-A101", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var payload map[string]int
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, 7, payload["quantity"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.PushQuantity(context.Background(), "tok-1", "ext-A101", 7)
	assert.NoError(t, err)
}

func TestUpstreamFailuresAreClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.PullOrders(ctx, "tok-1", time.Time{})
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	err = c.PushQuantity(ctx, "tok-1", "ext-A101", 7)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
