// Package feed adapts the external point-of-sale order feed (a
// Square-shaped orders/search endpoint) into canonical orders. The feed
// is treated purely as a data source: authentication is a bearer token,
// and any fields beyond the consumed subset are opaque.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"beans-dashboard/internal/core"

	"github.com/shopspring/decimal"
)

const (
	defaultVersion = "2023-10-18"
	defaultTimeout = 15 * time.Second
)

// defaultStates mirrors the dashboard's interest: open orders to cook,
// completed ones to reconcile.
var defaultStates = []string{"OPEN", "COMPLETED"}

type Config struct {
	// BaseURL is the feed root, e.g. https://connect.squareupsandbox.com.
	BaseURL    string
	Token      string
	LocationID string
	// Version is the feed API version header; defaults to defaultVersion.
	Version string
	// States filters the search; defaults to defaultStates.
	States []string
	// Timeout bounds each search call; defaults to defaultTimeout.
	Timeout time.Duration
}

// Client implements core.FeedSource over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if len(cfg.States) == 0 {
		cfg.States = defaultStates
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchRequest struct {
	LocationIDs []string    `json:"location_ids"`
	Query       searchQuery `json:"query"`
}

type searchQuery struct {
	Filter searchFilter `json:"filter"`
}

type searchFilter struct {
	StateFilter stateFilter `json:"state_filter"`
}

type stateFilter struct {
	States []string `json:"states"`
}

type searchResponse struct {
	Orders []feedOrder `json:"orders"`
	Errors []feedError `json:"errors"`
}

type feedError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// feedOrder tolerates the shape drift observed upstream: the customer
// reference arrives as customer_id or customer_name depending on the
// feed variant, and line_items may be absent entirely.
type feedOrder struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	CustomerID   string         `json:"customer_id"`
	CustomerName string         `json:"customer_name"`
	LineItems    []feedLineItem `json:"line_items"`
}

type feedLineItem struct {
	Name     string       `json:"name"`
	Quantity feedQuantity `json:"quantity"`
}

// feedQuantity accepts a JSON number or a quoted numeric string (the
// feed sends "2"). Absent, null, or unparseable values decode to zero
// and are defaulted to one during normalization.
type feedQuantity struct {
	decimal.Decimal
}

func (q *feedQuantity) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		q.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		q.Decimal = decimal.Zero
		return nil
	}
	q.Decimal = d
	return nil
}

// SearchOrders fetches the feed's current snapshot. A well-formed empty
// response returns an empty slice and no error; transport failures,
// non-2xx statuses, and malformed payloads return an error the caller
// retries on the next cycle.
func (c *Client) SearchOrders(ctx context.Context) ([]core.Order, error) {
	body, err := json.Marshal(searchRequest{
		LocationIDs: []string{c.cfg.LocationID},
		Query: searchQuery{
			Filter: searchFilter{StateFilter: stateFilter{States: c.cfg.States}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v2/orders/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Square-Version", c.cfg.Version)
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order feed unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}

	var parsed searchResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Best effort: surface the feed's own error detail when present.
		_ = json.Unmarshal(payload, &parsed)
		if len(parsed.Errors) > 0 && parsed.Errors[0].Detail != "" {
			return nil, fmt.Errorf("order feed error (status %d): %s", resp.StatusCode, parsed.Errors[0].Detail)
		}
		return nil, fmt.Errorf("order feed returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}

	orders := make([]core.Order, 0, len(parsed.Orders))
	for _, fo := range parsed.Orders {
		if fo.ID == "" {
			continue
		}
		orders = append(orders, normalize(fo))
	}
	return orders, nil
}

// normalize maps one raw feed order onto the canonical shape.
func normalize(fo feedOrder) core.Order {
	customer := fo.CustomerID
	if customer == "" {
		customer = fo.CustomerName
	}
	if customer == "" {
		customer = "Guest"
	}

	createdAt := fo.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	items := make([]core.LineItem, 0, len(fo.LineItems))
	for _, li := range fo.LineItems {
		qty := li.Quantity.Decimal
		if qty.IsZero() || qty.IsNegative() {
			qty = decimal.NewFromInt(1)
		}
		items = append(items, core.LineItem{Name: li.Name, Quantity: qty})
	}

	return core.Order{
		ID:          fo.ID,
		CustomerRef: customer,
		Status:      core.StatusPending,
		LineItems:   items,
		CreatedAt:   createdAt,
	}
}
