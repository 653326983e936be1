// Package hubspot talks to the HubSpot CRM v3 API for deals and their line items.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xelth-com/receivinggo/internal/models"
)

// DefaultBaseURL is the HubSpot API root
const DefaultBaseURL = "https://api.hubapi.com"

// DefaultPOProperty is the deal property holding the sales order / PO number
const DefaultPOProperty = "sales_order_"

// ErrNotConfigured is returned when no access token is set
var ErrNotConfigured = errors.New("hubspot access token not configured")

var lineItemProperties = []string{"name", "quantity", "price", "amount", "description", "actual_shipping_date"}

// Client is a HubSpot private-app client
type Client struct {
	baseURL    string
	token      string
	poProperty string
	httpClient *http.Client
}

// NewClient creates a client
func NewClient(baseURL, token, poProperty string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if poProperty == "" {
		poProperty = DefaultPOProperty
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		poProperty: poProperty,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the client has credentials
func (c *Client) Configured() bool {
	return c.token != ""
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type dealsResponse struct {
	Results []models.Deal `json:"results"`
}

// SearchByPO finds deals whose PO property equals po
func (c *Client) SearchByPO(ctx context.Context, po string) ([]models.Deal, error) {
	body := searchRequest{
		FilterGroups: []filterGroup{{Filters: []filter{{PropertyName: c.poProperty, Operator: "EQ", Value: strings.TrimSpace(po)}}}},
		Properties:   []string{},
		Limit:        100,
	}
	var resp dealsResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/deals/search", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to search deals: %w", err)
	}
	return resp.Results, nil
}

type associationsResponse struct {
	Associations map[string]struct {
		Results []struct {
			ID json.Number `json:"id"`
		} `json:"results"`
	} `json:"associations"`
}

type batchReadRequest struct {
	Properties []string  `json:"properties"`
	Inputs     []idInput `json:"inputs"`
}

type idInput struct {
	ID string `json:"id"`
}

type lineItemsResponse struct {
	Results []models.DealLineItem `json:"results"`
}

// LineItems returns the line items associated with a deal
func (c *Client) LineItems(ctx context.Context, dealID string) ([]models.DealLineItem, error) {
	var assoc associationsResponse
	path := "/crm/v3/objects/deals/" + url.PathEscape(dealID) + "?associations=line_items"
	if err := c.do(ctx, http.MethodGet, path, nil, &assoc); err != nil {
		return nil, fmt.Errorf("failed to load deal associations: %w", err)
	}

	group, ok := assoc.Associations["line_items"]
	if !ok {
		group = assoc.Associations["line items"]
	}
	if len(group.Results) == 0 {
		return []models.DealLineItem{}, nil
	}

	req := batchReadRequest{Properties: lineItemProperties}
	for _, r := range group.Results {
		req.Inputs = append(req.Inputs, idInput{ID: r.ID.String()})
	}
	var resp lineItemsResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/line_items/batch/read", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to read line items: %w", err)
	}
	return resp.Results, nil
}

// ShippingDateUpdate sets actual_shipping_date on one CRM line item
type ShippingDateUpdate struct {
	ID                 string `json:"id" validate:"required"`
	ActualShippingDate string `json:"actual_shipping_date"`
}

type batchUpdateInput struct {
	ID         string                 `json:"id"`
	Properties map[string]interface{} `json:"properties"`
}

// UpdateShippingDates writes actual shipping dates as epoch milliseconds
func (c *Client) UpdateShippingDates(ctx context.Context, updates []ShippingDateUpdate) ([]models.DealLineItem, error) {
	inputs := make([]batchUpdateInput, 0, len(updates))
	for _, u := range updates {
		var ms interface{}
		if v, ok := ToEpochMs(u.ActualShippingDate); ok {
			ms = v
		}
		inputs = append(inputs, batchUpdateInput{ID: u.ID, Properties: map[string]interface{}{"actual_shipping_date": ms}})
	}
	var resp lineItemsResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/line_items/batch/update", map[string]interface{}{"inputs": inputs}, &resp); err != nil {
		return nil, fmt.Errorf("failed to update line items: %w", err)
	}
	return resp.Results, nil
}

// UpdateDeal sets one property on a deal
func (c *Client) UpdateDeal(ctx context.Context, dealID, property, value string) (models.Deal, error) {
	body := map[string]interface{}{"properties": map[string]string{property: value}}
	var deal models.Deal
	if err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/deals/"+url.PathEscape(dealID), body, &deal); err != nil {
		return models.Deal{}, fmt.Errorf("failed to update deal %s: %w", dealID, err)
	}
	return deal, nil
}

// ToEpochMs converts a date (epoch digits, RFC3339, 2006-01-02 or 1/2/2006) to epoch milliseconds
func ToEpochMs(val string) (int64, bool) {
	v := strings.TrimSpace(val)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "1/2/2006", "01/02/2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hubspot api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
