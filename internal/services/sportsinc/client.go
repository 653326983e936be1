// Package sportsinc is the client for the Sports Inc dealer documents API.
package sportsinc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xelth-com/receivinggo/internal/models"
)

// DefaultBaseURL is the production API root
const DefaultBaseURL = "https://api.sportsinc.com"

const (
	pageSize           = 500
	maxTruncation      = 10
	minTruncatedLength = 5
)

var (
	// ErrMissingCredentials means no API key is configured; nothing can be fetched
	ErrMissingCredentials = errors.New("sports inc API key is not configured")
	// ErrAuthFailure means the API rejected the key
	ErrAuthFailure = errors.New("sports inc API authentication failed")
	// ErrTransport covers network failures and unexpected server responses
	ErrTransport = errors.New("sports inc API request failed")
)

// Client queries vendor invoices by PO number
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *time.Ticker
}

// NewClient creates a client. requestsPerMinute <= 0 disables pacing.
func NewClient(baseURL, apiKey string, requestsPerMinute int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if requestsPerMinute > 0 {
		c.limiter = time.NewTicker(time.Minute / time.Duration(requestsPerMinute))
	}
	return c
}

// Close stops the request pacer
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Stop()
	}
}

// FetchByPO returns every invoice (active and historical) for po.
// When the exact PO yields nothing, progressively shorter prefixes are tried because
// the vendor tool truncates long PO numbers. A PO that is not found returns nil, nil.
func (c *Client) FetchByPO(ctx context.Context, po string) ([]models.Invoice, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredentials
	}
	po = strings.TrimSpace(po)

	var lastErr error
	answered := false
	for i, candidate := range append([]string{po}, TruncationCandidates(po)...) {
		invoices, err := c.fetch(ctx, candidate, po)
		if err != nil {
			if errors.Is(err, ErrAuthFailure) || ctx.Err() != nil {
				return nil, err
			}
			log.Printf("❌ SportsInc: lookup for %q failed: %v", candidate, err)
			lastErr = err
			continue
		}
		answered = true
		if len(invoices) > 0 {
			if i == 0 {
				log.Printf("✓ SportsInc: found %d invoice(s) for PO %s", len(invoices), po)
			} else {
				log.Printf("✓ SportsInc: found %d invoice(s) for PO %s using truncated %q", len(invoices), po, candidate)
			}
			return invoices, nil
		}
	}

	if !answered && lastErr != nil {
		return nil, lastErr
	}
	log.Printf("SportsInc: no invoices for PO %s (exact or truncated)", po)
	return nil, nil
}

// TruncationCandidates lists the prefixes tried after an exact miss: up to ten
// trailing characters removed, never shorter than five characters.
func TruncationCandidates(po string) []string {
	runes := []rune(po)
	var out []string
	for i := 1; i <= maxTruncation; i++ {
		n := len(runes) - i
		if n < minTruncatedLength {
			break
		}
		out = append(out, string(runes[:n]))
	}
	return out
}

// fetch performs one documents query. 404 and other client errors mean "no result".
func (c *Client) fetch(ctx context.Context, query, requestedPO string) ([]models.Invoice, error) {
	if c.limiter != nil {
		select {
		case <-c.limiter.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	params := url.Values{}
	params.Set("poNumber", query)
	params.Set("lines", "true")
	params.Set("page", "1")
	params.Set("pageSize", fmt.Sprint(pageSize))
	endpoint := c.baseURL + "/dealers/documents/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		log.Println("❌ SportsInc: authentication failed - check SPORTSINC_API_KEY")
		return nil, ErrAuthFailure
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, snippet(body))
	case resp.StatusCode >= 400:
		return nil, nil
	}

	var parsed documentsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrTransport, err)
	}

	invoices := make([]models.Invoice, 0, len(parsed.Items))
	for _, d := range parsed.Items {
		inv := d.toInvoice(requestedPO)
		if !inv.HasRealLineItems() {
			log.Printf("⚠️  SportsInc: invoice %s for PO %s has no EDI line detail", inv.SIDocNumber, inv.PONumber)
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
