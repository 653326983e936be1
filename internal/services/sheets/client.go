package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Credentials identify the service account used to reach the spreadsheet.
// Either CredentialsFile or ClientEmail+PrivateKey must be set.
type Credentials struct {
	ClientEmail     string
	PrivateKey      string
	CredentialsFile string
}

// Client wraps the Sheets API for one spreadsheet
type Client struct {
	srv           *gsheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewClient authenticates with a service account and binds to spreadsheetID
func NewClient(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case creds.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(creds.CredentialsFile))
	case creds.ClientEmail != "" && creds.PrivateKey != "":
		raw, err := serviceAccountJSON(creds)
		if err != nil {
			return nil, fmt.Errorf("failed to encode service account: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(raw))
	default:
		return nil, fmt.Errorf("google service account credentials are not configured")
	}

	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	log.Printf("📗 Sheets: connected to spreadsheet %s", spreadsheetID)
	return &Client{srv: srv, spreadsheetID: spreadsheetID, sheetIDs: make(map[string]int64)}, nil
}

// Table returns a table bound to one worksheet, writing width columns
func (c *Client) Table(sheetName string, width int) *Table {
	return &Table{client: c, sheet: sheetName, width: width}
}

// sheetID resolves a worksheet title to its numeric ID, needed for row deletion
func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	if id, ok := c.sheetIDs[title]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to load spreadsheet metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", title)
	}
	return id, nil
}

type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func serviceAccountJSON(creds Credentials) ([]byte, error) {
	return json.Marshal(serviceAccount{
		Type:        "service_account",
		ClientEmail: creds.ClientEmail,
		PrivateKey:  NormalizePrivateKey(creds.PrivateKey),
		TokenURI:    "https://oauth2.googleapis.com/token",
	})
}

// NormalizePrivateKey undoes the quoting and escaped newlines that env files introduce
func NormalizePrivateKey(key string) string {
	k := strings.TrimSpace(key)
	k = strings.Trim(k, `"'`)
	return strings.ReplaceAll(k, `\n`, "\n")
}
