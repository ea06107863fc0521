// Package sheets writes visits to, and reads diagnostics from, a Google
// spreadsheet using a caller-supplied access token.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"visitlog/internal/visitors"
)

const (
	// AppendRange is the table the visit rows are appended to.
	AppendRange = "Sheet1!A:K"

	valueInputRaw = "RAW"
)

// SheetWriteError reports a spreadsheet call that failed or returned a
// non-2xx status. StatusCode is zero for transport failures.
type SheetWriteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *SheetWriteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sheets: %s returned %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("sheets: %s: %v", e.Op, e.Err)
}

func (e *SheetWriteError) Unwrap() error {
	return e.Err
}

// Client talks to the Sheets v4 API.
type Client struct {
	client   *http.Client
	endpoint string
}

// Option configures the Client during construction.
type Option func(*Client)

// WithEndpoint overrides the Sheets API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		c.endpoint = endpoint
	}
}

// NewClient constructs a Client. The supplied client provides the base
// transport and timeout; a nil client means http.DefaultClient.
func NewClient(client *http.Client, opts ...Option) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append writes visit as a single ten-column row at the end of AppendRange.
func (c *Client) Append(ctx context.Context, token *oauth2.Token, sheetID string, visit visitors.Visit) error {
	svc, err := c.service(ctx, token)
	if err != nil {
		return &SheetWriteError{Op: "append", Err: err}
	}

	row := visit.Row()
	cells := make([]interface{}, len(row))
	for i, value := range row {
		cells[i] = value
	}

	_, err = svc.Spreadsheets.Values.Append(sheetID, AppendRange, &sheetsapi.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return wrapError("append", err)
	}
	return nil
}

// Metadata returns the spreadsheet title.
func (c *Client) Metadata(ctx context.Context, token *oauth2.Token, sheetID string) (string, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return "", &SheetWriteError{Op: "get metadata", Err: err}
	}

	spreadsheet, err := svc.Spreadsheets.Get(sheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", wrapError("get metadata", err)
	}
	if spreadsheet.Properties == nil {
		return "", nil
	}
	return spreadsheet.Properties.Title, nil
}

// Values reads readRange and renders every cell as a string.
func (c *Client) Values(ctx context.Context, token *oauth2.Token, sheetID, readRange string) ([][]string, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, &SheetWriteError{Op: "get values", Err: err}
	}

	resp, err := svc.Spreadsheets.Values.Get(sheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get values", err)
	}

	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprint(cell)
		}
		out = append(out, cells)
	}
	return out, nil
}

func (c *Client) service(ctx context.Context, token *oauth2.Token) (*sheetsapi.Service, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("access token is empty")
	}

	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.client), oauth2.StaticTokenSource(token))
	authed.Timeout = c.client.Timeout

	opts := []option.ClientOption{option.WithHTTPClient(authed)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func wrapError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &SheetWriteError{Op: op, StatusCode: apiErr.Code, Body: strings.TrimSpace(apiErr.Body), Err: err}
	}
	return &SheetWriteError{Op: op, Err: err}
}
