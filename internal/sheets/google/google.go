package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	ports "renewals/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes cell ranges of one spreadsheet through the Sheets API.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.RangeWriter = (*Client)(nil)

// Credentials select how the client authenticates. Service account
// credentials win over an API key when both are set.
type Credentials struct {
	APIKey             string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Options turns the credentials into client options. The standard
// GOOGLE_APPLICATION_CREDENTIALS variable is consulted when nothing else is set.
func (c Credentials) Options(ctx context.Context) ([]goption.ClientOption, error) {
	serviceAccountJSON := strings.TrimSpace(c.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(c.ServiceAccountFile)
	apiKey := strings.TrimSpace(c.APIKey)

	if serviceAccountJSON == "" && serviceAccountFile == "" && apiKey == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	case apiKey != "":
		return []goption.ClientOption{goption.WithAPIKey(apiKey)}, nil
	default:
		return nil, fmt.Errorf("%w: set an api key, GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE", ports.ErrMissingAPIKey)
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// New creates a client for spreadsheetID with the given API options.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewWithCredentials builds the credential options and a pooled HTTP
// transport, then creates the client.
func NewWithCredentials(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	opts, err := creds.Options(ctx)
	if err != nil {
		return nil, err
	}
	// An explicit HTTP client overrides option-based auth, so the pooled
	// transport is only used for API key access, where it carries the key.
	if strings.TrimSpace(creds.APIKey) != "" && creds.ServiceAccountJSON == "" && creds.ServiceAccountFile == "" {
		opts = append(opts, goption.WithHTTPClient(newHTTPClientWithPooling(creds.APIKey)))
	}
	return New(ctx, spreadsheetID, opts...)
}

// apiKeyTransport adds the key to every request, mirroring what
// option.WithAPIKey does for the default transport.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t apiKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r2 := r.Clone(r.Context())
	q := r2.URL.Query()
	q.Set("key", t.key)
	r2.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r2)
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API
// with connection pooling and bounded timeouts.
func newHTTPClientWithPooling(apiKey string) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: apiKeyTransport{key: strings.TrimSpace(apiKey), base: transport},
		Timeout:   60 * time.Second,
	}
}

// Clear empties rng.
func (c *Client) Clear(ctx context.Context, rng string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// Update writes values into rng as raw strings, without formula parsing.
func (c *Client) Update(ctx context.Context, rng string, values [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Range: rng, MajorDimension: "ROWS", Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}
