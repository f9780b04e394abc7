package layoutapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

// DefaultPath is the user layout endpoint relative to the base URL.
const DefaultPath = "/user/dashboard"

// Config configures the HTTP layout client.
type Config struct {
	BaseURL string
	Path    string
	// TokenSource supplies credentials when the request context carries no
	// bearer token.
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
}

// Client persists user layouts through the remote layout API. It implements
// dashboard.LayoutStore.
type Client struct {
	endpoint string
	tokens   oauth2.TokenSource
	client   *http.Client
}

var _ dashboard.LayoutStore = (*Client)(nil)

// NewClient builds a client for the layout API.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("layoutapi: base url is required")
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		endpoint: base + "/" + strings.TrimLeft(path, "/"),
		tokens:   cfg.TokenSource,
		client:   httpClient,
	}, nil
}

// LoadLayout fetches the viewer's layout. A 404 maps to
// dashboard.ErrLayoutNotFound.
func (c *Client) LoadLayout(ctx context.Context) (dashboard.LayoutDocument, error) {
	var doc dashboard.LayoutDocument
	if err := c.do(ctx, http.MethodGet, nil, &doc); err != nil {
		return dashboard.LayoutDocument{}, err
	}
	return doc, nil
}

// SaveLayout replaces the viewer's layout.
func (c *Client) SaveLayout(ctx context.Context, doc dashboard.LayoutDocument) error {
	if doc.VisualOrder == nil {
		doc.VisualOrder = []string{}
	}
	if doc.SelectedDynamicReports == nil {
		doc.SelectedDynamicReports = []dashboard.ReportKey{}
	}
	return c.do(ctx, http.MethodPut, doc, nil)
}

func (c *Client) do(ctx context.Context, method string, payload any, target any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("layoutapi: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, body)
	if err != nil {
		return fmt.Errorf("layoutapi: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if id := dashboard.RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("layoutapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return dashboard.ErrLayoutNotFound
	}
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("layoutapi: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("layoutapi: decode response: %w", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if token := dashboard.BearerTokenFrom(ctx); token != "" {
		return token, nil
	}
	if c.tokens == nil {
		return "", dashboard.ErrMissingToken
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", dashboard.ErrMissingToken, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", dashboard.ErrMissingToken
	}
	return tok.AccessToken, nil
}
