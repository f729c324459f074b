// Package sharepoint provides a content source backed by a SharePoint
// document library, reached through the Microsoft Graph API with
// client-credential OAuth2.
package sharepoint

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/harborline/docsift/internal/core/domain"
)

const (
	// DefaultBaseURL is the Graph API endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// tokenURLFormat is the Azure AD token endpoint per tenant.
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// graphScope requests the application permissions granted to the
	// client.
	graphScope = "https://graph.microsoft.com/.default"

	// requestsPerSecond throttles Graph calls proactively, well below
	// the service limits.
	requestsPerSecond = 10
)

// Client is a minimal Graph API client covering what the source
// needs: site and drive resolution, folder listing and downloads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Graph endpoint. Used in tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client, bypassing OAuth2. Used in
// tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Graph client authenticating with the
// client-credentials flow for the configured tenant.
func NewClient(cfg domain.SharePointSettings, opts ...ClientOption) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, cfg.TenantID),
		Scopes:       []string{graphScope},
	}

	c := &Client{
		httpClient: cc.Client(context.Background()),
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a rate-limited GET against a Graph path (or an
// absolute URL, as returned in @odata.nextLink).
func (c *Client) get(ctx context.Context, pathOrURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := pathOrURL
	if len(url) == 0 || url[0] == '/' {
		url = c.baseURL + pathOrURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, Source: "sharepoint", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, Source: "sharepoint", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, url)
	}
	return body, nil
}

// statusError maps a Graph status code onto the fetch error kinds the
// pipeline reports.
func statusError(status int, url string) error {
	apiErr := &APIError{StatusCode: status, URL: url}

	kind := domain.FetchUnreachable
	switch status {
	case http.StatusUnauthorized:
		kind = domain.FetchAuthFailed
	case http.StatusForbidden:
		kind = domain.FetchPermissionDenied
	case http.StatusNotFound:
		kind = domain.FetchNotFound
	}

	return &domain.FetchError{Kind: kind, Source: "sharepoint", Err: apiErr}
}

// APIError is a non-200 Graph response.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph: status %d (URL: %s)", e.StatusCode, e.URL)
}
