// Package hosting wraps the site-hosting provider's REST API. Every network
// operation is routed through the shared token bucket; calling the provider
// directly would defeat token accounting.
package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Token costs per operation class. Deploys bill heavier upstream, so they
// consume more of the bucket than reads.
const (
	costRead   = 1
	costWrite  = 1
	costDeploy = 5
)

// ErrReservedName is returned before any network call when the requested
// subdomain collides with the reserved list.
var ErrReservedName = errors.New("hosting: subdomain name is reserved")

// reservedSubdomains can never be claimed by a customer site.
var reservedSubdomains = map[string]struct{}{
	"www": {}, "api": {}, "app": {}, "admin": {}, "mail": {}, "ftp": {},
	"blog": {}, "dashboard": {}, "support": {}, "help": {}, "status": {},
	"dev": {}, "staging": {}, "cdn": {}, "assets": {},
}

// Gate is the rate-limiting hook every call passes through.
type Gate interface {
	Do(ctx context.Context, cost float64, priority int, fn func() error) error
}

// Client provides typed, throttled access to the hosting provider.
type Client struct {
	baseURL    string
	token      string
	teamID     string
	gate       Gate
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTeam scopes list operations to a team account.
func WithTeam(teamID string) Option {
	return func(c *Client) {
		c.teamID = strings.TrimSpace(teamID)
	}
}

// New constructs a Client for the given API base URL and bearer credential.
func New(base, token string, gate Gate, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("hosting api base url required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid hosting api base url: %w", err)
	}
	if gate == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		token:      strings.TrimSpace(token),
		gate:       gate,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the hosting provider.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hosting api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("hosting api request failed (%d): %s", e.Status, e.Message)
}

// Site mirrors the provider's site resource.
type Site struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Subdomain     string    `json:"subdomain"`
	PrimaryDomain string    `json:"primary_domain"`
	DomainAliases []string  `json:"domain_aliases"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Deploy mirrors the provider's deploy resource.
type Deploy struct {
	ID           string    `json:"id"`
	SiteID       string    `json:"site_id"`
	State        string    `json:"state"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsReserved reports whether a subdomain collides with the reserved list.
func IsReserved(subdomain string) bool {
	_, ok := reservedSubdomains[strings.ToLower(strings.TrimSpace(subdomain))]
	return ok
}

// CreateSite provisions a named site. Reserved subdomains fail immediately
// and never reach the provider.
func (c *Client) CreateSite(ctx context.Context, subdomain, domain string) (*Site, error) {
	if IsReserved(subdomain) {
		return nil, ErrReservedName
	}
	body := map[string]any{
		"name":          subdomain,
		"custom_domain": fmt.Sprintf("%s.%s", subdomain, domain),
	}
	var site Site
	if err := c.do(ctx, http.MethodPost, "/sites", costWrite, 0, body, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// GetSite fetches a site by id.
func (c *Client) GetSite(ctx context.Context, siteID string) (*Site, error) {
	var site Site
	path := "/sites/" + url.PathEscape(siteID)
	if err := c.do(ctx, http.MethodGet, path, costRead, 0, nil, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// UpdateSite renames a site or changes its primary domain.
func (c *Client) UpdateSite(ctx context.Context, siteID string, fields map[string]any) (*Site, error) {
	var site Site
	path := "/sites/" + url.PathEscape(siteID)
	if err := c.do(ctx, http.MethodPatch, path, costWrite, 0, fields, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// DeleteSite removes a site.
func (c *Client) DeleteSite(ctx context.Context, siteID string) error {
	path := "/sites/" + url.PathEscape(siteID)
	return c.do(ctx, http.MethodDelete, path, costWrite, 0, nil, nil)
}

// ListSites enumerates all sites, scoped to the configured team when set.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	path := "/sites"
	if c.teamID != "" {
		path += "?account_slug=" + url.QueryEscape(c.teamID)
	}
	var sites []Site
	if err := c.do(ctx, http.MethodGet, path, costRead, 0, nil, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// CheckDomainAvailable reports whether subdomain.domain is unclaimed by any
// existing site, cross-referencing primary domains and aliases.
func (c *Client) CheckDomainAvailable(ctx context.Context, subdomain, domain string) (bool, error) {
	if IsReserved(subdomain) {
		return false, nil
	}
	candidate := strings.ToLower(fmt.Sprintf("%s.%s", strings.TrimSpace(subdomain), strings.TrimSpace(domain)))
	sites, err := c.ListSites(ctx)
	if err != nil {
		return false, err
	}
	for _, site := range sites {
		if strings.EqualFold(site.PrimaryDomain, candidate) {
			return false, nil
		}
		for _, alias := range site.DomainAliases {
			if strings.EqualFold(alias, candidate) {
				return false, nil
			}
		}
	}
	return true, nil
}

// DeployArchive uploads a zip archive to a site. priority feeds the rate
// limiter, letting urgent redeploys jump the waiting line.
func (c *Client) DeployArchive(ctx context.Context, siteID string, archive []byte, priority int) (*Deploy, error) {
	var deploy Deploy
	endpoint := c.baseURL + "/sites/" + url.PathEscape(siteID) + "/deploys"
	err := c.gate.Do(ctx, costDeploy, priority, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(archive))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/zip")
		c.authorize(req)
		return c.send(req, &deploy)
	})
	if err != nil {
		return nil, err
	}
	return &deploy, nil
}

// GetDeploy polls a deployment's build state.
func (c *Client) GetDeploy(ctx context.Context, deployID string) (*Deploy, error) {
	var deploy Deploy
	path := "/deploys/" + url.PathEscape(deployID)
	if err := c.do(ctx, http.MethodGet, path, costRead, 0, nil, &deploy); err != nil {
		return nil, err
	}
	return &deploy, nil
}

func (c *Client) do(ctx context.Context, method, path string, cost float64, priority int, body, v any) error {
	return c.gate.Do(ctx, cost, priority, func() error {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("encode request body: %w", err)
			}
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.authorize(req)
		return c.send(req, v)
	})
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) send(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Error != "" {
		return strings.TrimSpace(payload.Error)
	}
	return strings.TrimSpace(payload.Message)
}
