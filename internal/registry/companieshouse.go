// Package registry backfills company numbers from the Companies House
// search API. It is an injected capability at the matcher boundary; the
// matcher works without it, just with weaker recall on subjects whose
// notices omit the number.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/distress-leads/internal/normalize"
)

const defaultBaseURL = "https://api.company-information.service.gov.uk"

// Client queries the Companies House company search endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Companies House client. The API key is used as the
// basic-auth username, per the Companies House API convention.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type searchResponse struct {
	Items []struct {
		Title         string `json:"title"`
		CompanyNumber string `json:"company_number"`
		CompanyStatus string `json:"company_status"`
	} `json:"items"`
}

// ResolveNumber searches Companies House for the company name and returns
// the registered number only when a search hit's title is an exact match
// after normalization. Anything weaker returns "": a wrong number would
// poison the authoritative exact-match path, so ambiguity means no backfill.
func (c *Client) ResolveNumber(ctx context.Context, companyName string) (string, error) {
	key, err := normalize.CompanyKey(companyName)
	if err != nil {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/search/companies?q=%s&items_per_page=20", c.baseURL, url.QueryEscape(companyName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("companies house search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("companies house search: unexpected status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	for _, item := range result.Items {
		itemKey, err := normalize.CompanyKey(item.Title)
		if err != nil {
			continue
		}
		if itemKey == key {
			return item.CompanyNumber, nil
		}
	}
	return "", nil
}
