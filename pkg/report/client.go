// Package report talks to the college report site: a resty client for the
// static pages and goquery parsers turning their HTML into records.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	errs "cardscraper/pkg/errors"
	"cardscraper/pkg/logger"
	"cardscraper/pkg/retry"
)

// Client fetches static pages from the source site
type Client struct {
	http       *resty.Client
	baseURL    string
	maxRetries int
	logger     logger.Logger
}

// NewClient creates a source-site client with a browser-identifying
// User-Agent header
func NewClient(baseURL, userAgent string, timeout time.Duration, maxRetries int, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &Client{
		http:       http,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// GetHTML fetches a page and returns its body, retrying transient failures
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	return retry.DoWithResult(func() (string, error) {
		start := time.Now()
		resp, err := c.http.R().SetContext(ctx).Get(url)
		duration := time.Since(start)

		if err != nil {
			c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
				"url":      url,
				"error":    err.Error(),
				"duration": duration,
			})
			return "", errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
		}

		c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
			"url":      url,
			"status":   resp.StatusCode(),
			"duration": duration,
		})

		if resp.StatusCode() != 200 {
			return "", errs.FromStatusCode(resp.StatusCode(),
				fmt.Sprintf("unexpected status fetching %s", url))
		}

		return string(resp.Body()), nil
	}, retry.HTTPConfig(ctx, c.maxRetries, c.logger))
}

// FetchCardinals scrapes the voting cardinals table into entity stub records
func (c *Client) FetchCardinals(ctx context.Context) ([]CardinalRow, error) {
	html, err := c.GetHTML(ctx, "/cardinals/?_voting_status=voting")
	if err != nil {
		return nil, err
	}
	return ParseCardinalsTable(html)
}

// FetchProfileText fetches a profile page and extracts its summary and
// narrative text blocks
func (c *Client) FetchProfileText(ctx context.Context, profileURL string) (*ProfileText, error) {
	html, err := c.GetHTML(ctx, profileURL)
	if err != nil {
		return nil, err
	}
	return ParseProfileText(html)
}
