// Package scraper provides the client for ShotDeck's browse endpoints and
// CDN directory listing.
package scraper

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/shotgrab/shotgrab/internal/config"
	"github.com/shotgrab/shotgrab/internal/ratelimit"
	"github.com/shotgrab/shotgrab/internal/util"
)

// Client handles interactions with shotdeck.com and its crunch CDN.
type Client struct {
	client *http.Client

	searchURL   string
	detailURL   string
	viewclipURL string
	cdnBaseURL  string

	sessionID string
	userAgent string

	// pageGate paces the pagination loop during search discovery.
	pageGate *ratelimit.Gate
}

// NewClient creates a client from the run configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		client:      util.GetFastClient(),
		searchURL:   cfg.SearchURL,
		detailURL:   cfg.DetailURL,
		viewclipURL: cfg.ViewclipURL,
		cdnBaseURL:  cfg.CDNBaseURL,
		sessionID:   cfg.SessionID,
		userAgent:   cfg.UserAgent,
		pageGate:    ratelimit.NewGate(cfg.PageDelay),
	}
}

// VideoURL returns the deterministic CDN location of a clip.
func (c *Client) VideoURL(shotID string) string {
	return c.cdnBaseURL + "/" + shotID + "_clip.mp4"
}

// newRequest builds a GET request carrying the session cookie and the
// browser-shaped headers the site expects. ajax marks XMLHttpRequest calls.
func (c *Client) newRequest(ctx context.Context, url string, ajax bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", "https://shotdeck.com/")
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "PHPSESSID", Value: c.sessionID})
	}
	return req, nil
}

// get performs the request and returns the body for a 200 response.
func (c *Client) get(ctx context.Context, url string, ajax bool) ([]byte, error) {
	req, err := c.newRequest(ctx, url, ajax)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("server returned %s for %s", resp.Status, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}
