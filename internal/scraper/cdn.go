package scraper

import (
	"bytes"
	"context"
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// clipFileRe matches clip filenames in the CDN directory listing.
var clipFileRe = regexp.MustCompile(`^([A-Z0-9]{8})_clip\.mp4$`)

// ListCachedClips fetches the CDN directory listing and returns the IDs of
// every cached clip, sorted and truncated to limit. Presence in the listing
// guarantees the clip can be downloaded directly.
func (c *Client) ListCachedClips(ctx context.Context, limit int) ([]string, error) {
	body, err := c.get(ctx, c.cdnBaseURL+"/", false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch CDN directory listing")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CDN directory listing")
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if m := clipFileRe.FindStringSubmatch(href); m != nil {
			seen[m[1]] = struct{}{}
		}
	})

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
