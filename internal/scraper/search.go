package scraper

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/shotgrab/shotgrab/internal/util"
)

// shotsPerPage is how many stills the search endpoint returns per page.
const shotsPerPage = 36

var totalShotsRe = regexp.MustCompile(`totalShots\s*=\s*(\d+)`)

// DiscoveryStats summarizes a paginated discovery pass.
type DiscoveryStats struct {
	TotalInDatabase   int
	PagesScraped      int
	ShotsWithClips    int
	ShotsWithoutClips int
	ShotsCollected    int
}

// SearchShots pages through the search endpoint collecting IDs of shots
// that carry a video clip, until limit is reached or results run out.
// A failed page fetch ends discovery early with whatever was collected.
func (c *Client) SearchShots(ctx context.Context, limit int) ([]string, DiscoveryStats, error) {
	var (
		ids   []string
		stats DiscoveryStats
		page  = 1
	)

	for {
		if err := c.pageGate.Wait(ctx); err != nil {
			return ids, stats, err
		}

		url := fmt.Sprintf("%s/page/%d", c.searchURL, page)
		body, err := c.get(ctx, url, true)
		if err != nil {
			util.Warnf("search page %d failed: %v", page, err)
			stats.ShotsCollected = len(ids)
			return ids, stats, nil
		}
		stats.PagesScraped = page

		if stats.TotalInDatabase == 0 {
			if m := totalShotsRe.FindSubmatch(body); m != nil {
				stats.TotalInDatabase, _ = strconv.Atoi(string(m[1]))
				util.Debugf("total shots in database: %d", stats.TotalInDatabase)
			}
		}

		pageIDs, withClips, withoutClips, err := parseSearchPage(body)
		if err != nil {
			util.Warnf("search page %d unparseable: %v", page, err)
			stats.ShotsCollected = len(ids)
			return ids, stats, nil
		}
		stats.ShotsWithClips += withClips
		stats.ShotsWithoutClips += withoutClips

		ids = append(ids, pageIDs...)

		if page%50 == 0 {
			util.Infof("page %d: %d shots collected", page, len(ids))
		}

		if limit > 0 && len(ids) >= limit {
			ids = ids[:limit]
			break
		}
		if stats.TotalInDatabase > 0 && page*shotsPerPage >= stats.TotalInDatabase {
			break
		}
		if withClips+withoutClips == 0 {
			// Page past the end of the result set.
			break
		}
		page++
	}

	stats.ShotsCollected = len(ids)
	return ids, stats, nil
}

// parseSearchPage extracts shot IDs from one page of search results.
// Only shots flagged with data-clip='1' are collected.
func parseSearchPage(body []byte) (ids []string, withClips, withoutClips int, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, 0, err
	}

	doc.Find("div.outerimage").Each(func(_ int, s *goquery.Selection) {
		shotID, ok := s.Attr("data-shotid")
		if !ok || shotID == "" {
			return
		}
		if s.AttrOr("data-clip", "") == "1" {
			withClips++
			ids = append(ids, shotID)
		} else {
			withoutClips++
		}
	})
	return ids, withClips, withoutClips, nil
}
