package scraper

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/shotgrab/shotgrab/internal/models"
)

// canonicalFields maps the labels the detail markup uses to canonical field
// names. The site is inconsistent about singular/plural and abbreviations.
var canonicalFields = map[string]string{
	"tag": "tags", "tags": "tags",
	"genre": "genre", "genres": "genre",
	"director": "director", "directors": "director",
	"cinematographer": "cinematographer", "dop": "cinematographer", "dp": "cinematographer",
	"production designer": "production_designer",
	"costume designer":    "costume_designer",
	"editor":              "editor", "editors": "editor",
	"colorist":           "colorist",
	"color":              "color",
	"actors":             "actors", "actor": "actors", "cast": "actors",
	"time period":        "time_period",
	"year":               "year",
	"aspect ratio":       "aspect_ratio",
	"format":             "format",
	"frame size":         "frame_size",
	"shot type":          "shot_type",
	"lens size":          "lens_size",
	"composition":        "composition",
	"lighting":           "lighting",
	"lighting type":      "lighting_type",
	"time of day":        "time_of_day",
	"interior/exterior":  "interior_exterior",
	"location type":      "location_type",
	"set":                "set",
	"story location":     "story_location",
	"filming location":   "filming_location",
	"title":              "title", "movie": "title", "film": "title",
	"music genre":        "music_genre",
	"video genre":        "video_genre",
	"stylist":            "stylist",
	"production company": "production_company",
}

// FetchShotDetails retrieves and parses the detail markup for one shot.
// Callers pace these requests through the metadata gate.
func (c *Client) FetchShotDetails(ctx context.Context, shotID string) (*models.ShotMetadata, error) {
	url := c.detailURL + "/" + shotID + "/"
	body, err := c.get(ctx, url, false)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch details for shot %s", shotID)
	}
	return parseShotDetails(body)
}

// parseShotDetails extracts the labelled detail groups from the AJAX
// response body. Unknown labels are ignored; known labels outside the
// typed set land in Extra.
func parseShotDetails(body []byte) (*models.ShotMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse detail markup")
	}

	meta := &models.ShotMetadata{}

	doc.Find("div.detail-group").Each(func(_ int, group *goquery.Selection) {
		label := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(group.Find("p.detail-type").First().Text()), ":"))
		canonical, known := canonicalFields[label]
		if !known {
			return
		}

		values := extractValues(group.Find("div.details").First())
		if len(values) == 0 {
			return
		}
		assignField(meta, canonical, values)
	})

	// Some layouts carry the title only as a movie link.
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("a.movie-link").First().Text())
	}

	return meta, nil
}

// extractValues pulls the value list out of a details block: anchor texts
// when present, otherwise the comma-separated plain text.
func extractValues(details *goquery.Selection) []string {
	var values []string
	details.Find("a").Each(func(_ int, a *goquery.Selection) {
		if text := strings.TrimSpace(a.Text()); text != "" {
			values = append(values, text)
		}
	})
	if len(values) > 0 {
		return values
	}

	text := strings.TrimSpace(details.Text())
	if text == "" {
		return nil
	}
	if !strings.Contains(text, ",") {
		return []string{text}
	}
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func assignField(meta *models.ShotMetadata, canonical string, values []string) {
	switch canonical {
	case "title":
		meta.Title = values[0]
	case "year":
		meta.Year = values[0]
	case "time_period":
		meta.TimePeriod = values[0]
	case "time_of_day":
		meta.TimeOfDay = values[0]
	case "director":
		meta.Director = values
	case "cinematographer":
		meta.Cinematographer = values
	case "genre":
		meta.Genre = values
	case "tags":
		meta.Tags = values
	case "actors":
		meta.Actors = values
	case "shot_type":
		meta.ShotType = values
	case "lighting":
		meta.Lighting = values
	default:
		if meta.Extra == nil {
			meta.Extra = make(map[string][]string)
		}
		meta.Extra[canonical] = values
	}
}
