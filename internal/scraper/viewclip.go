package scraper

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shotgrab/shotgrab/internal/util"
)

// ClipInfo is the payload the viewclip endpoint returns once generation has
// been triggered: a JSON array of [filename, url, framerate, type].
type ClipInfo struct {
	Filename  string
	URL       string
	Framerate string
	Type      string
}

// TriggerClip asks the site to generate the clip for a shot. This is fire
// and forget: any failure yields nil and the caller falls back to the
// deterministic CDN URL.
func (c *Client) TriggerClip(ctx context.Context, shotID string) *ClipInfo {
	url := c.viewclipURL + "/" + shotID
	body, err := c.get(ctx, url, true)
	if err != nil {
		util.Debugf("viewclip trigger for %s failed: %v", shotID, err)
		return nil
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}

	// The array mixes strings and numbers depending on clip type.
	var fields []any
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) < 2 {
		return nil
	}

	info := &ClipInfo{Filename: asString(fields[0]), URL: asString(fields[1])}
	if len(fields) > 2 {
		info.Framerate = asString(fields[2])
	}
	if len(fields) > 3 {
		info.Type = asString(fields[3])
	}
	if info.URL == "" {
		return nil
	}
	return info
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
