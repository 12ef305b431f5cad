// Package grouper aggregates downloaded shots under derived title keys.
package grouper

import (
	"math"
	"strings"

	"github.com/shotgrab/shotgrab/internal/models"
)

const bytesPerMB = 1024 * 1024

// UnknownTitle is the fallback group for shots whose metadata never
// resolved. Shots are grouped rather than dropped.
const UnknownTitle = "Unknown"

// TitleKey derives the grouping key for a shot. Keys are matched exactly,
// case included; the site's titles are taken as-is and not normalized.
func TitleKey(meta *models.ShotMetadata) string {
	if meta == nil {
		return UnknownTitle
	}
	if meta.Title != "" {
		return meta.Title
	}

	if len(meta.Actors) > 0 {
		key := strings.Join(meta.Actors, ", ")
		if year := meta.YearOrPeriod(); year != "" {
			key += " (" + year + ")"
		}
		return key
	}

	if len(meta.Director) > 0 {
		return strings.Join(meta.Director, ", ")
	}

	return UnknownTitle
}

// BuildGroups places every shot into exactly one group keyed by its title.
// Group metadata is a snapshot from the first shot that creates the group.
// Input order only decides which shot that is; totals are order-free.
func BuildGroups(shots []*models.Shot) map[string]*models.Group {
	groups := make(map[string]*models.Group)
	sizes := make(map[string]int64)

	for _, shot := range shots {
		key := TitleKey(shot.Meta)

		group, ok := groups[key]
		if !ok {
			group = &models.Group{
				Metadata: groupMetadata(shot.Meta),
				Shots:    []models.ShotEntry{},
			}
			groups[key] = group
		}

		entry := models.ShotEntry{
			ShotID:    shot.ID,
			VideoURL:  shot.VideoURL,
			LocalPath: shot.LocalPath,
			SizeBytes: shot.SizeBytes,
		}
		if shot.Meta != nil {
			entry.ShotMetadata = *shot.Meta
		}

		group.Shots = append(group.Shots, entry)
		group.VideoCount++
		sizes[key] += shot.SizeBytes
	}

	for key, group := range groups {
		group.TotalSizeMB = RoundMB(sizes[key])
	}
	return groups
}

func groupMetadata(meta *models.ShotMetadata) models.GroupMetadata {
	if meta == nil {
		return models.GroupMetadata{}
	}
	return models.GroupMetadata{
		Director:        meta.Director,
		Cinematographer: meta.Cinematographer,
		Genre:           meta.Genre,
		Year:            meta.YearOrPeriod(),
	}
}

// RoundMB converts a byte count to megabytes rounded to two decimals.
func RoundMB(bytes int64) float64 {
	return math.Round(float64(bytes)/bytesPerMB*100) / 100
}
