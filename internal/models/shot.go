// Package models contains the shot, group and report data structures.
package models

// DownloadStatus describes the outcome of one clip download.
type DownloadStatus string

const (
	StatusDownloaded DownloadStatus = "downloaded"
	StatusExists     DownloadStatus = "exists"
	StatusFailed     DownloadStatus = "failed"
)

// Shot is one clip as it moves through the pipeline. Discovery creates it
// with just the ID; the download phase fills in path and size exactly once.
type Shot struct {
	ID        string
	VideoURL  string
	LocalPath string
	SizeBytes int64
	Meta      *ShotMetadata
}

// ShotMetadata holds the fields parsed from the shot detail markup. Labels
// outside the fixed set land in Extra so nothing the site exposes is lost.
type ShotMetadata struct {
	Title      string `json:"title,omitempty"`
	Year       string `json:"year,omitempty"`
	TimePeriod string `json:"time_period,omitempty"`
	TimeOfDay  string `json:"time_of_day,omitempty"`

	Director        []string `json:"director,omitempty"`
	Cinematographer []string `json:"cinematographer,omitempty"`
	Genre           []string `json:"genre,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Actors          []string `json:"actors,omitempty"`
	ShotType        []string `json:"shot_type,omitempty"`
	Lighting        []string `json:"lighting,omitempty"`

	Extra map[string][]string `json:"extra,omitempty"`
}

// YearOrPeriod returns the release year, falling back to the time period.
func (m *ShotMetadata) YearOrPeriod() string {
	if m == nil {
		return ""
	}
	if m.Year != "" {
		return m.Year
	}
	return m.TimePeriod
}

// DownloadResult is the value a download worker hands back to the collector.
// Workers never mutate shared state; the collector owns the merge.
type DownloadResult struct {
	ShotID    string
	Path      string
	SizeBytes int64
	Status    DownloadStatus
	Err       error
}
