package models

// ShotEntry is one clip as serialized inside a group. The metadata fields
// are flattened alongside the download record.
type ShotEntry struct {
	ShotID    string `json:"shot_id"`
	VideoURL  string `json:"video_url"`
	LocalPath string `json:"local_path,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	ShotMetadata
}

// GroupMetadata is the shared metadata snapshot of a title group, taken
// from the first shot that resolves to the group.
type GroupMetadata struct {
	Director        []string `json:"director"`
	Cinematographer []string `json:"cinematographer"`
	Genre           []string `json:"genre"`
	Year            string   `json:"year,omitempty"`
}

// Group collects every shot sharing a derived title.
type Group struct {
	Metadata    GroupMetadata `json:"metadata"`
	VideoCount  int           `json:"video_count"`
	TotalSizeMB float64       `json:"total_size_mb"`
	Shots       []ShotEntry   `json:"shots"`
}

// Timing holds per-phase elapsed seconds, rounded to one decimal.
type Timing struct {
	APIDiscoverySeconds  float64 `json:"api_discovery_seconds"`
	MetadataFetchSeconds float64 `json:"metadata_fetch_seconds"`
	VideoDownloadSeconds float64 `json:"video_download_seconds"`
	TotalSeconds         float64 `json:"total_seconds"`
}

// Speed holds derived throughput figures.
type Speed struct {
	VideosPerSecond float64 `json:"videos_per_second"`
	MBPerSecond     float64 `json:"mb_per_second"`
}

// Stats summarizes a whole run.
type Stats struct {
	TotalShotsRequested int     `json:"total_shots_requested"`
	VideosDownloaded    int     `json:"videos_downloaded"`
	VideosFailed        int     `json:"videos_failed"`
	MetadataRetrieved   int     `json:"metadata_retrieved"`
	TotalSizeMB         float64 `json:"total_size_mb"`
	UniqueGroups        int     `json:"unique_groups"`
	Timing              Timing  `json:"timing"`
	Speed               Speed   `json:"speed"`
}

// Report is the single JSON document a run writes to disk.
type Report struct {
	ScrapedAt string            `json:"scraped_at"`
	Method    string            `json:"method"`
	Stats     Stats             `json:"stats"`
	Groups    map[string]*Group `json:"groups"`
}
