// Package report assembles run statistics and writes the output document.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/shotgrab/shotgrab/internal/grouper"
	"github.com/shotgrab/shotgrab/internal/models"
)

// Build computes the run summary from the accumulated results.
func Build(method string, requested int, results []models.DownloadResult, metadataRetrieved int, groups map[string]*models.Group, timing models.Timing) *models.Report {
	var (
		downloaded int
		failed     int
		totalBytes int64
	)
	for _, r := range results {
		switch r.Status {
		case models.StatusDownloaded, models.StatusExists:
			downloaded++
		case models.StatusFailed:
			failed++
		}
		totalBytes += r.SizeBytes
	}

	totalMB := grouper.RoundMB(totalBytes)

	var speed models.Speed
	if timing.TotalSeconds > 0 {
		speed.VideosPerSecond = round(float64(downloaded)/timing.TotalSeconds, 3)
	}
	if timing.VideoDownloadSeconds > 0 {
		speed.MBPerSecond = round(totalMB/timing.VideoDownloadSeconds, 2)
	}

	if groups == nil {
		groups = map[string]*models.Group{}
	}

	return &models.Report{
		ScrapedAt: time.Now().Format(time.RFC3339),
		Method:    method,
		Stats: models.Stats{
			TotalShotsRequested: requested,
			VideosDownloaded:    downloaded,
			VideosFailed:        failed,
			MetadataRetrieved:   metadataRetrieved,
			TotalSizeMB:         totalMB,
			UniqueGroups:        len(groups),
			Timing:              timing,
			Speed:               speed,
		},
		Groups: groups,
	}
}

// Write serializes the report to path as indented JSON, replacing any
// previous file there.
func Write(path string, report *models.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// NewTiming rounds phase durations into the serialized form.
func NewTiming(discovery, metadata, download, total time.Duration) models.Timing {
	return models.Timing{
		APIDiscoverySeconds:  round(discovery.Seconds(), 1),
		MetadataFetchSeconds: round(metadata.Seconds(), 1),
		VideoDownloadSeconds: round(download.Seconds(), 1),
		TotalSeconds:         round(total.Seconds(), 1),
	}
}

func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

var (
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#D97706")).
				Bold(true)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#95E1D3"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFE66D"))
)

// PrintSummary prints the styled end-of-run summary to stdout.
func PrintSummary(report *models.Report, outputPath string) {
	line := func(label, value string) {
		fmt.Printf("  %s %s\n", summaryLabelStyle.Render(label), summaryValueStyle.Render(value))
	}

	fmt.Println(summaryHeaderStyle.Render("Scrape complete"))
	line("Videos downloaded:", fmt.Sprintf("%d/%d", report.Stats.VideosDownloaded, report.Stats.TotalShotsRequested))
	line("Videos failed:    ", fmt.Sprintf("%d", report.Stats.VideosFailed))
	line("Unique groups:    ", fmt.Sprintf("%d", report.Stats.UniqueGroups))
	line("Total size:       ", fmt.Sprintf("%.2f MB", report.Stats.TotalSizeMB))
	line("Discovery:        ", fmt.Sprintf("%.1fs", report.Stats.Timing.APIDiscoverySeconds))
	line("Metadata:         ", fmt.Sprintf("%.1fs", report.Stats.Timing.MetadataFetchSeconds))
	line("Download:         ", fmt.Sprintf("%.1fs", report.Stats.Timing.VideoDownloadSeconds))
	line("Total:            ", fmt.Sprintf("%.1fs", report.Stats.Timing.TotalSeconds))
	line("Throughput:       ", fmt.Sprintf("%.3f videos/s, %.2f MB/s", report.Stats.Speed.VideosPerSecond, report.Stats.Speed.MBPerSecond))
	line("Output:           ", outputPath)
}
