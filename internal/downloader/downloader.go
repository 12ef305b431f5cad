// Package downloader fetches clip files with a bounded worker pool.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shotgrab/shotgrab/internal/config"
	"github.com/shotgrab/shotgrab/internal/models"
	"github.com/shotgrab/shotgrab/internal/scraper"
	"github.com/shotgrab/shotgrab/internal/tracking"
	"github.com/shotgrab/shotgrab/internal/util"
)

// Downloader pulls clips into the video directory. Workers hand back
// DownloadResult values over a channel and never touch shared state; the
// collector in DownloadAll owns the merge.
type Downloader struct {
	client   *http.Client
	shotdeck *scraper.Client
	manifest *tracking.Manifest

	videoDir string
	workers  int

	// trigger enables the viewclip generation request before each
	// download (comprehensive mode only).
	trigger bool
	settle  time.Duration

	// showProgress renders the live progress bar instead of log lines.
	showProgress bool
}

// New creates a downloader for the given run configuration.
func New(cfg *config.Config, shotdeck *scraper.Client, manifest *tracking.Manifest, trigger bool) *Downloader {
	return &Downloader{
		client:   util.GetDownloadClient(),
		shotdeck: shotdeck,
		manifest: manifest,
		videoDir: filepath.Join(cfg.OutputDir, "videos"),
		workers:  cfg.DownloadWorkers,
		trigger:  trigger,
		settle:   cfg.TriggerSettleDelay,
	}
}

// ShowProgress toggles the live progress bar.
func (d *Downloader) ShowProgress(on bool) { d.showProgress = on }

// DownloadAll downloads every shot in ids and returns one result per shot.
// Results arrive in completion order, which is arbitrary across workers.
func (d *Downloader) DownloadAll(ctx context.Context, ids []string) ([]models.DownloadResult, error) {
	if err := os.MkdirAll(d.videoDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create video directory: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	jobs := make(chan string)
	resultCh := make(chan models.DownloadResult)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				resultCh <- d.downloadOne(ctx, id)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var display *progressDisplay
	if d.showProgress {
		display = startProgressDisplay(len(ids))
	}

	results := make([]models.DownloadResult, 0, len(ids))
	for result := range resultCh {
		results = append(results, result)

		if result.Status == models.StatusFailed {
			util.Debugf("download %s failed: %v", result.ShotID, result.Err)
		}
		if display != nil {
			display.advance(result)
		} else if len(results)%100 == 0 {
			util.Infof("%d/%d videos processed", len(results), len(ids))
		}
	}
	if display != nil {
		display.finish()
	}

	return results, ctx.Err()
}

// downloadOne fetches a single clip, consulting the manifest and the
// filesystem before going to the network.
func (d *Downloader) downloadOne(ctx context.Context, shotID string) models.DownloadResult {
	path := filepath.Join(d.videoDir, shotID+"_clip.mp4")

	if entry, err := d.manifest.Lookup(shotID); err == nil && entry != nil {
		if info, statErr := os.Stat(entry.Path); statErr == nil {
			return models.DownloadResult{ShotID: shotID, Path: entry.Path, SizeBytes: info.Size(), Status: models.StatusExists}
		}
	}

	if info, err := os.Stat(path); err == nil {
		// Already on disk from a previous run.
		_ = d.manifest.Record(shotID, path, info.Size())
		return models.DownloadResult{ShotID: shotID, Path: path, SizeBytes: info.Size(), Status: models.StatusExists}
	}

	url := d.shotdeck.VideoURL(shotID)
	if d.trigger {
		if info := d.shotdeck.TriggerClip(ctx, shotID); info != nil {
			url = info.URL
		}
		if err := sleepCtx(ctx, d.settle); err != nil {
			return models.DownloadResult{ShotID: shotID, Status: models.StatusFailed, Err: err}
		}
	}

	size, err := d.fetchToFile(ctx, url, path)
	if err != nil {
		return models.DownloadResult{ShotID: shotID, Status: models.StatusFailed, Err: err}
	}

	_ = d.manifest.Record(shotID, path, size)
	return models.DownloadResult{ShotID: shotID, Path: path, SizeBytes: size, Status: models.StatusDownloaded}
}

// fetchToFile streams the response body to path, removing the partial file
// on any failure.
func (d *Downloader) fetchToFile(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("server returned %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return written, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
