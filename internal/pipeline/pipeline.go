// Package pipeline drives the discovery, metadata, download, grouping and
// serialization phases of a scrape run.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/shotgrab/shotgrab/internal/config"
	"github.com/shotgrab/shotgrab/internal/downloader"
	"github.com/shotgrab/shotgrab/internal/grouper"
	"github.com/shotgrab/shotgrab/internal/models"
	"github.com/shotgrab/shotgrab/internal/ratelimit"
	"github.com/shotgrab/shotgrab/internal/report"
	"github.com/shotgrab/shotgrab/internal/scraper"
	"github.com/shotgrab/shotgrab/internal/tracking"
	"github.com/shotgrab/shotgrab/internal/util"
)

// Method names recorded in the output document.
const (
	MethodComprehensive = "comprehensive_api"
	MethodFast          = "fast_cache"
)

const (
	reportFilename   = "shotdeck_grouped.json"
	manifestFilename = "shotgrab.db"
)

// ErrNothingDiscovered is returned when discovery yields no shot IDs.
var ErrNothingDiscovered = errors.New("discovery found no shots")

// Pipeline owns the clients and gates shared by both modes.
type Pipeline struct {
	cfg      *config.Config
	shotdeck *scraper.Client
	manifest *tracking.Manifest
	metaGate *ratelimit.Gate

	showProgress bool
}

// New builds a pipeline from the configuration. A manifest open failure is
// downgraded to a warning; the run then relies on filesystem checks alone.
func New(cfg *config.Config) *Pipeline {
	manifest, err := tracking.Open(filepath.Join(cfg.OutputDir, manifestFilename))
	if err != nil {
		util.Warnf("download manifest unavailable: %v", err)
		manifest = nil
	}

	return &Pipeline{
		cfg:      cfg,
		shotdeck: scraper.NewClient(cfg),
		manifest: manifest,
		metaGate: ratelimit.NewGate(cfg.MetadataDelay),
	}
}

// ShowProgress enables the live download progress bar.
func (p *Pipeline) ShowProgress(on bool) { p.showProgress = on }

// Close releases the manifest handle.
func (p *Pipeline) Close() error { return p.manifest.Close() }

// ReportPath returns where the output document is written.
func (p *Pipeline) ReportPath() string {
	return filepath.Join(p.cfg.OutputDir, reportFilename)
}

// RunComprehensive paginates the search API, triggers clip generation per
// shot, and downloads everything it found.
func (p *Pipeline) RunComprehensive(ctx context.Context) error {
	totalStart := time.Now()

	util.Infof("discovering shots via search API (target %d)", p.cfg.TargetCount)
	discoveryStart := time.Now()
	ids, stats, err := p.shotdeck.SearchShots(ctx, p.cfg.TargetCount)
	if err != nil {
		return errors.Wrap(err, "discovery aborted")
	}
	discoveryTime := time.Since(discoveryStart)
	util.Infof("discovery complete: %d shots over %d pages (%d in database)",
		stats.ShotsCollected, stats.PagesScraped, stats.TotalInDatabase)

	if len(ids) == 0 {
		return ErrNothingDiscovered
	}

	util.Infof("fetching metadata for %d shots", len(ids))
	metadataStart := time.Now()
	metas, retrieved, err := p.fetchAllMetadata(ctx, ids)
	if err != nil {
		return err
	}
	metadataTime := time.Since(metadataStart)
	util.Infof("metadata retrieved for %d/%d shots", retrieved, len(ids))

	util.Infof("downloading %d videos with %d workers", len(ids), p.cfg.DownloadWorkers)
	downloadStart := time.Now()
	dl := downloader.New(p.cfg, p.shotdeck, p.manifest, true)
	dl.ShowProgress(p.showProgress)
	results, err := dl.DownloadAll(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "download phase aborted")
	}
	downloadTime := time.Since(downloadStart)

	timing := report.NewTiming(discoveryTime, metadataTime, downloadTime, time.Since(totalStart))
	return p.finish(MethodComprehensive, ids, metas, retrieved, results, timing)
}

// RunFast downloads whatever the CDN cache directory currently lists,
// then backfills metadata.
func (p *Pipeline) RunFast(ctx context.Context) error {
	totalStart := time.Now()

	util.Info("scraping CDN directory listing")
	discoveryStart := time.Now()
	ids, err := p.shotdeck.ListCachedClips(ctx, p.cfg.TargetCount)
	if err != nil {
		return errors.Wrap(err, "directory listing failed")
	}
	discoveryTime := time.Since(discoveryStart)
	util.Infof("found %d cached clips", len(ids))

	if len(ids) == 0 {
		return ErrNothingDiscovered
	}

	util.Infof("downloading %d videos with %d workers", len(ids), p.cfg.DownloadWorkers)
	downloadStart := time.Now()
	dl := downloader.New(p.cfg, p.shotdeck, p.manifest, false)
	dl.ShowProgress(p.showProgress)
	results, err := dl.DownloadAll(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "download phase aborted")
	}
	downloadTime := time.Since(downloadStart)

	util.Infof("fetching metadata for %d clips", len(ids))
	metadataStart := time.Now()
	metas, retrieved, err := p.fetchAllMetadata(ctx, ids)
	if err != nil {
		return err
	}
	metadataTime := time.Since(metadataStart)

	timing := report.NewTiming(discoveryTime, metadataTime, downloadTime, time.Since(totalStart))
	return p.finish(MethodFast, ids, metas, retrieved, results, timing)
}

// fetchAllMetadata retrieves details sequentially, paced by the metadata
// gate. A failed fetch leaves a nil entry; the shot later falls back to
// the unknown group instead of being dropped.
func (p *Pipeline) fetchAllMetadata(ctx context.Context, ids []string) (map[string]*models.ShotMetadata, int, error) {
	metas := make(map[string]*models.ShotMetadata, len(ids))
	retrieved := 0

	for i, id := range ids {
		if err := p.metaGate.Wait(ctx); err != nil {
			return metas, retrieved, errors.Wrap(err, "metadata phase aborted")
		}

		meta, err := p.shotdeck.FetchShotDetails(ctx, id)
		if err != nil {
			util.Debugf("metadata for %s unavailable: %v", id, err)
			metas[id] = nil
			continue
		}
		metas[id] = meta
		retrieved++

		if (i+1)%100 == 0 {
			util.Infof("%d/%d metadata fetched", i+1, len(ids))
		}
	}
	return metas, retrieved, nil
}

// finish merges download results into shots, groups them, and writes the
// report. It runs even when every download failed.
func (p *Pipeline) finish(method string, ids []string, metas map[string]*models.ShotMetadata, retrieved int, results []models.DownloadResult, timing models.Timing) error {
	byID := make(map[string]models.DownloadResult, len(results))
	for _, r := range results {
		byID[r.ShotID] = r
	}

	// Only shots that made it to disk are grouped; a run with zero
	// successes still writes a document, just with an empty group map.
	shots := make([]*models.Shot, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok || r.Status == models.StatusFailed {
			continue
		}
		shots = append(shots, &models.Shot{
			ID:        id,
			VideoURL:  p.shotdeck.VideoURL(id),
			LocalPath: r.Path,
			SizeBytes: r.SizeBytes,
			Meta:      metas[id],
		})
	}

	groups := grouper.BuildGroups(shots)
	doc := report.Build(method, len(ids), results, retrieved, groups, timing)

	path := p.ReportPath()
	if err := report.Write(path, doc); err != nil {
		return errors.Wrap(err, "failed to write report")
	}

	report.PrintSummary(doc, path)
	return nil
}
