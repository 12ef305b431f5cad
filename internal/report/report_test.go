package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shotgrab/shotgrab/internal/models"
)

func TestBuildStats(t *testing.T) {
	t.Parallel()

	results := []models.DownloadResult{
		{ShotID: "AAAA0001", Status: models.StatusDownloaded, SizeBytes: 1048576},
		{ShotID: "AAAA0002", Status: models.StatusExists, SizeBytes: 1048576},
		{ShotID: "AAAA0003", Status: models.StatusFailed},
	}
	groups := map[string]*models.Group{
		"Heat": {VideoCount: 2},
	}
	timing := models.Timing{
		APIDiscoverySeconds:  1.0,
		MetadataFetchSeconds: 2.0,
		VideoDownloadSeconds: 4.0,
		TotalSeconds:         8.0,
	}

	r := Build("comprehensive_api", 3, results, 2, groups, timing)

	assert.Equal(t, "comprehensive_api", r.Method)
	assert.Equal(t, 3, r.Stats.TotalShotsRequested)
	assert.Equal(t, 2, r.Stats.VideosDownloaded)
	assert.Equal(t, 1, r.Stats.VideosFailed)
	assert.Equal(t, 2, r.Stats.MetadataRetrieved)
	assert.Equal(t, 1, r.Stats.UniqueGroups)
	assert.InDelta(t, 2.0, r.Stats.TotalSizeMB, 0.01)
	assert.InDelta(t, 0.25, r.Stats.Speed.VideosPerSecond, 0.001)
	assert.InDelta(t, 0.5, r.Stats.Speed.MBPerSecond, 0.01)
	assert.NotEmpty(t, r.ScrapedAt)
}

func TestBuildZeroDownloadsStillWellFormed(t *testing.T) {
	t.Parallel()

	r := Build("fast_cache", 5, []models.DownloadResult{
		{ShotID: "AAAA0001", Status: models.StatusFailed},
	}, 0, nil, models.Timing{})

	assert.Zero(t, r.Stats.VideosDownloaded)
	assert.Equal(t, 1, r.Stats.VideosFailed)
	assert.Zero(t, r.Stats.Speed.VideosPerSecond)
	require.NotNil(t, r.Groups)
	assert.Empty(t, r.Groups)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Write(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	stats := decoded["stats"].(map[string]any)
	assert.EqualValues(t, 0, stats["videos_downloaded"])
	assert.Empty(t, decoded["groups"])
}

func TestWriteOverwritesPreviousReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")

	first := Build("fast_cache", 1, nil, 0, map[string]*models.Group{
		"Old Title": {VideoCount: 1},
	}, models.Timing{})
	require.NoError(t, Write(path, first))

	second := Build("fast_cache", 1, nil, 0, nil, models.Timing{})
	require.NoError(t, Write(path, second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Empty(t, decoded.Groups, "rewrite must replace, not merge")
}

func TestNewTimingRounds(t *testing.T) {
	t.Parallel()

	timing := NewTiming(1234*time.Millisecond, 0, 4567*time.Millisecond, 10*time.Second)
	assert.InDelta(t, 1.2, timing.APIDiscoverySeconds, 0.001)
	assert.InDelta(t, 0.0, timing.MetadataFetchSeconds, 0.001)
	assert.InDelta(t, 4.6, timing.VideoDownloadSeconds, 0.001)
	assert.InDelta(t, 10.0, timing.TotalSeconds, 0.001)
}
