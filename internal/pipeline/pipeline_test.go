package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shotgrab/shotgrab/internal/config"
	"github.com/shotgrab/shotgrab/internal/models"
)

// fakeShotdeck serves just enough of the site for a full pipeline run.
type fakeShotdeck struct {
	mux *http.ServeMux
	srv *httptest.Server

	clips  map[string]string // shot ID -> clip bytes
	titles map[string]string // shot ID -> title

	// listing overrides the IDs advertised by the CDN directory; when
	// nil the clip map's keys are listed.
	listing []string
}

func (f *fakeShotdeck) listedIDs() []string {
	if f.listing != nil {
		return f.listing
	}
	ids := make([]string, 0, len(f.clips))
	for id := range f.clips {
		ids = append(ids, id)
	}
	return ids
}

func newFakeShotdeck(t *testing.T) *fakeShotdeck {
	t.Helper()

	f := &fakeShotdeck{
		mux: http.NewServeMux(),
		clips: map[string]string{
			"AAAA0001": "clip-one",
			"AAAA0002": "clip-two-longer",
			"AAAA0003": "clip-three",
		},
		titles: map[string]string{
			"AAAA0001": "Heat",
			"AAAA0002": "Heat",
			"AAAA0003": "Collateral",
		},
	}

	f.mux.HandleFunc("/browse/searchstillsajax/page/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/page/1") {
			for id := range f.clips {
				fmt.Fprintf(w, `<div class="outerimage" data-shotid=%q data-clip="1"></div>`, id)
			}
			return
		}
		fmt.Fprint(w, "<html><body></body></html>")
	})

	f.mux.HandleFunc("/browse/shotdetailsajax/image/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		id := parts[len(parts)-1]
		title, ok := f.titles[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `<div class="detail-group">
			<p class="detail-type">Title:</p>
			<div class="details"><a href="#">%s</a></div>
		</div>
		<div class="detail-group">
			<p class="detail-type">Director:</p>
			<div class="details"><a href="#">Michael Mann</a></div>
		</div>`, title)
	})

	f.mux.HandleFunc("/browse/viewclip/src/1/s/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		id := parts[len(parts)-1]
		fmt.Fprintf(w, `[%q,%q]`, id+"_clip.mp4", f.srv.URL+"/assets/images/clips/"+id+"_clip.mp4")
	})

	f.mux.HandleFunc("/assets/images/clips/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/assets/images/clips/")
		if name == "" {
			// Directory listing.
			fmt.Fprint(w, "<html><body><pre>")
			for _, id := range f.listedIDs() {
				fmt.Fprintf(w, `<a href="%s_clip.mp4">%s_clip.mp4</a>`+"\n", id, id)
			}
			fmt.Fprint(w, "</pre></body></html>")
			return
		}
		id := strings.TrimSuffix(name, "_clip.mp4")
		body, ok := f.clips[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	})

	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeShotdeck) config(outputDir string) *config.Config {
	return &config.Config{
		SessionID:          "test-session",
		TargetCount:        100,
		OutputDir:          outputDir,
		DownloadWorkers:    3,
		PageDelay:          time.Millisecond,
		MetadataDelay:      time.Millisecond,
		TriggerSettleDelay: time.Millisecond,
		SearchURL:          f.srv.URL + "/browse/searchstillsajax",
		DetailURL:          f.srv.URL + "/browse/shotdetailsajax/image",
		ViewclipURL:        f.srv.URL + "/browse/viewclip/src/1/s",
		CDNBaseURL:         f.srv.URL + "/assets/images/clips",
		UserAgent:          "shotgrab-test",
	}
}

func readReport(t *testing.T, path string) *models.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var r models.Report
	require.NoError(t, json.Unmarshal(data, &r))
	return &r
}

func TestRunFastEndToEnd(t *testing.T) {
	fake := newFakeShotdeck(t)
	outDir := t.TempDir()

	p := New(fake.config(outDir))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.RunFast(context.Background()))

	r := readReport(t, p.ReportPath())
	assert.Equal(t, MethodFast, r.Method)
	assert.Equal(t, 3, r.Stats.TotalShotsRequested)
	assert.Equal(t, 3, r.Stats.VideosDownloaded)
	assert.Zero(t, r.Stats.VideosFailed)
	assert.Equal(t, 3, r.Stats.MetadataRetrieved)
	assert.Equal(t, 2, r.Stats.UniqueGroups)

	heat := r.Groups["Heat"]
	require.NotNil(t, heat)
	assert.Equal(t, 2, heat.VideoCount)
	assert.Len(t, heat.Shots, 2)
	assert.Equal(t, []string{"Michael Mann"}, heat.Metadata.Director)

	// Clip files landed on disk under output/videos.
	data, err := os.ReadFile(filepath.Join(outDir, "videos", "AAAA0001_clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "clip-one", string(data))

	// Every shot appears in exactly one group.
	seen := map[string]int{}
	for _, g := range r.Groups {
		for _, s := range g.Shots {
			seen[s.ShotID]++
		}
	}
	for id := range fake.clips {
		assert.Equal(t, 1, seen[id])
	}
}

func TestRunComprehensiveEndToEnd(t *testing.T) {
	fake := newFakeShotdeck(t)
	outDir := t.TempDir()

	p := New(fake.config(outDir))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.RunComprehensive(context.Background()))

	r := readReport(t, p.ReportPath())
	assert.Equal(t, MethodComprehensive, r.Method)
	assert.Equal(t, 3, r.Stats.VideosDownloaded)
	assert.Equal(t, 2, r.Stats.UniqueGroups)
	require.NotNil(t, r.Groups["Collateral"])
	assert.Equal(t, 1, r.Groups["Collateral"].VideoCount)
}

func TestRunFastAllDownloadsFailedStillWritesReport(t *testing.T) {
	fake := newFakeShotdeck(t)
	outDir := t.TempDir()

	// The listing advertises clips the CDN no longer serves.
	fake.listing = []string{"GONE0001", "GONE0002"}

	p := New(fake.config(outDir))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.RunFast(context.Background()))

	r := readReport(t, p.ReportPath())
	assert.Zero(t, r.Stats.VideosDownloaded)
	assert.Equal(t, 2, r.Stats.VideosFailed)
	require.NotNil(t, r.Groups)
	assert.Empty(t, r.Groups)
}

func TestRunFastFailedDownloadsExcludedFromGroups(t *testing.T) {
	fake := newFakeShotdeck(t)
	outDir := t.TempDir()

	// One listed clip the CDN fails to serve; metadata still resolves.
	listedButMissing := "AAAA0004"
	fake.titles[listedButMissing] = "Heat"
	fake.listing = []string{"AAAA0001", "AAAA0002", "AAAA0003", listedButMissing}

	p := New(fake.config(outDir))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.RunFast(context.Background()))

	r := readReport(t, p.ReportPath())
	for _, g := range r.Groups {
		for _, s := range g.Shots {
			assert.NotEqual(t, listedButMissing, s.ShotID)
		}
	}
	assert.Equal(t, 3, r.Stats.VideosDownloaded)
	assert.Equal(t, 1, r.Stats.VideosFailed)
}

func TestRunComprehensiveNothingDiscovered(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := &config.Config{
		SessionID:       "test-session",
		TargetCount:     10,
		OutputDir:       t.TempDir(),
		DownloadWorkers: 1,
		SearchURL:       srv.URL + "/browse/searchstillsajax",
		DetailURL:       srv.URL + "/browse/shotdetailsajax/image",
		ViewclipURL:     srv.URL + "/browse/viewclip/src/1/s",
		CDNBaseURL:      srv.URL + "/assets/images/clips",
		UserAgent:       "shotgrab-test",
	}

	p := New(cfg)
	defer func() { _ = p.Close() }()

	err := p.RunComprehensive(context.Background())
	assert.ErrorIs(t, err, ErrNothingDiscovered)
}
