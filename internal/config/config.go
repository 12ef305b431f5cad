// Package config holds the run configuration for a scrape.
package config

import (
	"errors"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries everything a pipeline run needs. Every field can be
// overridden through the environment so no credential lives in code.
type Config struct {
	// SessionID is the PHPSESSID cookie value of a logged-in session.
	SessionID string `env:"SHOTGRAB_SESSION_ID" env-description:"ShotDeck PHPSESSID cookie value"`

	// TargetCount is how many clips a run tries to collect.
	TargetCount int `env:"SHOTGRAB_TARGET_COUNT" env-default:"2000"`

	OutputDir string `env:"SHOTGRAB_OUTPUT_DIR" env-default:"output"`

	// DownloadWorkers bounds the parallel download pool.
	DownloadWorkers int `env:"SHOTGRAB_DOWNLOAD_WORKERS" env-default:"3"`

	PageDelay     time.Duration `env:"SHOTGRAB_PAGE_DELAY" env-default:"300ms"`
	MetadataDelay time.Duration `env:"SHOTGRAB_METADATA_DELAY" env-default:"500ms"`

	// TriggerSettleDelay is how long to wait after the viewclip trigger
	// before assuming the asset exists on the CDN.
	TriggerSettleDelay time.Duration `env:"SHOTGRAB_TRIGGER_SETTLE_DELAY" env-default:"300ms"`

	SearchURL   string `env:"SHOTGRAB_SEARCH_URL" env-default:"https://shotdeck.com/browse/searchstillsajax"`
	DetailURL   string `env:"SHOTGRAB_DETAIL_URL" env-default:"https://shotdeck.com/browse/shotdetailsajax/image"`
	ViewclipURL string `env:"SHOTGRAB_VIEWCLIP_URL" env-default:"https://crunch.shotdeck.com/browse/viewclip/src/1/s"`
	CDNBaseURL  string `env:"SHOTGRAB_CDN_BASE_URL" env-default:"https://crunch.shotdeck.com/assets/images/clips"`

	UserAgent string `env:"SHOTGRAB_USER_AGENT" env-default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
}

var (
	ErrNoSession      = errors.New("session token is empty, set SHOTGRAB_SESSION_ID")
	ErrBadTargetCount = errors.New("target count must be at least 1")
	ErrBadWorkers     = errors.New("download worker count must be at least 1")
)

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would make every request fail or
// deadlock the download pool.
func (c *Config) Validate() error {
	if c.SessionID == "" {
		return ErrNoSession
	}
	if c.TargetCount < 1 {
		return ErrBadTargetCount
	}
	if c.DownloadWorkers < 1 {
		return ErrBadWorkers
	}
	return nil
}
