package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"timelane/internal/layout"
)

// ICSConfig describes a single ICS feed whose all-day events are imported
// as timeline items.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID tags imported items (Item.Source) and names the feed in logs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns the id items from this feed are tagged with.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ZoomConfig bounds the zoom factor the API accepts and steps through.
type ZoomConfig struct {
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Step    float64 `yaml:"step" json:"step"`
	Default float64 `yaml:"default" json:"default"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format" json:"log_format"`

	// ItemsFile seeds the item collection (YAML, JSON or ICS by extension).
	ItemsFile string `yaml:"items_file" json:"items_file"`

	Zoom ZoomConfig `yaml:"zoom" json:"zoom"`

	// ErrorBannerSeconds is how long rejected-move errors stay visible.
	ErrorBannerSeconds int `yaml:"error_banner_seconds" json:"error_banner_seconds"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for re-importing the ICS feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ICSCacheDir holds per-feed HTTP cache entries.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen        = "127.0.0.1:8080"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultBannerSeconds = 5
	defaultRefreshCron   = "*/15 * * * *"
	defaultICSCacheDir   = "./var/ics-cache"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    defaultListen,
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		Zoom: ZoomConfig{
			Min:     layout.DefaultZoomLimits.Min,
			Max:     layout.DefaultZoomLimits.Max,
			Step:    layout.DefaultZoomLimits.Step,
			Default: 1,
		},
		ErrorBannerSeconds: defaultBannerSeconds,
		RefreshCron:        defaultRefreshCron,
		ICSCacheDir:        defaultICSCacheDir,
		ICS:                []ICSConfig{},
		BasicAuth:          nil,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}

	if c.Zoom.Min <= 0 {
		c.Zoom.Min = layout.DefaultZoomLimits.Min
	}
	if c.Zoom.Max < c.Zoom.Min {
		c.Zoom.Max = layout.DefaultZoomLimits.Max
		if c.Zoom.Max < c.Zoom.Min {
			c.Zoom.Max = c.Zoom.Min
		}
	}
	if c.Zoom.Step <= 1 {
		c.Zoom.Step = layout.DefaultZoomLimits.Step
	}
	if c.Zoom.Default <= 0 {
		c.Zoom.Default = 1
	}
	c.Zoom.Default = c.ZoomLimits().Clamp(c.Zoom.Default)

	if c.ErrorBannerSeconds <= 0 {
		c.ErrorBannerSeconds = defaultBannerSeconds
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// ZoomLimits converts the zoom section for the layout package.
func (c *Config) ZoomLimits() layout.ZoomLimits {
	return layout.ZoomLimits{Min: c.Zoom.Min, Max: c.Zoom.Max, Step: c.Zoom.Step}
}

// BannerTTL is ErrorBannerSeconds as a duration.
func (c *Config) BannerTTL() time.Duration {
	return time.Duration(c.ErrorBannerSeconds) * time.Second
}

// envOverrides lists the settings that can be overridden from the
// environment. Empty values leave the file setting alone.
type envOverrides struct {
	Listen      string `env:"TIMELANE_LISTEN"`
	LogLevel    string `env:"TIMELANE_LOG_LEVEL"`
	LogFormat   string `env:"TIMELANE_LOG_FORMAT"`
	ItemsFile   string `env:"TIMELANE_ITEMS_FILE"`
	RefreshCron string `env:"TIMELANE_REFRESH"`
	ICSCacheDir string `env:"TIMELANE_ICS_CACHE_DIR"`
	BannerSecs  int    `env:"TIMELANE_ERROR_BANNER_SECONDS"`
}

// ApplyEnv overlays TIMELANE_* environment variables onto c.
func ApplyEnv(c *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Listen, o.Listen)
	set(&c.LogLevel, o.LogLevel)
	set(&c.LogFormat, o.LogFormat)
	set(&c.ItemsFile, o.ItemsFile)
	set(&c.RefreshCron, o.RefreshCron)
	set(&c.ICSCacheDir, o.ICSCacheDir)
	if o.BannerSecs > 0 {
		c.ErrorBannerSeconds = o.BannerSecs
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file in the same directory, then
// rename) with 0600 permissions, creating the parent directory as 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".timelane-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
