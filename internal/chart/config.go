package chart

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

//go:embed cfg/*.json
var defaultConfigFS embed.FS

// Parameters are the numeric knobs of one chart type.
type Parameters struct {
	// MinFraction is the merge threshold fraction in (0,1]: elements below
	// MinFraction*max within a figure merge into the "Other" bucket.
	MinFraction float64 `json:"min_fraction"`
	// MaxChartCount is the figure count beyond which callers should warn.
	MaxChartCount int `json:"max_chart_count"`
}

// TypeConfig is the declarative configuration of one chart type: named
// boolean eligibility requirements, per-requirement reason strings, and
// numeric parameters. It is data, never executable logic; the evaluator
// interprets it over a fixed requirement vocabulary.
type TypeConfig struct {
	Eligibility       map[string]bool   `json:"eligibility"`
	DisallowedReasons map[string]string `json:"disallowed_reasons"`
	Parameters        Parameters        `json:"parameters"`
}

// Config is the immutable per-process chart-type configuration. It is
// constructed once and safe to share across concurrent invocations.
type Config struct {
	types map[Type]TypeConfig
}

// Type returns the configuration for a chart type, if present.
func (c *Config) Type(t Type) (TypeConfig, bool) {
	if c == nil {
		return TypeConfig{}, false
	}
	tc, ok := c.types[t]
	return tc, ok
}

// LoadConfig reads the embedded per-type defaults, then overlays any
// matching JSON files found in overrideDir ("" skips the overlay). A
// malformed embedded file is a ConfigError; a malformed override file is
// too, since overrides are deliberate operator input.
func LoadConfig(overrideDir string) (*Config, error) {
	cfg := &Config{types: make(map[Type]TypeConfig, 4)}
	for _, t := range Types() {
		raw, err := defaultConfigFS.ReadFile(fmt.Sprintf("cfg/%s.json", t))
		if err != nil {
			return nil, &ConfigError{ChartType: t, Err: err}
		}
		var tc TypeConfig
		if err := json.Unmarshal(raw, &tc); err != nil {
			return nil, &ConfigError{ChartType: t, Err: err}
		}
		if overrideDir != "" {
			path := filepath.Join(overrideDir, string(t)+".json")
			if raw, err := os.ReadFile(path); err == nil {
				if err := json.Unmarshal(raw, &tc); err != nil {
					return nil, &ConfigError{ChartType: t, Err: err}
				}
			} else if !os.IsNotExist(err) {
				return nil, &ConfigError{ChartType: t, Err: err}
			}
		}
		if tc.Parameters.MinFraction <= 0 || tc.Parameters.MinFraction > 1 {
			return nil, &ConfigError{ChartType: t,
				Err: fmt.Errorf("min_fraction %v outside (0,1]", tc.Parameters.MinFraction)}
		}
		if tc.Parameters.MaxChartCount < 1 {
			return nil, &ConfigError{ChartType: t,
				Err: fmt.Errorf("max_chart_count %d must be positive", tc.Parameters.MaxChartCount)}
		}
		cfg.types[t] = tc
	}
	return cfg, nil
}

// ConfigLoader caches the configuration after the first successful load and
// collapses concurrent first loads into one read. A failed load is not
// cached, so the next request retries; callers treat a nil Config as
// "every chart type ineligible: configuration not found".
type ConfigLoader struct {
	overrideDir string

	group  singleflight.Group
	mu     sync.RWMutex
	cached *Config
}

func NewConfigLoader(overrideDir string) *ConfigLoader {
	return &ConfigLoader{overrideDir: overrideDir}
}

// Load returns the cached configuration, reading it on first use.
func (l *ConfigLoader) Load() (*Config, error) {
	l.mu.RLock()
	if c := l.cached; c != nil {
		l.mu.RUnlock()
		return c, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do("config", func() (any, error) {
		cfg, err := LoadConfig(l.overrideDir)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cached = cfg
		l.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}
