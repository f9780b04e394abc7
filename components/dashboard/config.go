package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configVersionV1 = "1"
	// ConfigVersion exposes the current config format version for tooling.
	ConfigVersion = configVersionV1

	defaultQuietPeriod = time.Second
	defaultFanoutLimit = 8
)

// Config describes the widget catalog, the shared vocabulary and the
// persistence settings of a dashboard page.
type Config struct {
	Version       string             `json:"version" yaml:"version"`
	PageName      string             `json:"page_name,omitempty" yaml:"page_name,omitempty"`
	Widgets       []WidgetDefinition `json:"widgets" yaml:"widgets"`
	DefaultOrder  []string           `json:"default_order,omitempty" yaml:"default_order,omitempty"`
	Dimensions    []DimensionConfig  `json:"dimensions" yaml:"dimensions"`
	Normalizer    NormalizerConfig   `json:"normalizer" yaml:"normalizer"`
	RandomTarget  Binding            `json:"random_target" yaml:"random_target"`
	QuietPeriodMS int                `json:"quiet_period_ms,omitempty" yaml:"quiet_period_ms,omitempty"`
	FanoutLimit   int                `json:"fanout_limit,omitempty" yaml:"fanout_limit,omitempty"`
	LayoutAPIURL  string             `json:"layout_api_url,omitempty" yaml:"layout_api_url,omitempty"`
	Source        string             `json:"-" yaml:"-"`
}

// QuietPeriod returns the save debounce window.
func (c Config) QuietPeriod() time.Duration {
	if c.QuietPeriodMS <= 0 {
		return defaultQuietPeriod
	}
	return time.Duration(c.QuietPeriodMS) * time.Millisecond
}

func (c Config) fanoutLimit() int {
	if c.FanoutLimit <= 0 {
		return defaultFanoutLimit
	}
	return c.FanoutLimit
}

// IsZero reports whether the config was left empty.
func (c Config) IsZero() bool {
	return len(c.Widgets) == 0 && len(c.Dimensions) == 0
}

// LoadConfig reads a YAML or JSON config file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("dashboard: open config %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("dashboard: decode config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// DecodeConfig reads a config document, checks it against the config schema,
// and validates cross references.
func DecodeConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("dashboard: read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, fmt.Errorf("dashboard: config is empty")
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("dashboard: parse config: %w", err)
	}
	if err := defaultValidator.Validate("config", configSchema, raw); err != nil {
		return Config{}, err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("dashboard: config is empty")
		}
		return Config{}, fmt.Errorf("dashboard: parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EncodeConfig writes cfg as YAML.
func EncodeConfig(w io.Writer, cfg Config) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("dashboard: write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = configVersionV1
	}
	if len(c.DefaultOrder) == 0 {
		for _, w := range c.Widgets {
			c.DefaultOrder = append(c.DefaultOrder, w.ID)
		}
	}
}

// Validate checks the references between widgets, dimensions and the
// normalizer tables.
func (c Config) Validate() error {
	if c.Version != configVersionV1 {
		return fmt.Errorf("dashboard: unsupported config version %q", c.Version)
	}
	catalog, err := NewCatalog(c.Widgets)
	if err != nil {
		return err
	}
	for _, id := range c.DefaultOrder {
		if _, ok := catalog.Static(id); !ok {
			return fmt.Errorf("dashboard: default order references unknown widget %s", id)
		}
	}
	state, err := NewSharedState(c.Dimensions)
	if err != nil {
		return err
	}
	for from, to := range c.Normalizer.Aliases {
		if !acceptedBySomeSlot(state, to) {
			return fmt.Errorf("dashboard: alias %s maps to %q which no dimension accepts", from, to)
		}
	}
	for _, v := range c.Normalizer.Fallback {
		if !acceptedBySomeSlot(state, v) {
			return fmt.Errorf("dashboard: fallback value %q is not an option of any dimension", v)
		}
	}
	for _, w := range c.Widgets {
		if w.Policy != PolicyAlwaysRandom {
			continue
		}
		if len(c.Normalizer.Fallback) == 0 {
			return fmt.Errorf("dashboard: widget %s picks random values but the fallback set is empty", w.ID)
		}
		if c.RandomTarget.isZero() {
			return fmt.Errorf("dashboard: widget %s picks random values but random_target is unset", w.ID)
		}
	}
	return nil
}

func acceptedBySomeSlot(state *SharedState, value string) bool {
	return slices.ContainsFunc(state.Slots(), func(slot Slot) bool {
		return state.Accepts(slot, value)
	})
}
