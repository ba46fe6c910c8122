package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"estatekg/relate/internal/model"
)

// ErrInvalid marks configuration errors. They are fatal at startup, before
// any write reaches the store.
var ErrInvalid = errors.New("invalid configuration")

// Similarity holds the weighted-scorer parameters. The three weights sum to
// the maximum attainable score; a pair is materialized when its score
// reaches Threshold.
type Similarity struct {
	PriceWeight   float64 `yaml:"price_weight"`
	BedroomWeight float64 `yaml:"bedroom_weight"`
	SizeWeight    float64 `yaml:"size_weight"`
	Threshold     float64 `yaml:"threshold"`
}

// Retry bounds the backoff loop around batch writes.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// UnmarshalYAML accepts delays as duration strings ("100ms", "5s") and leaves
// absent keys at their current values.
func (r *Retry) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxAttempts *int    `yaml:"max_attempts"`
		BaseDelay   *string `yaml:"base_delay"`
		MaxDelay    *string `yaml:"max_delay"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.MaxAttempts != nil {
		r.MaxAttempts = *raw.MaxAttempts
	}
	if raw.BaseDelay != nil {
		d, err := time.ParseDuration(*raw.BaseDelay)
		if err != nil {
			return fmt.Errorf("parsing base_delay: %w", err)
		}
		r.BaseDelay = d
	}
	if raw.MaxDelay != nil {
		d, err := time.ParseDuration(*raw.MaxDelay)
		if err != nil {
			return fmt.Errorf("parsing max_delay: %w", err)
		}
		r.MaxDelay = d
	}
	return nil
}

// Neo4j holds connection settings for the graph-native store backend.
type Neo4j struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Config is the immutable configuration consumed by the builders and the
// orchestrator. It is constructed once at startup and passed by value; no
// builder reads environment or global state.
type Config struct {
	Similarity        Similarity `yaml:"similarity"`
	ProximityRadiusKM float64    `yaml:"proximity_radius_km"`
	PriceBoundaries   []float64  `yaml:"price_boundaries"`
	BatchSize         int        `yaml:"batch_size"`
	Workers           int        `yaml:"workers"`
	Retry             Retry      `yaml:"retry"`
	Neo4j             Neo4j      `yaml:"neo4j"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Similarity: Similarity{
			PriceWeight:   0.4,
			BedroomWeight: 0.3,
			SizeWeight:    0.3,
			Threshold:     0.5,
		},
		ProximityRadiusKM: 5.0,
		PriceBoundaries:   []float64{0, 100_000, 250_000, 500_000, 750_000, 1_000_000, 2_000_000},
		BatchSize:         1000,
		Workers:           4,
		Retry: Retry{
			MaxAttempts: 3,
			BaseDelay:   100 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// PriceBands derives the catalog bands from the configured boundaries.
func (c Config) PriceBands() []model.PriceBand {
	return model.PriceBands(c.PriceBoundaries)
}

// Validate rejects configurations that would corrupt a build. All failures
// wrap ErrInvalid.
func (c Config) Validate() error {
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("%w: similarity threshold %.2f outside [0,1]", ErrInvalid, c.Similarity.Threshold)
	}
	if c.Similarity.PriceWeight < 0 || c.Similarity.BedroomWeight < 0 || c.Similarity.SizeWeight < 0 {
		return fmt.Errorf("%w: similarity weights must be non-negative", ErrInvalid)
	}
	if c.ProximityRadiusKM <= 0 {
		return fmt.Errorf("%w: proximity radius %.2f must be positive", ErrInvalid, c.ProximityRadiusKM)
	}
	if len(c.PriceBoundaries) == 0 || c.PriceBoundaries[0] != 0 {
		return fmt.Errorf("%w: price boundaries must start at 0", ErrInvalid)
	}
	for i := 1; i < len(c.PriceBoundaries); i++ {
		if c.PriceBoundaries[i] <= c.PriceBoundaries[i-1] {
			return fmt.Errorf("%w: price boundaries must be strictly ascending", ErrInvalid)
		}
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d must be positive", ErrInvalid, c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: worker count %d must be positive", ErrInvalid, c.Workers)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts %d must be positive", ErrInvalid, c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("%w: retry delays must satisfy 0 < base <= max", ErrInvalid)
	}
	return nil
}
