// Package config holds the workload configuration of marktree-bench.
// A workload is read from YAML and can be overridden from the environment
// with the MARKTREE_ prefix, e.g. MARKTREE_OPS=100000.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "marktree"

// Config describes a random workload run against a single tree.
type Config struct {
	// Seed makes runs reproducible. Zero picks a time based seed.
	Seed int64 `yaml:"seed" envconfig:"SEED"`

	// Tree options.
	BranchFactor int `yaml:"branch_factor" envconfig:"BRANCH_FACTOR"`
	LookupCache  int `yaml:"lookup_cache" envconfig:"LOOKUP_CACHE"`

	// Marks is the number of marks inserted before the timed phase.
	Marks int `yaml:"marks" envconfig:"MARKS"`

	// PairRatio is the fraction of inserts that create START/END pairs.
	PairRatio float64 `yaml:"pair_ratio" envconfig:"PAIR_RATIO"`

	// Rows and Cols bound random positions.
	Rows int `yaml:"rows" envconfig:"ROWS"`
	Cols int `yaml:"cols" envconfig:"COLS"`

	// Ops is the number of operations in the timed phase.
	Ops int `yaml:"ops" envconfig:"OPS"`

	Mix Mix `yaml:"mix" envconfig:"MIX"`

	// CheckEvery runs the invariant checker every n operations, 0 to only
	// check at the end.
	CheckEvery int `yaml:"check_every" envconfig:"CHECK_EVERY"`

	Log Log `yaml:"log" envconfig:"LOG"`
}

// Mix holds relative operation weights.
type Mix struct {
	Put     int `yaml:"put" envconfig:"PUT"`
	Del     int `yaml:"del" envconfig:"DEL"`
	Splice  int `yaml:"splice" envconfig:"SPLICE"`
	Move    int `yaml:"move" envconfig:"MOVE"`
	Overlap int `yaml:"overlap" envconfig:"OVERLAP"`
}

// Total returns the sum of all weights.
func (m Mix) Total() int {
	return m.Put + m.Del + m.Splice + m.Move + m.Overlap
}

// Log selects the logging backend.
type Log struct {
	// Backend is "zap" or "logrus".
	Backend string `yaml:"backend" envconfig:"BACKEND"`
	Level   string `yaml:"level" envconfig:"LEVEL"`
}

// DefaultConfig returns a workload with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BranchFactor: 10,
		Marks:        10_000,
		PairRatio:    0.3,
		Rows:         5_000,
		Cols:         120,
		Ops:          100_000,
		Mix: Mix{
			Put:     30,
			Del:     20,
			Splice:  30,
			Move:    10,
			Overlap: 10,
		},
		CheckEvery: 0,
		Log: Log{
			Backend: "zap",
			Level:   "info",
		},
	}
}

// LoadYAML loads a configuration from YAML bytes on top of the defaults.
func LoadYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path, if any, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = LoadYAML(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("couldn't process envconfig: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c.BranchFactor < 2 || c.BranchFactor > 64 {
		return fmt.Errorf("branch_factor must be in [2, 64]")
	}
	if c.LookupCache < 0 {
		return fmt.Errorf("lookup_cache must be >= 0")
	}
	if c.Marks < 0 || c.Ops < 0 {
		return fmt.Errorf("marks and ops must be >= 0")
	}
	if c.PairRatio < 0 || c.PairRatio > 1 {
		return fmt.Errorf("pair_ratio must be in [0, 1]")
	}
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("rows and cols must be > 0")
	}
	if c.Mix.Put < 0 || c.Mix.Del < 0 || c.Mix.Splice < 0 || c.Mix.Move < 0 || c.Mix.Overlap < 0 {
		return fmt.Errorf("mix weights must be >= 0")
	}
	if c.Ops > 0 && c.Mix.Total() == 0 {
		return fmt.Errorf("mix must have a positive weight")
	}
	if c.CheckEvery < 0 {
		return fmt.Errorf("check_every must be >= 0")
	}
	switch c.Log.Backend {
	case "zap", "logrus":
	default:
		return fmt.Errorf("log.backend must be zap or logrus")
	}
	return nil
}
