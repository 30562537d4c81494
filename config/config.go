// Package config holds the tuning knobs of the sequence number trackers.
// Configuration is read from a TOML file and can be overridden through
// SEQTRACK_* environment variables.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"github.com/sirupsen/logrus"
)

const (
	// defaultChunkSize is the default size in bits of the chunks of the
	// completion bitset kept by the local checkpoint tracker.
	defaultChunkSize = 1024
	// defaultPublishInterval is the default interval between global
	// checkpoint recomputations on the primary.
	defaultPublishInterval = 30 * time.Second
)

// Duration is a trick to let our TOML library parse durations from strings.
type Duration time.Duration

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (d *Duration) UnmarshalText(text []byte) error {
	td, err := time.ParseDuration(string(text))
	if err == nil {
		*d = Duration(td)
	}
	return err
}

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Logging contains the logging configuration.
type Logging struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

// Configure applies the logging configuration to the given logger.
func (l Logging) Configure(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid logging level: %q", l.Level)
	}
	logger.SetLevel(level)

	switch l.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	default:
		return fmt.Errorf("invalid logging format: %q", l.Format)
	}

	return nil
}

// Cfg is a container for all config derived from the config file.
type Cfg struct {
	// CheckpointChunkSize is the size in bits of the chunks of the
	// sliding bitset that records out-of-order operation completions.
	CheckpointChunkSize int `toml:"checkpoint_chunk_size" split_words:"true"`
	// PublishInterval is the interval between the primary's global
	// checkpoint recomputations.
	PublishInterval Duration `toml:"publish_interval" split_words:"true"`
	Logging         Logging  `toml:"logging,omitempty" envconfig:"logging"`
}

// Load reads the configuration from the given reader and applies environment
// overrides and defaults. The result is not validated; call Validate before
// using it.
func Load(file io.Reader) (Cfg, error) {
	var cfg Cfg

	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return Cfg{}, fmt.Errorf("load toml: %v", err)
	}

	if err := envconfig.Process("seqtrack", &cfg); err != nil {
		return Cfg{}, fmt.Errorf("envconfig: %v", err)
	}

	cfg.setDefaults()

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() Cfg {
	var cfg Cfg
	cfg.setDefaults()
	return cfg
}

func (cfg *Cfg) setDefaults() {
	if cfg.CheckpointChunkSize == 0 {
		cfg.CheckpointChunkSize = defaultChunkSize
	}
	if cfg.PublishInterval == 0 {
		cfg.PublishInterval = Duration(defaultPublishInterval)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate establishes if the config is valid.
func (cfg Cfg) Validate() error {
	if cfg.CheckpointChunkSize < 1 {
		return fmt.Errorf("checkpoint chunk size was %d but must be >=1", cfg.CheckpointChunkSize)
	}

	if cfg.PublishInterval.Duration() <= 0 {
		return fmt.Errorf("publish interval was %s but must be positive", cfg.PublishInterval.Duration())
	}

	if _, err := logrus.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %q", cfg.Logging.Format)
	}

	return nil
}
