package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)

	require.Equal(t, Cfg{
		CheckpointChunkSize: 1024,
		PublishInterval:     Duration(30 * time.Second),
		Logging:             Logging{Level: "info", Format: "text"},
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_file(t *testing.T) {
	cfg, err := Load(strings.NewReader(`
checkpoint_chunk_size = 256
publish_interval = "5s"

[logging]
level = "debug"
format = "json"
`))
	require.NoError(t, err)

	require.Equal(t, Cfg{
		CheckpointChunkSize: 256,
		PublishInterval:     Duration(5 * time.Second),
		Logging:             Logging{Level: "debug", Format: "json"},
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_invalidToml(t *testing.T) {
	_, err := Load(strings.NewReader(`publish_interval = "not a duration"`))
	require.Error(t, err)
}

func TestLoad_envOverride(t *testing.T) {
	require.NoError(t, os.Setenv("SEQTRACK_CHECKPOINT_CHUNK_SIZE", "128"))
	defer func() { require.NoError(t, os.Unsetenv("SEQTRACK_CHECKPOINT_CHUNK_SIZE")) }()

	cfg, err := Load(strings.NewReader(`checkpoint_chunk_size = 256`))
	require.NoError(t, err)
	require.Equal(t, 128, cfg.CheckpointChunkSize)
}

func TestCfg_Validate(t *testing.T) {
	for _, tc := range []struct {
		desc      string
		changeCfg func(*Cfg)
		errMsg    string
	}{
		{
			desc:      "valid",
			changeCfg: func(*Cfg) {},
		},
		{
			desc:      "negative chunk size",
			changeCfg: func(cfg *Cfg) { cfg.CheckpointChunkSize = -1 },
			errMsg:    "checkpoint chunk size was -1 but must be >=1",
		},
		{
			desc:      "zero publish interval",
			changeCfg: func(cfg *Cfg) { cfg.PublishInterval = 0 },
			errMsg:    "publish interval was 0s but must be positive",
		},
		{
			desc:      "unknown logging level",
			changeCfg: func(cfg *Cfg) { cfg.Logging.Level = "shouting" },
			errMsg:    `invalid logging level: "shouting"`,
		},
		{
			desc:      "unknown logging format",
			changeCfg: func(cfg *Cfg) { cfg.Logging.Format = "yaml" },
			errMsg:    `invalid logging format: "yaml"`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := Default()
			tc.changeCfg(&cfg)

			err := cfg.Validate()
			if tc.errMsg == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.errMsg)
			}
		})
	}
}

func TestLogging_Configure(t *testing.T) {
	logger := logrus.New()

	require.NoError(t, Logging{Level: "warning", Format: "json"}.Configure(logger))
	require.Equal(t, logrus.WarnLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	require.NoError(t, Logging{Level: "info", Format: "text"}.Configure(logger))
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	require.Error(t, Logging{Level: "nope", Format: "text"}.Configure(logger))
	require.Error(t, Logging{Level: "info", Format: "yaml"}.Configure(logger))
}

func TestDuration_text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	require.Equal(t, 90*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1m30s", string(text))

	require.Error(t, d.UnmarshalText([]byte("soon")))
}
