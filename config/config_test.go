package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8991", cfg.ListenAddr)
	assert.Equal(t, "/ws", cfg.WSPath)
	assert.Empty(t, cfg.Origins)
	assert.Equal(t, log.InfoLevel, cfg.Level())
	assert.Equal(t, 16*time.Millisecond, cfg.Buffer.TimedInterval)
	assert.Equal(t, 4096, cfg.Buffer.BinaryFrameSize)
	assert.Equal(t, 1024, cfg.Buffer.ReadSize)

	re, err := cfg.Filter()
	require.NoError(t, err)
	assert.Nil(t, re)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SERIALAGENT_LISTEN_ADDR", ":9000")
	t.Setenv("SERIALAGENT_LOG_LEVEL", "debug")
	t.Setenv("SERIALAGENT_BUFFER_TIMED_INTERVAL", "50ms")
	t.Setenv("SERIALAGENT_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, 50*time.Millisecond, cfg.BufferOptions().Interval)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Origins)
}

func TestLoad_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
listen_addr: 0.0.0.0:8991
ports_filter: ^/dev/ttyUSB
origins:
  - http://localhost:3000
buffer:
  binary_frame_size: 512
`), 0o644))

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8991", cfg.ListenAddr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Origins)
	assert.Equal(t, 512, cfg.BufferOptions().FrameSize)
	assert.Equal(t, 16*time.Millisecond, cfg.Buffer.TimedInterval)

	re, err := cfg.Filter()
	require.NoError(t, err)
	assert.True(t, re.MatchString("/dev/ttyUSB0"))
	assert.False(t, re.MatchString("/dev/ttyS0"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ListenAddr: ":8991",
			WSPath:     "/ws",
			LogLevel:   "info",
			Buffer:     BufferConfig{TimedInterval: time.Millisecond, BinaryFrameSize: 1, ReadSize: 1},
		}
	}
	require.NoError(t, valid().Validate())

	for name, mutate := range map[string]func(*Config){
		"listen":    func(c *Config) { c.ListenAddr = "" },
		"path":      func(c *Config) { c.WSPath = "ws" },
		"level":     func(c *Config) { c.LogLevel = "loud" },
		"filter":    func(c *Config) { c.PortsFilter = "(" },
		"interval":  func(c *Config) { c.Buffer.TimedInterval = 0 },
		"frame":     func(c *Config) { c.Buffer.BinaryFrameSize = -1 },
		"read size": func(c *Config) { c.Buffer.ReadSize = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDump(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cfg.Dump(&buf))
	assert.Contains(t, buf.String(), "listen_addr: 127.0.0.1:8991\n")
	assert.Contains(t, buf.String(), "timed_interval: 16ms\n")

	// the dump loads back to the same values
	file := filepath.Join(t.TempDir(), "dump.yaml")
	require.NoError(t, os.WriteFile(file, buf.Bytes(), 0o644))
	again, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, cfg.Buffer, again.Buffer)
	assert.Equal(t, cfg.ListenAddr, again.ListenAddr)
}
