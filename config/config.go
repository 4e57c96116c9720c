// Package config loads the agent settings from defaults, an optional YAML
// file and SERIALAGENT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/mastercactapus/serialagent/buffer"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "SERIALAGENT"

type Config struct {
	ListenAddr  string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	WSPath      string   `mapstructure:"ws_path" yaml:"ws_path"`
	Origins     []string `mapstructure:"origins" yaml:"origins"`
	LogLevel    string   `mapstructure:"log_level" yaml:"log_level"`
	Hostname    string   `mapstructure:"hostname" yaml:"hostname"`
	PortsFilter string   `mapstructure:"ports_filter" yaml:"ports_filter"`

	Buffer BufferConfig `mapstructure:"buffer" yaml:"buffer"`
}

type BufferConfig struct {
	TimedInterval   time.Duration `mapstructure:"timed_interval" yaml:"timed_interval"`
	BinaryFrameSize int           `mapstructure:"binary_frame_size" yaml:"binary_frame_size"`
	ReadSize        int           `mapstructure:"read_size" yaml:"read_size"`
}

// MarshalYAML writes the interval the way it is read back, e.g. "16ms".
func (b BufferConfig) MarshalYAML() (interface{}, error) {
	return struct {
		TimedInterval   string `yaml:"timed_interval"`
		BinaryFrameSize int    `yaml:"binary_frame_size"`
		ReadSize        int    `yaml:"read_size"`
	}{b.TimedInterval.String(), b.BinaryFrameSize, b.ReadSize}, nil
}

// SetDefaults registers every key, which also makes each of them
// overridable from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "127.0.0.1:8991")
	v.SetDefault("ws_path", "/ws")
	v.SetDefault("origins", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("hostname", "")
	v.SetDefault("ports_filter", "")
	v.SetDefault("buffer.timed_interval", buffer.DefaultInterval)
	v.SetDefault("buffer.binary_frame_size", buffer.DefaultFrameSize)
	v.SetDefault("buffer.read_size", 1024)
}

// Load reads file (if not empty) and the environment into a validated Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.WithField("file", v.ConfigFileUsed()).Debug("loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	var errs []error
	if cfg.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if !strings.HasPrefix(cfg.WSPath, "/") {
		errs = append(errs, fmt.Errorf("ws_path must start with '/', got '%s'", cfg.WSPath))
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := cfg.Filter(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Buffer.TimedInterval <= 0 {
		errs = append(errs, fmt.Errorf("buffer.timed_interval must be positive, got %s", cfg.Buffer.TimedInterval))
	}
	if cfg.Buffer.BinaryFrameSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer.binary_frame_size must be positive, got %d", cfg.Buffer.BinaryFrameSize))
	}
	if cfg.Buffer.ReadSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer.read_size must be positive, got %d", cfg.Buffer.ReadSize))
	}
	return errors.Join(errs...)
}

// Level is the parsed log_level.
func (cfg *Config) Level() log.Level {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Filter compiles ports_filter. An empty filter yields nil.
func (cfg *Config) Filter() (*regexp.Regexp, error) {
	if cfg.PortsFilter == "" {
		return nil, nil
	}
	re, err := regexp.Compile(cfg.PortsFilter)
	if err != nil {
		return nil, fmt.Errorf("ports_filter: %w", err)
	}
	return re, nil
}

func (cfg *Config) BufferOptions() buffer.Options {
	return buffer.Options{
		Interval:  cfg.Buffer.TimedInterval,
		FrameSize: cfg.Buffer.BinaryFrameSize,
	}
}

// Dump writes cfg as YAML, in the same layout Load accepts.
func (cfg *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
