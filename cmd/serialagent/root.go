package main

import (
	"os"

	"github.com/mastercactapus/serialagent/config"
	"github.com/mastercactapus/serialagent/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var (
	v       = viper.New()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "serialagent",
	Short: "Share local serial ports with browser clients over WebSocket",
	Long: `serialagent exposes the serial ports of this machine to WebSocket clients.

Clients send line commands (list, open, send, sendraw, close) and receive
port listings, status records and the data each open port produces.

Running serialagent with no subcommand is the same as 'serialagent serve'.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("ports-filter", "", "Only list ports whose name matches this regexp")
	cobra.CheckErr(v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(v.BindPFlag("ports_filter", rootCmd.PersistentFlags().Lookup("ports-filter")))
}

// loadConfig resolves the effective configuration and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	log.SetLevel(cfg.Level())
	return cfg, nil
}

func newServer(cfg *config.Config) (*server.Server, error) {
	filter, err := cfg.Filter()
	if err != nil {
		return nil, err
	}
	return server.NewServer(server.Config{
		Version:     version,
		Hostname:    cfg.Hostname,
		PortsFilter: filter,
		Buffer:      cfg.BufferOptions(),
		ReadSize:    cfg.Buffer.ReadSize,
		Origins:     cfg.Origins,
	}), nil
}
