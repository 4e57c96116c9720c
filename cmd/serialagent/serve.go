package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket agent",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().String("listen", "127.0.0.1:8991", "HTTP listen address")
		cmd.Flags().String("ws-path", "/ws", "HTTP path of the WebSocket endpoint")
		cmd.Flags().StringSlice("origin", nil, "Allowed WebSocket origin (repeatable, default any)")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cobra.CheckErr(v.BindPFlag("listen_addr", cmd.Flags().Lookup("listen")))
	cobra.CheckErr(v.BindPFlag("ws_path", cmd.Flags().Lookup("ws-path")))
	cobra.CheckErr(v.BindPFlag("origins", cmd.Flags().Lookup("origin")))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	srv, err := newServer(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, srv)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}
	}()

	log.WithFields(log.Fields{
		"addr":    cfg.ListenAddr,
		"path":    cfg.WSPath,
		"version": version,
	}).Info("listening")
	err = httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
