package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/lindenmaker/pkg/api"
	"github.com/lemonberrylabs/lindenmaker/pkg/store"
	"github.com/lemonberrylabs/lindenmaker/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and web UI",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8790, env PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("lsystems-dir", "", "Directory of l-system YAML/JSON documents to load (env LSYSTEMS_DIR)")
	return cmd
}

// serveConfig is the resolved configuration of the serve command.
type serveConfig struct {
	Addr        string
	LSystemsDir string
}

func resolveServeConfig(cmd *cobra.Command) serveConfig {
	port := envOrDefault("PORT", "8790")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	dir := os.Getenv("LSYSTEMS_DIR")
	if v, _ := cmd.Flags().GetString("lsystems-dir"); v != "" {
		dir = v
	}

	return serveConfig{Addr: fmt.Sprintf("%s:%s", host, port), LSystemsDir: dir}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := resolveServeConfig(cmd)
	logger, err := newLogger(cmd, "info")
	if err != nil {
		return err
	}

	s := store.New()
	server, err := api.New(s, api.Config{Logger: logger, AccessLog: os.Stderr})
	if err != nil {
		return err
	}

	if cfg.LSystemsDir != "" {
		if _, err := server.LoadDir(cfg.LSystemsDir); err != nil {
			logger.Warn("failed to load lsystems directory", "dir", cfg.LSystemsDir, "error", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("web UI disabled due to template error", "error", r)
			}
		}()
		web.New(s).Register(server.App())
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error("error during shutdown", "error", err)
		}
	}()

	logger.Info("lindenmaker listening", "addr", cfg.Addr, "lsystems_dir", cfg.LSystemsDir)
	return server.Listen(cfg.Addr)
}
