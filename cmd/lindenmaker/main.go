// Package main is the entry point for the lindenmaker command.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/lindenmaker/internal/logging"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lindenmaker",
		Short:        "Interpret L-strings with a 3D turtle",
		SilenceUsage: true,
	}
	root.Version = versionString()
	root.SetVersionTemplate("lindenmaker version {{.Version}}\n")

	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default warn, env LOG_LEVEL)")

	root.AddCommand(newInterpretCmd(), newTokenizeCmd(), newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lindenmaker version %s\n", versionString())
		},
	}
}

func versionString() string {
	return version + " (commit=" + commit + ", built=" + date + ")"
}

// newLogger builds the logger from --log-level, falling back to LOG_LEVEL
// and then to fallback.
func newLogger(cmd *cobra.Command, fallback string) (*slog.Logger, error) {
	name := envOrDefault("LOG_LEVEL", fallback)
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		name = v
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
