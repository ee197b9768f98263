// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/secrets"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the saucier server",
		Long:  "Load configuration, wire the speech and generation services, and serve the HTTP API until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()

	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// initViper already merged file, env, and flags into the global Viper;
	// resolve keyring URIs and validate before anything starts.
	secrets.ResolveViperSecrets(v, secrets.NewKeyringStore())
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	app, err := WireApp(cfg, v.GetString("data_dir"))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting saucier", "listen", cfg.Networking.Listen, "storage", cfg.Storage.Backend)
	return app.Start(ctx)
}
