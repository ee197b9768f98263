// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/saucier-dev/saucier/internal/agent"
	"github.com/saucier-dev/saucier/internal/config"
	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
	anthropicprov "github.com/saucier-dev/saucier/internal/provider/anthropic"
	googleprov "github.com/saucier-dev/saucier/internal/provider/google"
	openaiprov "github.com/saucier-dev/saucier/internal/provider/openai"
	"github.com/saucier-dev/saucier/internal/server"
	"github.com/saucier-dev/saucier/internal/speech/synth"
	"github.com/saucier-dev/saucier/internal/speech/transcribe"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server   *server.Server
	History  history.Store
	Registry *provider.Registry
	Pipeline *agent.Pipeline
}

// WireApp creates all subsystems and wires them together. The dataDir is
// the root directory for persistent state; empty means the default under
// the user's home.
func WireApp(cfg *config.Config, dataDir string) (*App, error) {
	if dataDir == "" {
		dataDir = defaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, saucierr.Errorf(saucierr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	// 1. History store.
	storePath := cfg.Storage.Path
	if storePath == "" {
		switch cfg.Storage.Backend {
		case "sqlite":
			storePath = filepath.Join(dataDir, "history.db")
		default:
			storePath = filepath.Join(dataDir, "history.json")
		}
	}
	store, err := history.Open(cfg.Storage.Backend, storePath)
	if err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeCLISetupFailure, "opening history store")
	}

	// 2. Provider registry with default model and failover chain.
	reg := provider.NewRegistry()
	registerBuiltinProviders(cfg, reg)

	if cfg.Generation.Default != "" {
		if err := reg.SetDefault(cfg.Generation.Default); err != nil {
			_ = store.Close()
			return nil, saucierr.Wrapf(err, saucierr.CodeCLISetupFailure, "setting default model: %s", cfg.Generation.Default)
		}
	}
	if len(cfg.Generation.Failover) > 0 {
		if err := reg.SetFailover(cfg.Generation.Failover); err != nil {
			_ = store.Close()
			return nil, saucierr.Wrapf(err, saucierr.CodeCLISetupFailure, "setting failover chain")
		}
	}

	// 3. Speech clients.
	transcriber, err := transcribe.New(transcribe.Config{
		APIKey:          cfg.Transcription.APIKey,
		UploadURL:       cfg.Transcription.UploadURL,
		TranscriptURL:   cfg.Transcription.TranscriptURL,
		PollInterval:    cfg.Transcription.PollInterval,
		PollDeadline:    cfg.Transcription.PollDeadline,
		MaxPollAttempts: cfg.Transcription.MaxPollAttempts,
	})
	if err != nil {
		_ = store.Close()
		return nil, saucierr.Wrapf(err, saucierr.CodeCLISetupFailure, "creating transcription client")
	}

	synthesizer, err := synth.New(synth.Config{
		APIKey:     cfg.Synthesis.APIKey,
		Endpoint:   cfg.Synthesis.Endpoint,
		Voice:      cfg.Synthesis.Voice,
		Format:     cfg.Synthesis.Format,
		SampleRate: cfg.Synthesis.SampleRate,
	})
	if err != nil {
		_ = store.Close()
		return nil, saucierr.Wrapf(err, saucierr.CodeCLISetupFailure, "creating synthesis client")
	}

	// 4. Pipeline and HTTP server.
	pipeline := agent.NewPipeline(transcriber, reg, synthesizer, store)

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.Networking.CORSOrigins,
	})
	if err != nil {
		_ = store.Close()
		return nil, saucierr.Wrapf(err, saucierr.CodeCLISetupFailure, "creating server")
	}
	srv.RegisterServices(pipeline, store)

	return &App{
		Server:   srv,
		History:  store,
		Registry: reg,
		Pipeline: pipeline,
	}, nil
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Registry != nil {
		if err := a.Registry.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// providerFactory builds a provider.Generator from a ProviderConfig.
type providerFactory func(config.ProviderConfig) (provider.Generator, error)

// builtinProviderFactories maps provider names to their constructors.
// Declared as a variable so tests can inject failing factories.
var builtinProviderFactories = map[string]providerFactory{
	"google": func(pc config.ProviderConfig) (provider.Generator, error) {
		return googleprov.New(googleprov.Config{APIKey: pc.APIKey})
	},
	"openai": func(pc config.ProviderConfig) (provider.Generator, error) {
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"anthropic": func(pc config.ProviderConfig) (provider.Generator, error) {
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
}

// registerBuiltinProviders iterates configured providers and registers
// matching built-in implementations. Unknown names or empty API keys are
// logged and skipped; the default provider's key was already checked by
// config validation.
func registerBuiltinProviders(cfg *config.Config, reg *provider.Registry) {
	for name, pc := range cfg.Generation.Providers {
		if pc.APIKey == "" {
			slog.Warn("skipping provider with empty API key", "provider", name)
			continue
		}
		factory, ok := builtinProviderFactories[name]
		if !ok {
			slog.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		p, err := factory(pc)
		if err != nil {
			slog.Warn("failed to create provider", "provider", name, "error", err)
			continue
		}
		reg.Register(name, p)
		slog.Info("registered provider", "provider", name)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".saucier"
	}
	return filepath.Join(home, ".local", "share", "saucier")
}
