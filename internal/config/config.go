// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/saucier-dev/saucier/internal/secrets"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level Saucier configuration.
type Config struct {
	Networking    NetworkingConfig    `mapstructure:"networking"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Generation    GenerationConfig    `mapstructure:"generation"`
	Synthesis     SynthesisConfig     `mapstructure:"synthesis"`
	Storage       StorageConfig       `mapstructure:"storage"`
}

// NetworkingConfig controls how Saucier listens for connections.
type NetworkingConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// TranscriptionConfig holds credentials and endpoints for the
// speech-to-text service. The upload and transcript endpoints are
// configuration rather than hardcoded literals so a typo in one never
// diverges from the other.
type TranscriptionConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	UploadURL       string        `mapstructure:"upload_url"`
	TranscriptURL   string        `mapstructure:"transcript_url"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollDeadline    time.Duration `mapstructure:"poll_deadline"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
}

// GenerationConfig controls text generation routing.
type GenerationConfig struct {
	Default   string                    `mapstructure:"default"`  // "provider/model"
	Failover  []string                  `mapstructure:"failover"` // ordered "provider/model" refs
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig holds credentials and endpoint for one generation provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// SynthesisConfig holds credentials and options for the text-to-speech
// service.
type SynthesisConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Voice      string `mapstructure:"voice"`
	Format     string `mapstructure:"format"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// StorageConfig selects the conversation history backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // jsonfile | sqlite
	Path    string `mapstructure:"path"`    // optional; defaults under the data dir
}

// validBackends are the supported history storage backends.
var validBackends = map[string]bool{"jsonfile": true, "sqlite": true}

// validProviders are the generation providers Saucier can route to.
var validProviders = map[string]bool{"google": true, "openai": true, "anthropic": true}

// SetDefaults installs configuration defaults on a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("networking.listen", "127.0.0.1:18790")

	v.SetDefault("transcription.upload_url", "https://api.assemblyai.com/v2/upload")
	v.SetDefault("transcription.transcript_url", "https://api.assemblyai.com/v2/transcript")
	v.SetDefault("transcription.poll_interval", 2*time.Second)
	v.SetDefault("transcription.poll_deadline", 2*time.Minute)
	v.SetDefault("transcription.max_poll_attempts", 60)

	v.SetDefault("generation.default", "google/gemini-2.0-flash")

	v.SetDefault("synthesis.endpoint", "https://api.murf.ai/v1/speech/generate")
	v.SetDefault("synthesis.voice", "en-IN-aarav")
	v.SetDefault("synthesis.format", "MP3")
	v.SetDefault("synthesis.sample_rate", 24000)

	v.SetDefault("storage.backend", "jsonfile")
}

// SetupEnv binds environment variables with the SAUCIER_ prefix, so e.g.
// SAUCIER_SYNTHESIS_API_KEY overrides synthesis.api_key.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("SAUCIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides, resolves keyring:// secret URIs, and
// validates the result. Missing upstream credentials fail here, before
// any server starts.
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, saucierr.Errorf(saucierr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	secrets.ResolveViperSecrets(v, secrets.NewKeyringStore())

	return FromViper(v)
}

// FromViper unmarshals and validates a Config from an already-populated
// Viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, saucierr.Errorf(saucierr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateTranscription()...)
	errs = append(errs, c.validateGeneration()...)
	errs = append(errs, c.validateSynthesis()...)
	errs = append(errs, c.validateStorage()...)

	return errs
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue, "config: networking.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Networking.Listen)
	if err != nil {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateTranscription() []error {
	var errs []error

	if c.Transcription.APIKey == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: transcription.api_key is required"))
	}
	if c.Transcription.UploadURL == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: transcription.upload_url must not be empty"))
	}
	if c.Transcription.TranscriptURL == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: transcription.transcript_url must not be empty"))
	}
	if c.Transcription.PollInterval <= 0 {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: transcription.poll_interval must be positive, got %s", c.Transcription.PollInterval))
	}
	if c.Transcription.PollDeadline <= 0 {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: transcription.poll_deadline must be positive, got %s", c.Transcription.PollDeadline))
	}
	if c.Transcription.MaxPollAttempts <= 0 {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: transcription.max_poll_attempts must be positive, got %d", c.Transcription.MaxPollAttempts))
	}

	return errs
}

func (c *Config) validateGeneration() []error {
	var errs []error

	refs := append([]string{c.Generation.Default}, c.Generation.Failover...)
	for _, ref := range refs {
		if ref == "" {
			errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
				"config: generation.default must not be empty"))
			continue
		}
		prov := providerFromModelRef(ref)
		if prov == "" {
			errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
				"config: generation model ref must be \"provider/model\", got %q", ref))
			continue
		}
		if !validProviders[prov] {
			errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
				"config: unknown generation provider %q in ref %q", prov, ref))
		}
	}

	// The default provider must be usable at startup; failover providers
	// without credentials are simply skipped at registration time.
	if prov := providerFromModelRef(c.Generation.Default); prov != "" && validProviders[prov] {
		if c.Generation.Providers[prov].APIKey == "" {
			errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
				"config: generation.providers.%s.api_key is required for the default model %q", prov, c.Generation.Default))
		}
	}

	return errs
}

func (c *Config) validateSynthesis() []error {
	var errs []error

	if c.Synthesis.APIKey == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: synthesis.api_key is required"))
	}
	if c.Synthesis.Endpoint == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: synthesis.endpoint must not be empty"))
	}
	if c.Synthesis.Voice == "" {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: synthesis.voice must not be empty"))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if !validBackends[c.Storage.Backend] {
		errs = append(errs, saucierr.Errorf(saucierr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [jsonfile, sqlite], got %q", c.Storage.Backend))
	}

	return errs
}

// providerFromModelRef extracts the provider name from a "provider/model"
// ref, or returns "" when the ref is malformed.
func providerFromModelRef(ref string) string {
	idx := strings.Index(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return ""
	}
	return ref[:idx]
}
