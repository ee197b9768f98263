// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package google

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Config holds Google provider configuration.
type Config struct {
	APIKey string
}

// Generator implements provider.Generator using the Google Gemini API.
type Generator struct {
	client *genai.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new Google generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, saucierr.New(saucierr.CodeProviderRequestInvalid, "google: missing api_key in config", saucierr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeProviderUpstreamFailure, "google: creating client")
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeProviderRequestInvalid, "google: creating health tracker")
	}

	return &Generator{
		client: client,
		config: cfg,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return "google" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) Close() error { return nil }

// Generate runs a single non-streaming content generation call and returns
// the response text with surrounding whitespace removed.
func (g *Generator) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return "", saucierr.New(saucierr.CodeProviderRequestInvalid, "google: no messages to send")
	}

	config := buildConfig(req)

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		g.health.RecordFailure()
		return "", saucierr.Wrapf(err, saucierr.CodeProviderUpstreamFailure, "google: generating content with %s", req.Model)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.health.RecordFailure()
		return "", saucierr.New(saucierr.CodeProviderResponseInvalid, "google: empty response text", saucierr.FieldProvider("google"))
	}

	g.health.RecordSuccess()
	return text, nil
}

// buildConfig converts a provider.GenerateRequest into a genai.GenerateContentConfig.
func buildConfig(req provider.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.SystemPrompt},
			},
		}
	}

	return cfg
}

// convertMessages transforms history messages into genai.Content slices.
// The Google GenAI SDK uses Content with Role and Parts; assistant turns
// map to the "model" role.
func convertMessages(msgs []history.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case history.RoleUser:
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			})
		case history.RoleAssistant:
			result = append(result, &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			})
		default:
			return nil, saucierr.Errorf(saucierr.CodeProviderRequestInvalid, "google: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
