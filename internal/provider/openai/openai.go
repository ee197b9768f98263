// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package openai

import (
	"context"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Generator implements provider.Generator using the OpenAI Chat Completions API.
type Generator struct {
	client openaisdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new OpenAI generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, saucierr.New(saucierr.CodeProviderRequestInvalid, "openai: missing api_key in config", saucierr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeProviderRequestInvalid, "openai: creating health tracker")
	}

	return &Generator{
		client: openaisdk.NewClient(opts...),
		config: cfg,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return "openai" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) Close() error { return nil }

// Generate runs a single non-streaming chat completion and returns the
// first choice's text with surrounding whitespace removed.
func (g *Generator) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	params, err := buildParams(req)
	if err != nil {
		return "", err
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		g.health.RecordFailure()
		return "", saucierr.Wrapf(err, saucierr.CodeProviderUpstreamFailure, "openai: creating chat completion with %s", req.Model)
	}

	if len(completion.Choices) == 0 {
		g.health.RecordFailure()
		return "", saucierr.New(saucierr.CodeProviderResponseInvalid, "openai: completion has no choices", saucierr.FieldProvider("openai"))
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		g.health.RecordFailure()
		return "", saucierr.New(saucierr.CodeProviderResponseInvalid, "openai: empty completion text", saucierr.FieldProvider("openai"))
	}

	g.health.RecordSuccess()
	return text, nil
}

// buildParams converts a provider.GenerateRequest into OpenAI SDK ChatCompletionNewParams.
func buildParams(req provider.GenerateRequest) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages, req.SystemPrompt)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	return params, nil
}

// convertMessages transforms history messages into OpenAI SDK message param
// slices. The system prompt is prepended as a system message if present.
func convertMessages(msgs []history.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	var result []openaisdk.ChatCompletionMessageParamUnion

	if systemPrompt != "" {
		result = append(result, openaisdk.SystemMessage(systemPrompt))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case history.RoleUser:
			result = append(result, openaisdk.UserMessage(msg.Content))
		case history.RoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		default:
			return nil, saucierr.Errorf(saucierr.CodeProviderRequestInvalid, "openai: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
