// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// defaultMaxTokens bounds responses when the request does not set a limit;
// the Anthropic Messages API requires max_tokens.
const defaultMaxTokens = 1024

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Generator implements provider.Generator using the Anthropic Messages API.
type Generator struct {
	client anthropicsdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new Anthropic generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, saucierr.New(saucierr.CodeProviderRequestInvalid, "anthropic: missing api_key in config", saucierr.FieldProvider("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeProviderRequestInvalid, "anthropic: creating health tracker")
	}

	return &Generator{
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		health: health,
	}, nil
}

func (g *Generator) Name() string { return "anthropic" }

func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

func (g *Generator) Close() error { return nil }

// Generate runs a single non-streaming messages call and returns the
// concatenated text blocks with surrounding whitespace removed.
func (g *Generator) Generate(ctx context.Context, req provider.GenerateRequest) (string, error) {
	params, err := buildParams(req)
	if err != nil {
		return "", err
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		g.health.RecordFailure()
		return "", saucierr.Wrapf(err, saucierr.CodeProviderUpstreamFailure, "anthropic: creating message with %s", req.Model)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		g.health.RecordFailure()
		return "", saucierr.New(saucierr.CodeProviderResponseInvalid, "anthropic: response has no text blocks", saucierr.FieldProvider("anthropic"))
	}

	g.health.RecordSuccess()
	return text, nil
}

// buildParams converts a provider.GenerateRequest into Anthropic SDK MessageNewParams.
func buildParams(req provider.GenerateRequest) (anthropicsdk.MessageNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, err
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	return params, nil
}

// convertMessages transforms history messages into Anthropic SDK message params.
func convertMessages(msgs []history.Message) ([]anthropicsdk.MessageParam, error) {
	var result []anthropicsdk.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case history.RoleUser:
			result = append(result, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case history.RoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		default:
			return nil, saucierr.Errorf(saucierr.CodeProviderRequestInvalid, "anthropic: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
