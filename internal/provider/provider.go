// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package provider

import (
	"context"

	"github.com/saucier-dev/saucier/internal/history"
)

// Generator is the core interface for text-generation providers.
type Generator interface {
	Name() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Close() error
}

// GenerateRequest is a single non-streaming generation call. Messages carry
// the conversation in order; the last entry is the current user utterance.
type GenerateRequest struct {
	Model        string
	SystemPrompt string
	Messages     []history.Message
	MaxTokens    int
}
