// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package openai

import (
	openaisdk "github.com/openai/openai-go"

	"github.com/saucier-dev/saucier/internal/history"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = func(msgs []history.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	return convertMessages(msgs, systemPrompt)
}
