// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package google

import (
	"google.golang.org/genai"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = func(msgs []history.Message) ([]*genai.Content, error) {
	return convertMessages(msgs)
}

// BuildConfig exposes buildConfig for white-box testing.
var BuildConfig = func(req provider.GenerateRequest) *genai.GenerateContentConfig {
	return buildConfig(req)
}
