// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package anthropic

import (
	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
)

// ConvertMessages exposes convertMessages for white-box testing.
var ConvertMessages = func(msgs []history.Message) ([]anthropicsdk.MessageParam, error) {
	return convertMessages(msgs)
}

// BuildParams exposes buildParams for white-box testing.
var BuildParams = func(req provider.GenerateRequest) (anthropicsdk.MessageNewParams, error) {
	return buildParams(req)
}
