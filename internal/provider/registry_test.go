// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator is a scriptable Generator for registry tests.
type fakeGenerator struct {
	name      string
	available bool
	text      string
	err       error

	calls      int
	lastModel  string
	lastPrompt string
}

func (f *fakeGenerator) Name() string                            { return f.name }
func (f *fakeGenerator) Available(_ context.Context) bool        { return f.available }
func (f *fakeGenerator) Close() error                            { return nil }
func (f *fakeGenerator) Generate(_ context.Context, req provider.GenerateRequest) (string, error) {
	f.calls++
	f.lastModel = req.Model
	f.lastPrompt = req.SystemPrompt
	return f.text, f.err
}

func TestRegistryRoutesToDefault(t *testing.T) {
	reg := provider.NewRegistry()
	gen := &fakeGenerator{name: "google", available: true, text: "bon appetit"}
	reg.Register("google", gen)
	require.NoError(t, reg.SetDefault("google/gemini-2.0-flash"))

	text, err := reg.Generate(context.Background(), provider.GenerateRequest{
		SystemPrompt: "be helpful",
		Messages:     []history.Message{{Role: history.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "bon appetit", text)
	assert.Equal(t, "gemini-2.0-flash", gen.lastModel)
	assert.Equal(t, "be helpful", gen.lastPrompt)
}

func TestRegistryFailsOverInOrder(t *testing.T) {
	reg := provider.NewRegistry()
	primary := &fakeGenerator{name: "google", available: true, err: errors.New("quota exhausted")}
	secondary := &fakeGenerator{name: "openai", available: true, text: "from backup"}
	reg.Register("google", primary)
	reg.Register("openai", secondary)
	require.NoError(t, reg.SetDefault("google/gemini-2.0-flash"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1-mini"}))

	text, err := reg.Generate(context.Background(), provider.GenerateRequest{
		Messages: []history.Message{{Role: history.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "from backup", text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, "gpt-4.1-mini", secondary.lastModel)
}

func TestRegistrySkipsUnavailableProvider(t *testing.T) {
	reg := provider.NewRegistry()
	cold := &fakeGenerator{name: "google", available: false, text: "should not run"}
	warm := &fakeGenerator{name: "anthropic", available: true, text: "warm reply"}
	reg.Register("google", cold)
	reg.Register("anthropic", warm)
	require.NoError(t, reg.SetDefault("google/gemini-2.0-flash"))
	require.NoError(t, reg.SetFailover([]string{"anthropic/claude-haiku-4-5"}))

	text, err := reg.Generate(context.Background(), provider.GenerateRequest{
		Messages: []history.Message{{Role: history.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "warm reply", text)
	assert.Zero(t, cold.calls)
}

func TestRegistryAllProvidersFail(t *testing.T) {
	reg := provider.NewRegistry()
	reg.Register("google", &fakeGenerator{name: "google", available: true, err: errors.New("boom")})
	require.NoError(t, reg.SetDefault("google/gemini-2.0-flash"))

	_, err := reg.Generate(context.Background(), provider.GenerateRequest{
		Messages: []history.Message{{Role: history.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeProviderAllUnavailable))
	assert.Contains(t, err.Error(), "boom")
}

func TestRegistryNoDefaultConfigured(t *testing.T) {
	reg := provider.NewRegistry()
	_, err := reg.Generate(context.Background(), provider.GenerateRequest{})
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeProviderNoDefault))
}

func TestRegistryRejectsMalformedRefs(t *testing.T) {
	reg := provider.NewRegistry()
	assert.Error(t, reg.SetDefault("gemini-2.0-flash"))
	assert.Error(t, reg.SetDefault("google/"))
	assert.Error(t, reg.SetDefault("/model"))
	assert.Error(t, reg.SetFailover([]string{"openai/gpt-4.1-mini", "bad"}))
}

func TestParseModelRef(t *testing.T) {
	prov, model, err := provider.ParseModelRef("anthropic/claude-haiku-4-5")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", prov)
	assert.Equal(t, "claude-haiku-4-5", model)

	// Model names may themselves contain slashes.
	prov, model, err = provider.ParseModelRef("openai/org/model")
	require.NoError(t, err)
	assert.Equal(t, "openai", prov)
	assert.Equal(t, "org/model", model)
}

func TestRegistryGetUnknownProvider(t *testing.T) {
	reg := provider.NewRegistry()
	_, err := reg.Get("cohere")
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeProviderNotFound))
}
