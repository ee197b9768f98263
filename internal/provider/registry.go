// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package provider

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Registry manages generator registration and routes generation requests
// to the default provider with ordered failover. A provider that fails is
// put on cooldown by its health tracker and skipped until it recovers, so
// one flaky upstream does not add latency to every request.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator

	defaultRef string   // "provider/model" format
	failover   []string // ordered list of "provider/model" refs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator to the registry.
func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = g
}

// Get retrieves a generator by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[name]
	if !ok {
		return nil, saucierr.New(saucierr.CodeProviderNotFound,
			"no such provider registered", saucierr.FieldProvider(name))
	}
	return g, nil
}

// SetDefault sets the default "provider/model" ref.
func (r *Registry) SetDefault(ref string) error {
	if _, _, err := ParseModelRef(ref); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultRef = ref
	return nil
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
func (r *Registry) SetFailover(refs []string) error {
	for _, ref := range refs {
		if _, _, err := ParseModelRef(ref); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.failover = append([]string(nil), refs...)
	return nil
}

// Generate routes the request through the default ref and then the
// failover chain, skipping unregistered or unhealthy providers, and
// returns the first successful result. The request's Model field is
// overwritten from the routed ref.
func (r *Registry) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	r.mu.RLock()
	refs := make([]string, 0, 1+len(r.failover))
	if r.defaultRef != "" {
		refs = append(refs, r.defaultRef)
	}
	refs = append(refs, r.failover...)
	r.mu.RUnlock()

	if len(refs) == 0 {
		return "", saucierr.New(saucierr.CodeProviderNoDefault, "no default generation model configured")
	}

	var lastErr error
	for _, ref := range refs {
		provName, model, err := ParseModelRef(ref)
		if err != nil {
			return "", err
		}

		gen, err := r.Get(provName)
		if err != nil {
			lastErr = err
			continue
		}
		if !gen.Available(ctx) {
			slog.Debug("skipping unavailable provider", "provider", provName, "model", model)
			continue
		}

		req.Model = model
		text, err := gen.Generate(ctx, req)
		if err != nil {
			slog.Warn("generation attempt failed", "provider", provName, "model", model, "error", err)
			lastErr = err
			continue
		}
		return text, nil
	}

	if lastErr != nil {
		return "", saucierr.Wrap(lastErr, saucierr.CodeProviderAllUnavailable, "all generation providers failed")
	}
	return "", saucierr.New(saucierr.CodeProviderAllUnavailable, "no generation provider available")
}

// Close closes all registered generators.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, g := range r.generators {
		if err := g.Close(); err != nil {
			errs = append(errs, saucierr.Wrapf(err, saucierr.CodeProviderUpstreamFailure, "closing provider %s", name))
		}
	}
	if len(errs) > 0 {
		return saucierr.Join(errs...)
	}
	return nil
}

// ParseModelRef splits a "provider/model" ref into its parts.
func ParseModelRef(ref string) (provider, model string, err error) {
	idx := strings.Index(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", saucierr.Errorf(saucierr.CodeProviderInvalidModelRef,
			"model ref must be \"provider/model\", got %q", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}
