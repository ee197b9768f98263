// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

// Package synth turns reply text into hosted audio through a speech
// synthesis service whose API has shipped under several request shapes.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// DefaultVoice is used when no voice is configured.
const DefaultVoice = "en-IN-aarav"

// requestShape names one of the payload/auth variants the synthesis API
// has accepted across versions. They are tried in order until one
// returns 2xx.
type requestShape int

const (
	// Bearer token with a "voice" body field.
	shapeBearerVoice requestShape = iota
	// Bearer token with a "voiceId" body field.
	shapeBearerVoiceID
	// "api-key" header with a "voiceId" body field.
	shapeAPIKeyVoiceID
	shapeCount
)

func (s requestShape) String() string {
	switch s {
	case shapeBearerVoice:
		return "bearer+voice"
	case shapeBearerVoiceID:
		return "bearer+voiceId"
	case shapeAPIKeyVoiceID:
		return "api-key+voiceId"
	}
	return "unknown"
}

// Config holds synthesis client configuration.
type Config struct {
	APIKey     string
	Endpoint   string
	Voice      string
	Format     string
	SampleRate int

	// HTTPClient overrides the default client, useful for tests.
	HTTPClient *http.Client
}

// Client synthesizes speech, remembering which request shape the
// configured endpoint last accepted.
type Client struct {
	cfg  Config
	http *http.Client

	mu    sync.Mutex
	known requestShape
	found bool
}

// New creates a Client. Returns an error if the API key or endpoint is missing.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, saucierr.New(saucierr.CodeConfigValidateInvalidValue, "synth: missing api key")
	}
	if cfg.Endpoint == "" {
		return nil, saucierr.New(saucierr.CodeConfigValidateInvalidValue, "synth: missing endpoint")
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{cfg: cfg, http: httpClient}, nil
}

// Synthesize converts text to speech and returns the URL of the
// generated audio file. A cached working request shape is tried first;
// otherwise the shapes are tried in order and the winner is cached.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", saucierr.New(saucierr.CodeSynthRequestInvalid, "synth: empty text")
	}

	var lastStatus int
	var lastBody string
	for _, shape := range c.shapeOrder() {
		url, status, body, err := c.attempt(ctx, shape, text)
		if err != nil {
			return "", err
		}
		if status >= 200 && status <= 299 {
			if url == "" {
				return "", saucierr.New(saucierr.CodeSynthAudioMissing,
					"synthesis response missing audioFile", saucierr.FieldVoice(c.cfg.Voice))
			}
			c.remember(shape)
			return url, nil
		}
		slog.Debug("synthesis request shape rejected", "shape", shape.String(), "status", status)
		lastStatus = status
		lastBody = body
	}

	return "", saucierr.Errorf(saucierr.CodeSynthExhausted,
		"all synthesis request shapes failed, last status %d: %s", lastStatus, lastBody)
}

// shapeOrder returns the shapes to try, cached winner first.
func (c *Client) shapeOrder() []requestShape {
	c.mu.Lock()
	defer c.mu.Unlock()

	order := make([]requestShape, 0, shapeCount)
	if c.found {
		order = append(order, c.known)
	}
	for s := requestShape(0); s < shapeCount; s++ {
		if c.found && s == c.known {
			continue
		}
		order = append(order, s)
	}
	return order
}

func (c *Client) remember(shape requestShape) {
	c.mu.Lock()
	c.known = shape
	c.found = true
	c.mu.Unlock()
}

// attempt sends one request in the given shape. A non-nil error means the
// attempt could not be made or read at all; HTTP rejection is reported
// through the status code instead so the caller can try the next shape.
func (c *Client) attempt(ctx context.Context, shape requestShape, text string) (url string, status int, body string, err error) {
	payload := map[string]any{
		"text":       text,
		"format":     c.cfg.Format,
		"sampleRate": c.cfg.SampleRate,
	}
	switch shape {
	case shapeBearerVoice:
		payload["voice"] = c.cfg.Voice
	default:
		payload["voiceId"] = c.cfg.Voice
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", 0, "", saucierr.Wrapf(err, saucierr.CodeSynthRequestInvalid, "encoding synthesis request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", 0, "", saucierr.Wrapf(err, saucierr.CodeSynthRequestInvalid, "building synthesis request")
	}
	req.Header.Set("Content-Type", "application/json")
	if shape == shapeAPIKeyVoiceID {
		req.Header.Set("api-key", c.cfg.APIKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, "", saucierr.Wrapf(err, saucierr.CodeSynthExhausted, "calling synthesis endpoint")
	}
	defer resp.Body.Close()

	rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, string(rawBody), nil
	}

	var parsed struct {
		AudioFile string `json:"audioFile"`
	}
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return "", 0, "", saucierr.Wrapf(err, saucierr.CodeSynthAudioMissing, "decoding synthesis response")
	}

	return parsed.AudioFile, resp.StatusCode, string(rawBody), nil
}
