// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

// Package agent sequences the voice pipeline: speech-to-text, reply
// generation, text-to-speech, optionally threaded through per-session
// conversation history.
package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/saucier-dev/saucier/internal/history"
	"github.com/saucier-dev/saucier/internal/provider"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Generator produces a reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, req provider.GenerateRequest) (string, error)
}

// Synthesizer converts reply text to a hosted audio URL.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Outcome classifies how a pipeline run finished. Fatal failures are
// reported as errors instead.
type Outcome int

const (
	// OutcomeOK means every stage succeeded.
	OutcomeOK Outcome = iota
	// OutcomeDegraded means transcription or generation failed and the
	// reply is the fixed fallback phrase, spoken normally.
	OutcomeDegraded
)

// Input is one user turn: either typed text or recorded audio. Audio
// takes precedence when both are present.
type Input struct {
	Text  string
	Audio []byte
}

// Result is a completed pipeline run.
type Result struct {
	// TranscribedText is what speech-to-text heard, empty for typed input.
	TranscribedText string
	ReplyText       string
	AudioURL        string
	Outcome         Outcome
}

// Pipeline runs the transcribe, generate, synthesize sequence.
type Pipeline struct {
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	store       history.Store
}

// NewPipeline assembles a pipeline. The history store is only used by
// Chat; Respond never touches it.
func NewPipeline(t Transcriber, g Generator, s Synthesizer, store history.Store) *Pipeline {
	return &Pipeline{transcriber: t, generator: g, synthesizer: s, store: store}
}

// Respond handles one stateless turn: no history is read or written.
func (p *Pipeline) Respond(ctx context.Context, in Input) (*Result, error) {
	return p.run(ctx, "", in)
}

// Chat handles one turn of a session. The user message is persisted
// before generation and the assistant reply after, so a crash between
// the two never loses the user's side of the exchange.
func (p *Pipeline) Chat(ctx context.Context, sessionID string, in Input) (*Result, error) {
	if sessionID == "" {
		return nil, saucierr.New(saucierr.CodeServerRequestInvalid, "missing session id")
	}
	return p.run(ctx, sessionID, in)
}

func (p *Pipeline) run(ctx context.Context, sessionID string, in Input) (*Result, error) {
	res := &Result{}

	userText, err := p.resolveUserText(ctx, res, in)
	if err != nil {
		return nil, err
	}

	if res.Outcome == OutcomeDegraded {
		// Transcription failed softly. There is no user text to record
		// or to generate from, so speak the fallback and stop there.
		res.ReplyText = FallbackReply
	} else {
		res.ReplyText = p.generateReply(ctx, res, sessionID, userText)
	}

	audioURL, err := p.synthesizer.Synthesize(ctx, res.ReplyText)
	if err != nil {
		return nil, err
	}
	res.AudioURL = audioURL

	return res, nil
}

// resolveUserText picks the user's utterance from audio or text. Upload
// and submit failures degrade the run; a failed or timed-out
// transcription job is fatal.
func (p *Pipeline) resolveUserText(ctx context.Context, res *Result, in Input) (string, error) {
	if len(in.Audio) > 0 {
		text, err := p.transcriber.Transcribe(ctx, in.Audio)
		switch {
		case err == nil:
			res.TranscribedText = text
			return text, nil
		case saucierr.HasCode(err, saucierr.CodeTranscribeJobFailed),
			saucierr.HasCode(err, saucierr.CodeTranscribePollTimeout):
			return "", err
		default:
			slog.Warn("transcription degraded to fallback", "error", err)
			res.Outcome = OutcomeDegraded
			return "", nil
		}
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return "", saucierr.New(saucierr.CodeServerRequestInvalid, "request carries neither audio nor text")
	}
	return text, nil
}

// generateReply produces the assistant text, threading session history
// when a session id is present. Generation failures degrade to the
// fallback phrase; the degraded reply is still persisted so the session
// transcript reflects what the user actually heard.
func (p *Pipeline) generateReply(ctx context.Context, res *Result, sessionID, userText string) string {
	var messages []history.Message
	if sessionID != "" {
		prior, err := p.store.Get(ctx, sessionID)
		if err != nil {
			slog.Warn("loading session history failed, continuing without it", "session_id", sessionID, "error", err)
		} else {
			messages = prior
		}
	}

	userMsg := history.NewMessage(history.RoleUser, userText)
	messages = append(messages, userMsg)

	if sessionID != "" {
		if err := p.store.Append(ctx, sessionID, userMsg); err != nil {
			slog.Warn("persisting user message failed", "session_id", sessionID, "error", err)
		}
	}

	reply, err := p.generator.Generate(ctx, provider.GenerateRequest{
		SystemPrompt: PersonaPrompt,
		Messages:     messages,
	})
	if err != nil {
		slog.Warn("generation degraded to fallback", "error", err)
		res.Outcome = OutcomeDegraded
		reply = FallbackReply
	}

	if sessionID != "" {
		if err := p.store.Append(ctx, sessionID, history.NewMessage(history.RoleAssistant, reply)); err != nil {
			slog.Warn("persisting assistant message failed", "session_id", sessionID, "error", err)
		}
	}

	return reply
}
