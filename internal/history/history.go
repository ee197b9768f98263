// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

// Package history stores per-session conversation transcripts.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Messages are immutable once appended;
// ordering within a session is conversation order.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// NewMessage builds a message with a fresh id and timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks that a message can be appended.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return saucierr.Errorf(saucierr.CodeHistoryAppendInvalid, "history: unknown role %q", m.Role)
	}
	if m.Content == "" {
		return saucierr.New(saucierr.CodeHistoryAppendInvalid, "history: content must not be empty")
	}
	return nil
}

// Store persists session transcripts. Sessions are created implicitly on
// first append and never deleted.
type Store interface {
	// Append adds a message to the session's transcript, creating the
	// session if it does not exist, and durably persists the change
	// before returning.
	Append(ctx context.Context, sessionID string, msg Message) error

	// Get returns the session's messages in order. Unknown sessions yield
	// an empty slice, never an error.
	Get(ctx context.Context, sessionID string) ([]Message, error)

	Close() error
}

// Open creates a Store for the configured backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "jsonfile":
		return NewJSONFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, saucierr.Errorf(saucierr.CodeHistoryBackendUnsupported,
			"history: unsupported storage backend %q", backend)
	}
}
