// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps each session as an append-only row log, so concurrent
// sessions never contend on one document and appends to the same session
// serialize inside the database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and
// initialises the history table.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, saucierr.New(saucierr.CodeConfigValidateInvalidValue, "history: sqlite path must not be empty")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, saucierr.Wrapf(err, saucierr.CodeHistoryDatabaseFailure, "opening sqlite db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, saucierr.Wrapf(err, saucierr.CodeHistoryDatabaseFailure, "pinging sqlite db %s", dbPath)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, saucierr.Wrapf(err, saucierr.CodeHistoryDatabaseFailure, "migrating history table")
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS history_messages (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_messages_session ON history_messages(session_id, rowid);
`
	_, err := db.Exec(ddl)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if sessionID == "" {
		return saucierr.New(saucierr.CodeHistoryAppendInvalid, "history: session id must not be empty")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	const q = `INSERT INTO history_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		msg.ID,
		sessionID,
		string(msg.Role),
		msg.Content,
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return saucierr.Wrap(err, saucierr.CodeHistoryDatabaseFailure, "appending message",
			saucierr.FieldSessionID(sessionID))
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) ([]Message, error) {
	const q = `SELECT id, role, content, created_at FROM history_messages WHERE session_id = ? ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, saucierr.Wrap(err, saucierr.CodeHistoryDatabaseFailure, "loading session",
			saucierr.FieldSessionID(sessionID))
	}
	defer rows.Close()

	msgs := make([]Message, 0)
	for rows.Next() {
		var (
			msg     Message
			role    string
			created string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &created); err != nil {
			return nil, saucierr.Wrap(err, saucierr.CodeHistoryDatabaseFailure, "scanning message",
				saucierr.FieldSessionID(sessionID))
		}
		msg.Role = Role(role)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			msg.CreatedAt = ts
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, saucierr.Wrap(err, saucierr.CodeHistoryDatabaseFailure, "iterating session",
			saucierr.FieldSessionID(sessionID))
	}
	return msgs, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
