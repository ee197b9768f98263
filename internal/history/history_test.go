// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package history_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saucier-dev/saucier/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStores returns a fresh store of each backend, keyed by backend name.
func newStores(t *testing.T) map[string]history.Store {
	t.Helper()
	dir := t.TempDir()

	jf, err := history.NewJSONFileStore(filepath.Join(dir, "history.json"))
	require.NoError(t, err)

	sq, err := history.NewSQLiteStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]history.Store{"jsonfile": jf, "sqlite": sq}
}

func msg(role history.Role, content string) history.Message {
	return history.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestGetUnknownSessionIsEmpty(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			msgs, err := store.Get(context.Background(), "never-seen")
			require.NoError(t, err)
			assert.Empty(t, msgs)
			assert.NotNil(t, msgs)
		})
	}
}

func TestAppendThenGet(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Append(ctx, "s1", msg(history.RoleUser, "hello")))
			require.NoError(t, store.Append(ctx, "s1", msg(history.RoleAssistant, "hi there")))
			require.NoError(t, store.Append(ctx, "s2", msg(history.RoleUser, "other session")))

			msgs, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, history.RoleUser, msgs[0].Role)
			assert.Equal(t, "hello", msgs[0].Content)
			assert.Equal(t, history.RoleAssistant, msgs[1].Role)
			assert.Equal(t, "hi there", msgs[1].Content)

			other, err := store.Get(ctx, "s2")
			require.NoError(t, err)
			require.Len(t, other, 1)
		})
	}
}

func TestAppendRejectsInvalidMessages(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.Error(t, store.Append(ctx, "", msg(history.RoleUser, "x")))
			assert.Error(t, store.Append(ctx, "s1", history.Message{Role: "narrator", Content: "x"}))
			assert.Error(t, store.Append(ctx, "s1", history.Message{Role: history.RoleUser}))
		})
	}
}

// Property 2: a reload from persisted storage yields the same sequence.
func TestJSONFileSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := history.NewJSONFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s1", msg(history.RoleUser, "what's for dinner?")))
	require.NoError(t, store.Append(ctx, "s1", msg(history.RoleAssistant, "pasta, obviously")))

	reloaded, err := history.NewJSONFileStore(path)
	require.NoError(t, err)

	msgs, err := reloaded.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "what's for dinner?", msgs[0].Content)
	assert.Equal(t, "pasta, obviously", msgs[1].Content)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := history.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s1", msg(history.RoleUser, "hello")))
	require.NoError(t, store.Close())

	reopened, err := history.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	msgs, err := reopened.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

// Concurrent appends to the same session must all survive: the store
// serializes read-modify-write instead of letting requests race.
func TestConcurrentAppendsAllSurvive(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const n = 20

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, store.Append(ctx, "shared", msg(history.RoleUser, fmt.Sprintf("msg-%d", i))))
				}(i)
			}
			wg.Wait()

			msgs, err := store.Get(ctx, "shared")
			require.NoError(t, err)
			assert.Len(t, msgs, n)
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, err := history.NewJSONFileStore(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, "s1", msg(history.RoleUser, "original")))

	msgs, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	msgs[0].Content = "mutated"

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	jf, err := history.Open("jsonfile", filepath.Join(dir, "h.json"))
	require.NoError(t, err)
	assert.IsType(t, (*history.JSONFileStore)(nil), jf)

	sq, err := history.Open("sqlite", filepath.Join(dir, "h.db"))
	require.NoError(t, err)
	assert.IsType(t, (*history.SQLiteStore)(nil), sq)
	_ = sq.Close()

	_, err = history.Open("redis", "")
	assert.Error(t, err)
}
