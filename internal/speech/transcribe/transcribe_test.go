// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package transcribe_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucier-dev/saucier/internal/speech/transcribe"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// fakeService mimics the upload/submit/poll protocol. Each status check
// pops the next entry from statuses; the last entry repeats.
type fakeService struct {
	statuses   []map[string]any
	polls      atomic.Int64
	uploadCode int
	submitCode int
}

func (f *fakeService) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			if f.uploadCode != 0 {
				http.Error(w, "upload rejected", f.uploadCode)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio/1"})
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			if f.submitCode != 0 {
				http.Error(w, "submit rejected", f.submitCode)
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["audio_url"] == "" {
				http.Error(w, "missing audio_url", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-42"})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/transcript/"):
			n := int(f.polls.Add(1)) - 1
			if n >= len(f.statuses) {
				n = len(f.statuses) - 1
			}
			_ = json.NewEncoder(w).Encode(f.statuses[n])
		default:
			http.NotFound(w, r)
		}
	}
}

func newClient(t *testing.T, svc *fakeService) *transcribe.Client {
	t.Helper()
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	c, err := transcribe.New(transcribe.Config{
		APIKey:          "test-key",
		UploadURL:       srv.URL + "/upload",
		TranscriptURL:   srv.URL + "/transcript",
		PollInterval:    5 * time.Millisecond,
		PollDeadline:    time.Second,
		MaxPollAttempts: 10,
		HTTPClient:      srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestTranscribeCompletes(t *testing.T) {
	svc := &fakeService{statuses: []map[string]any{
		{"status": "queued"},
		{"status": "processing"},
		{"status": "completed", "text": "how do I make a roux"},
	}}

	c := newClient(t, svc)
	text, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	require.NoError(t, err)
	assert.Equal(t, "how do I make a roux", text)
	assert.Equal(t, int64(3), svc.polls.Load())
}

func TestTranscribeJobError(t *testing.T) {
	svc := &fakeService{statuses: []map[string]any{
		{"status": "error", "error": "audio format not supported"},
	}}

	c := newClient(t, svc)
	_, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeTranscribeJobFailed))
	assert.Contains(t, err.Error(), "audio format not supported")
}

func TestTranscribeAttemptCap(t *testing.T) {
	svc := &fakeService{statuses: []map[string]any{
		{"status": "processing"},
	}}

	c := newClient(t, svc)
	_, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeTranscribePollTimeout))
	assert.Equal(t, int64(10), svc.polls.Load())
}

func TestTranscribeContextCancel(t *testing.T) {
	svc := &fakeService{statuses: []map[string]any{
		{"status": "processing"},
	}}
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)

	c, err := transcribe.New(transcribe.Config{
		APIKey:          "test-key",
		UploadURL:       srv.URL + "/upload",
		TranscriptURL:   srv.URL + "/transcript",
		PollInterval:    10 * time.Second,
		PollDeadline:    time.Minute,
		MaxPollAttempts: 10,
		HTTPClient:      srv.Client(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = c.Transcribe(ctx, []byte("fake-audio"))
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeTranscribePollTimeout))
	assert.Less(t, time.Since(start), time.Second, "cancel should interrupt the poll wait")
}

func TestTranscribeUploadFailure(t *testing.T) {
	svc := &fakeService{uploadCode: http.StatusServiceUnavailable}

	c := newClient(t, svc)
	_, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeTranscribeUploadFailure))
	assert.Contains(t, err.Error(), "503")
}

func TestTranscribeSubmitFailure(t *testing.T) {
	svc := &fakeService{submitCode: http.StatusTooManyRequests}

	c := newClient(t, svc)
	_, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeTranscribeSubmitFailure))
}

func TestTranscribeEmptyAudio(t *testing.T) {
	svc := &fakeService{}

	c := newClient(t, svc)
	_, err := c.Transcribe(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, saucierr.IsInvalidInput(err))
}

func TestNewValidation(t *testing.T) {
	_, err := transcribe.New(transcribe.Config{UploadURL: "https://x", TranscriptURL: "https://y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")

	_, err = transcribe.New(transcribe.Config{APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints")
}

func TestTranscribeUnknownStatus(t *testing.T) {
	svc := &fakeService{statuses: []map[string]any{
		{"status": "paused"},
	}}

	c := newClient(t, svc)
	_, err := c.Transcribe(context.Background(), []byte("fake-audio"))
	require.Error(t, err)
	assert.True(t, saucierr.HasCode(err, saucierr.CodeTranscribeResponseInvalid))
	assert.Contains(t, fmt.Sprint(err), "paused")
}
