// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

// Package transcribe converts recorded audio to text through an
// asynchronous upload/submit/poll transcription service.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// JobStatus is the remote transcription job state.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// maxPollInterval caps the exponential backoff between status checks.
const maxPollInterval = 16 * time.Second

// Config holds transcription client configuration.
type Config struct {
	APIKey          string
	UploadURL       string
	TranscriptURL   string
	PollInterval    time.Duration
	PollDeadline    time.Duration
	MaxPollAttempts int

	// HTTPClient overrides the default client, useful for tests.
	HTTPClient *http.Client
}

// Client uploads audio and tracks transcription jobs.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. Returns an error if the API key or endpoints are missing.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, saucierr.New(saucierr.CodeConfigValidateInvalidValue, "transcribe: missing api key")
	}
	if cfg.UploadURL == "" || cfg.TranscriptURL == "" {
		return nil, saucierr.New(saucierr.CodeConfigValidateInvalidValue, "transcribe: upload and transcript endpoints are required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 2 * time.Minute
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 60
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{cfg: cfg, http: httpClient}, nil
}

// Transcribe uploads audio bytes, submits a transcription job, and polls
// until the job completes or fails. Polling is bounded by the configured
// deadline and attempt cap and honors context cancellation.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", saucierr.New(saucierr.CodeServerRequestInvalid, "transcribe: empty audio")
	}

	audioURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", err
	}

	jobID, err := c.submit(ctx, audioURL)
	if err != nil {
		return "", err
	}

	return c.poll(ctx, jobID)
}

func (c *Client) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, bytes.NewReader(audio))
	if err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeUploadFailure, "building upload request")
	}
	req.Header.Set("authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeUploadFailure, "uploading audio")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", saucierr.Errorf(saucierr.CodeTranscribeUploadFailure,
			"uploading audio: unexpected status %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	var body struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeUploadFailure, "decoding upload response")
	}
	if body.UploadURL == "" {
		return "", saucierr.New(saucierr.CodeTranscribeUploadFailure, "upload response missing upload_url")
	}

	return body.UploadURL, nil
}

func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeSubmitFailure, "encoding job request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TranscriptURL, bytes.NewReader(payload))
	if err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeSubmitFailure, "building job request")
	}
	req.Header.Set("authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeSubmitFailure, "submitting transcription job")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", saucierr.Errorf(saucierr.CodeTranscribeSubmitFailure,
			"submitting transcription job: unexpected status %d: %s", resp.StatusCode, readBody(resp.Body))
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", saucierr.Wrapf(err, saucierr.CodeTranscribeSubmitFailure, "decoding job response")
	}
	if body.ID == "" {
		return "", saucierr.New(saucierr.CodeTranscribeSubmitFailure, "job response missing id")
	}

	return body.ID, nil
}

// poll checks the job status with exponential backoff until it reaches a
// terminal state, the attempt cap is hit, or the deadline expires.
func (c *Client) poll(ctx context.Context, jobID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PollDeadline)
	defer cancel()

	interval := c.cfg.PollInterval
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		status, text, jobErr, err := c.checkJob(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch status {
		case StatusCompleted:
			return text, nil
		case StatusError:
			return "", saucierr.New(saucierr.CodeTranscribeJobFailed,
				fmt.Sprintf("transcription job failed: %s", jobErr),
				saucierr.FieldJobID(jobID))
		case StatusQueued, StatusProcessing:
			slog.Debug("transcription job pending", "job_id", jobID, "status", status, "attempt", attempt)
		default:
			return "", saucierr.Errorf(saucierr.CodeTranscribeResponseInvalid,
				"transcription job %s reported unknown status %q", jobID, status)
		}

		select {
		case <-ctx.Done():
			return "", saucierr.Wrap(ctx.Err(), saucierr.CodeTranscribePollTimeout,
				"gave up waiting for transcription job", saucierr.FieldJobID(jobID))
		case <-time.After(interval):
		}

		interval *= 2
		if interval > maxPollInterval {
			interval = maxPollInterval
		}
	}

	return "", saucierr.Errorf(saucierr.CodeTranscribePollTimeout,
		"transcription job %s still pending after %d attempts", jobID, c.cfg.MaxPollAttempts)
}

func (c *Client) checkJob(ctx context.Context, jobID string) (JobStatus, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.TranscriptURL+"/"+jobID, nil)
	if err != nil {
		return "", "", "", saucierr.Wrapf(err, saucierr.CodeTranscribeSubmitFailure, "building status request")
	}
	req.Header.Set("authorization", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", "", saucierr.Wrapf(err, saucierr.CodeTranscribeSubmitFailure, "checking job %s", jobID)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", "", saucierr.Errorf(saucierr.CodeTranscribeSubmitFailure,
			"checking job %s: unexpected status %d: %s", jobID, resp.StatusCode, readBody(resp.Body))
	}

	var body struct {
		Status JobStatus `json:"status"`
		Text   string    `json:"text"`
		Error  string    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", "", saucierr.Wrapf(err, saucierr.CodeTranscribeResponseInvalid, "decoding job %s status", jobID)
	}

	return body.Status, body.Text, body.Error, nil
}

// readBody returns up to 1 KiB of a response body for error detail.
func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	return string(b)
}
