// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/saucier-dev/saucier/internal/agent"
	saucierr "github.com/saucier-dev/saucier/pkg/errors"
)

// maxUploadBytes caps audio uploads.
const maxUploadBytes = 25 << 20

// voiceResponse is the JSON body of both voice endpoints.
// TranscribedText is null when the input was typed text.
type voiceResponse struct {
	TranscribedText *string `json:"transcribed_text"`
	AIText          string  `json:"ai_text"`
	AudioURL        string  `json:"audio_url"`
	SessionID       string  `json:"session_id,omitempty"`
}

func (s *Server) registerVoiceRoutes() {
	s.router.Post("/llm/query", s.handleQuery)
	s.router.Post("/agent/chat/{session_id}", s.handleChat)

	// Register the operations in the OpenAPI spec manually. The multipart
	// upload handlers need raw form access, so they cannot use Huma's
	// standard handler signature. The chi routes above do the actual
	// request handling; these entries exist for documentation.
	s.api.OpenAPI().AddOperation(voiceOperation(
		"query",
		http.MethodPost,
		"/llm/query",
		"One-shot voice or text query",
		"Send audio or text and receive a spoken reply. No conversation state is kept.",
		false,
	))
	s.api.OpenAPI().AddOperation(voiceOperation(
		"agent-chat",
		http.MethodPost,
		"/agent/chat/{session_id}",
		"One turn of a voice chat session",
		"Send audio or text for a session. The exchange is appended to the session's history and prior turns inform the reply.",
		true,
	))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	in, err := parseVoiceInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.pipeline.Respond(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, res, "")
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	in, err := parseVoiceInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.pipeline.Chat(r.Context(), sessionID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeResult(w, res, sessionID)
}

// parseVoiceInput reads the optional text field and audio upload from a
// multipart or urlencoded form body.
func parseVoiceInput(w http.ResponseWriter, r *http.Request) (agent.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return agent.Input{}, saucierr.Wrap(err, saucierr.CodeServerRequestInvalid, "parsing form body")
	}

	in := agent.Input{Text: r.FormValue("text")}

	if r.MultipartForm != nil {
		file, _, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			audio, err := io.ReadAll(file)
			if err != nil {
				return agent.Input{}, saucierr.Wrap(err, saucierr.CodeServerRequestInvalid, "reading audio upload")
			}
			in.Audio = audio
		case errors.Is(err, http.ErrMissingFile):
			// text-only request
		default:
			return agent.Input{}, saucierr.Wrap(err, saucierr.CodeServerRequestInvalid, "reading audio upload")
		}
	}

	return in, nil
}

func (s *Server) writeResult(w http.ResponseWriter, res *agent.Result, sessionID string) {
	body := voiceResponse{
		AIText:    res.ReplyText,
		AudioURL:  res.AudioURL,
		SessionID: sessionID,
	}
	if res.TranscribedText != "" {
		body.TranscribedText = &res.TranscribedText
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

// writeError is the error boundary for the raw chi handlers: it maps the
// error code to an HTTP status, logs it, and renders {"detail": msg}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := saucierr.HTTPStatus(err)
	if status >= 500 {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}

// humaError adapts a coded error for huma-managed handlers.
func humaError(err error) error {
	return huma.NewError(saucierr.HTTPStatus(err), err.Error())
}

func voiceOperation(id, method, path, summary, description string, withSession bool) *huma.Operation {
	responseProps := map[string]*huma.Schema{
		"transcribed_text": {
			Type:        "string",
			Nullable:    true,
			Description: "What speech-to-text heard, null for typed input",
		},
		"ai_text": {
			Type:        "string",
			Description: "Assistant reply text",
		},
		"audio_url": {
			Type:        "string",
			Description: "URL of the synthesized reply audio",
		},
	}
	if withSession {
		responseProps["session_id"] = &huma.Schema{
			Type:        "string",
			Description: "Session the exchange was recorded under",
		}
	}

	return &huma.Operation{
		OperationID: id,
		Method:      method,
		Path:        path,
		Summary:     summary,
		Description: description,
		Tags:        []string{"agent"},
		RequestBody: &huma.RequestBody{
			Content: map[string]*huma.MediaType{
				"multipart/form-data": {
					Schema: &huma.Schema{
						Type: "object",
						Properties: map[string]*huma.Schema{
							"text": {
								Type:        "string",
								Description: "Typed user message, used when no audio is uploaded",
							},
							"file": {
								Type:            "string",
								ContentEncoding: "binary",
								Description:     "Recorded audio upload, takes precedence over text",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Spoken reply",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{
							Type:       "object",
							Properties: responseProps,
						},
					},
				},
			},
			"400": {Description: "Neither audio nor text was provided"},
			"502": {Description: "An upstream speech service failed"},
		},
	}
}
