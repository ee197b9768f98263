// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Saucier Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/saucier-dev/saucier/internal/history"
)

// RegisterServices sets the pipeline and history store and registers the
// REST routes that depend on them.
func (s *Server) RegisterServices(pipeline VoicePipeline, store history.Store) {
	s.pipeline = pipeline
	s.store = store
	s.registerRoutes()
	s.registerVoiceRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-session-history",
		Method:      http.MethodGet,
		Path:        "/agent/history/{session_id}",
		Summary:     "Get a session's conversation history",
		Tags:        []string{"agent"},
	}, s.handleGetHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "service-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Service status",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

type getHistoryInput struct {
	SessionID string `path:"session_id"`
}

type getHistoryOutput struct {
	Body struct {
		SessionID string            `json:"session_id"`
		Messages  []history.Message `json:"messages"`
	}
}

func (s *Server) handleGetHistory(ctx context.Context, in *getHistoryInput) (*getHistoryOutput, error) {
	msgs, err := s.store.Get(ctx, in.SessionID)
	if err != nil {
		return nil, humaError(err)
	}

	out := &getHistoryOutput{}
	out.Body.SessionID = in.SessionID
	out.Body.Messages = msgs
	return out, nil
}

type statusOutput struct {
	Body struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "ok"
	out.Body.Service = "saucier"
	out.Body.Version = "0.1.0"
	return out, nil
}
