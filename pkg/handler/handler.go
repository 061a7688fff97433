package handler

import (
	"codegen-relay/pkg/db"
	"codegen-relay/pkg/logx"
	"codegen-relay/pkg/metrics"
	"codegen-relay/pkg/relay"
	"codegen-relay/pkg/types"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgNoPrompt          = "No prompt provided"
	msgMissingCredential = "API key is missing. Set it in the .env file."
	msgInvalidBody       = "Invalid request body"
	msgUpstreamFailed    = "Upstream request failed"
)

// Generator is the part of the relay the handler needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (relay.Result, error)
	Variant() relay.Variant
}

type GenerateServer struct {
	Relay   Generator
	Repo    db.Repository
	Metrics *metrics.Metrics
	// LegacyErrors embeds upstream failures as "Error: <status>, <body>" in a
	// 200 code field instead of answering 502.
	LegacyErrors bool

	pending sync.WaitGroup
}

func NewGenerateServer(r Generator, repo db.Repository, m *metrics.Metrics, legacyErrors bool) *GenerateServer {
	if repo == nil {
		repo = db.NopRepository{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &GenerateServer{Relay: r, Repo: repo, Metrics: m, LegacyErrors: legacyErrors}
}

// HomeHandler answers with the variant's welcome banner. It never depends on
// the upstream credential.
func (s *GenerateServer) HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.Relay.Variant().Banner))
}

func (s *GenerateServer) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	variant := s.Relay.Variant()
	entry := db.GenerationLog{
		RequestID: middleware.GetReqID(r.Context()),
		Variant:   variant.Name,
		Model:     variant.Model,
	}
	log := logx.Log.With().Str("request_id", entry.RequestID).Str("variant", variant.Name).Logger()

	// 1. Decode Request
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("generate handler: decode request body error")
		s.finish(w, entry, "invalid_request", http.StatusBadRequest, errorBody(msgInvalidBody, 0))
		return
	}

	// 2. Relay
	res, err := s.Relay.Generate(r.Context(), req.Prompt)
	entry.DurationMS = res.Duration.Milliseconds()
	switch {
	case errors.Is(err, relay.ErrInvalidRequest):
		s.finish(w, entry, "invalid_request", http.StatusBadRequest, errorBody(msgNoPrompt, 0))
		return
	case errors.Is(err, relay.ErrMissingCredential):
		log.Error().Err(err).Msg("generate handler: configuration error")
		s.finish(w, entry, "missing_credential", http.StatusInternalServerError, errorBody(msgMissingCredential, 0))
		return
	case err != nil:
		log.Error().Err(err).Msg("generate handler: upstream request failed")
		s.Metrics.RecordUpstream(variant.Name, res.Duration, 0, 0)
		s.finish(w, entry, "transport_error", http.StatusBadGateway, errorBody(msgUpstreamFailed, 0))
		return
	}

	s.Metrics.RecordUpstream(variant.Name, res.Duration, res.Usage.PromptTokens, res.Usage.CompletionTokens)
	entry.PromptTokens = res.Usage.PromptTokens
	entry.CompletionTokens = res.Usage.CompletionTokens

	// 3. Respond
	if res.Outcome == relay.OutcomeUpstreamError {
		entry.UpstreamStatus = res.Upstream.StatusCode
		log.Warn().Int("upstream_status", res.Upstream.StatusCode).Bool("malformed", res.Upstream.Malformed).
			Msg("generate handler: upstream returned an unusable response")
		if s.LegacyErrors {
			s.finish(w, entry, res.Outcome.String(), http.StatusOK, codeBody(res.Upstream.LegacyText()))
			return
		}
		s.finish(w, entry, res.Outcome.String(), http.StatusBadGateway, errorBody(res.Upstream.LegacyText(), res.Upstream.StatusCode))
		return
	}

	entry.UpstreamStatus = http.StatusOK
	s.finish(w, entry, res.Outcome.String(), http.StatusOK, codeBody(res.Code))
}

// finish writes the JSON reply, counts it and hands the log entry to the
// repository in the background.
func (s *GenerateServer) finish(w http.ResponseWriter, entry db.GenerationLog, outcome string, status int, body any) {
	writeJSON(w, status, body)
	s.Metrics.RecordRequest(entry.Variant, outcome)

	if _, ok := s.Repo.(db.NopRepository); ok {
		return
	}
	entry.Outcome = outcome
	entry.StatusCode = status
	s.pending.Add(1)
	go func(entry db.GenerationLog) {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Repo.InsertGenerationLog(ctx, entry); err != nil {
			logx.Log.Error().Err(err).Str("request_id", entry.RequestID).Msg("generate handler: insert generation log error")
		}
	}(entry)
}

// Wait blocks until every background log insert has finished.
func (s *GenerateServer) Wait() {
	s.pending.Wait()
}

// HealthHandler is a liveness probe.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
