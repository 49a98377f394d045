package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/internal/logging"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/parser"
	"github.com/aretw0/scribe/pkg/runner"
)

// maxBodyBytes bounds request bodies; instructions themselves are limited by the sanitizer.
const maxBodyBytes = 64 << 10

// Assistant is the conversational core served over HTTP.
type Assistant interface {
	Chat(ctx context.Context, sessionID, input string) (scribe.Reply, error)
	Parse(ctx context.Context, input string) (parser.Interpretation, error)
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	State(ctx context.Context, sessionID string) (*domain.ConversationState, error)
	Reset(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
}

// Server exposes an Assistant as a JSON API.
type Server struct {
	Assistant Assistant
	Streams   *StreamManager
	Logger    *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// NewHandler creates a new HTTP handler for the assistant.
func NewHandler(a Assistant, opts ...Option) http.Handler {
	s := &Server{
		Assistant: a,
		Streams:   NewStreamManager(),
		Logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/parse", s.Parse)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Post("/chat", s.Chat)
			r.Get("/state", s.GetState)
			r.Get("/state/{key}", s.GetStateKey)
			r.Put("/state/{key}", s.SetStateKey)
			r.Delete("/", s.DeleteSession)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ChatRequest is the body of POST /sessions/{id}/chat.
type ChatRequest struct {
	Input string `json:"input"`
}

// CommandOutcome reports one executed command.
type CommandOutcome struct {
	Action  domain.Action `json:"action"`
	Target  string        `json:"target,omitempty"`
	Message string        `json:"message"`
	Error   string        `json:"error,omitempty"`
	PageID  string        `json:"page_id,omitempty"`
}

// ChatResponse is the reply to one turn.
type ChatResponse struct {
	SessionID string           `json:"session_id"`
	Content   string           `json:"content"`
	Phase     domain.Phase     `json:"phase"`
	Results   []CommandOutcome `json:"results,omitempty"`
	Pending   []domain.Command `json:"pending,omitempty"`
}

// Chat handles POST /sessions/{sessionID}/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var body ChatRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, "Chat: invalid request body", http.StatusBadRequest, err)
		return
	}

	before, err := s.Assistant.State(r.Context(), sessionID)
	if err != nil {
		s.fail(w, "Chat: state lookup failed", statusFor(err), err)
		return
	}

	reply, err := s.Assistant.Chat(r.Context(), sessionID, body.Input)
	if err != nil {
		s.fail(w, "Chat failed", statusFor(err), err)
		return
	}

	if after, err := s.Assistant.State(r.Context(), sessionID); err == nil {
		s.broadcastDiff(before, after)
	}

	resp := ChatResponse{
		SessionID: sessionID,
		Content:   reply.Content,
		Phase:     reply.Phase,
		Pending:   reply.Pending,
	}
	for _, res := range reply.Results {
		out := CommandOutcome{
			Action:  res.Command.Action,
			Target:  res.Command.PrimaryTarget,
			Message: res.Message,
			PageID:  res.PageID,
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		resp.Results = append(resp.Results, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) broadcastDiff(before, after *domain.ConversationState) {
	diff := domain.Diff(before, after)
	if diff == nil {
		s.Logger.Debug("Chat: No diff calculated", "session_id", after.SessionID)
		return
	}
	if raw, err := json.Marshal(diff); err == nil {
		s.Streams.Broadcast(after.SessionID, string(raw))
	}
}

// ParseResponse is the reading of one instruction without executing it.
type ParseResponse struct {
	Tier     domain.Source    `json:"tier"`
	Split    bool             `json:"split"`
	Declined bool             `json:"declined"`
	Commands []domain.Command `json:"commands"`
}

// Parse handles POST /parse.
func (s *Server) Parse(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, "Parse: invalid request body", http.StatusBadRequest, err)
		return
	}
	it, err := s.Assistant.Parse(r.Context(), body.Input)
	if err != nil {
		s.fail(w, "Parse failed", statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{
		Tier:     it.Tier,
		Split:    it.Split,
		Declined: it.Declined,
		Commands: it.Commands,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Assistant.Sessions(r.Context())
	if err != nil {
		s.fail(w, "List sessions failed", http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetState handles GET /sessions/{sessionID}/state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := s.Assistant.State(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "Get state failed", statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// StateValue is the body and response of the single-key state endpoints.
type StateValue struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

// GetStateKey handles GET /sessions/{sessionID}/state/{key}.
func (s *Server) GetStateKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, err := s.Assistant.Get(r.Context(), chi.URLParam(r, "sessionID"), key)
	if err != nil {
		s.fail(w, "Get state key failed", statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, StateValue{Key: key, Value: v})
}

// SetStateKey handles PUT /sessions/{sessionID}/state/{key}.
// The value may be sent as any JSON scalar: {"value": false} and {"value": "false"} are equivalent.
func (s *Server) SetStateKey(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	key := chi.URLParam(r, "key")

	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		s.fail(w, "Set state: invalid request body", http.StatusBadRequest, err)
		return
	}
	var body StateValue
	if err := mapstructure.WeakDecode(raw, &body); err != nil {
		s.fail(w, "Set state: invalid value", http.StatusBadRequest, err)
		return
	}

	before, _ := s.Assistant.State(r.Context(), sessionID)
	if err := s.Assistant.Set(r.Context(), sessionID, key, body.Value); err != nil {
		s.fail(w, "Set state failed", statusFor(err), err)
		return
	}
	if after, err := s.Assistant.State(r.Context(), sessionID); err == nil {
		s.broadcastDiff(before, after)
	}
	v, err := s.Assistant.Get(r.Context(), sessionID, key)
	if err != nil {
		s.fail(w, "Set state: read back failed", statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, StateValue{Key: key, Value: v})
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Assistant.Reset(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, "Delete session failed", statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "scribe-http",
		"version": strings.TrimSpace(scribe.Version),
	})
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /events?session_id=...&watch=phase,pending (SSE).
// Each event is a domain.StateDiff produced by a turn or a settings change.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// watched reports whether the diff in msg touches any of the fields.
func watched(msg string, fields []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "phase":
			if diff.Phase != nil {
				return true
			}
		case "pending":
			if diff.PendingAction != nil || diff.PendingCleared || diff.Remaining != nil {
				return true
			}
		case "settings":
			if diff.RequireConfirm != nil || diff.DefaultTarget != nil {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, msg string, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error(msg, "err", err)
	} else {
		s.Logger.Warn(msg, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, runner.ErrInvalidUTF8),
		errors.Is(err, scribe.ErrNoSession),
		errors.Is(err, domain.ErrInvalidCommand),
		errors.Is(err, domain.ErrInvalidStateValue):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownStateKey), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrReadOnlyStateKey):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
