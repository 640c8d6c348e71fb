// Package httpapi is the dispatch glue between inbound events and the core
// services. Every failure path still answers with reply text; the typed
// outcome travels alongside it for callers that want to branch.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/linguai/internal/chat"
	"github.com/antoniostano/linguai/internal/config"
	"github.com/antoniostano/linguai/internal/contextstore"
	"github.com/antoniostano/linguai/internal/observability"
	"github.com/antoniostano/linguai/internal/prefs"
	"github.com/antoniostano/linguai/internal/registration"
	"github.com/antoniostano/linguai/internal/texts"
	"github.com/antoniostano/linguai/internal/users"
)

// Orchestrator runs one chat turn.
type Orchestrator interface {
	Respond(ctx context.Context, externalID int64, text string) (chat.Result, error)
}

type Server struct {
	cfg          config.Config
	registrar    *registration.Service
	prefs        *prefs.Service
	cache        contextstore.Store
	orchestrator Orchestrator
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(
	cfg config.Config,
	registrar *registration.Service,
	preferences *prefs.Service,
	cache contextstore.Store,
	orchestrator Orchestrator,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:          cfg,
		registrar:    registrar,
		prefs:        preferences,
		cache:        cache,
		orchestrator: orchestrator,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive a user's chat if
				// the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/users", s.handleRegister)
	r.Put("/v1/users/{id}/preferences", s.handleSetPreference)
	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type registerRequest struct {
	ExternalID int64   `json:"external_id"`
	Username   *string `json:"username,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
}

type registerResponse struct {
	ExternalID int64  `json:"external_id"`
	Reply      string `json:"reply"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.ExternalID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_external_id", "external_id must be a positive integer")
		return
	}

	id, err := s.registrar.Register(r.Context(), users.NewRecord{
		ExternalID: req.ExternalID,
		Username:   req.Username,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.Registrations.WithLabelValues("error").Inc()
			s.metrics.StoreErrors.WithLabelValues("users").Inc()
		}
		respondJSON(w, http.StatusOK, registerResponse{ExternalID: req.ExternalID, Reply: texts.Apology})
		return
	}

	if s.metrics != nil {
		s.metrics.Registrations.WithLabelValues("ok").Inc()
	}
	respondJSON(w, http.StatusOK, registerResponse{ExternalID: id, Reply: texts.Welcome})
}

type chatRequest struct {
	ExternalID int64  `json:"external_id"`
	Text       string `json:"text"`
}

type chatResponse struct {
	Reply   string `json:"reply"`
	Outcome string `json:"outcome"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.ExternalID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_external_id", "external_id must be a positive integer")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "text must not be empty")
		return
	}

	res, err := s.orchestrator.Respond(r.Context(), req.ExternalID, req.Text)
	respondJSON(w, http.StatusOK, chatOutcome(res, err))
}

// chatOutcome maps the orchestrator's typed result onto reply text. Every
// path yields something to say; nothing is dropped silently.
func chatOutcome(res chat.Result, err error) chatResponse {
	if err != nil {
		return chatResponse{Reply: texts.Apology, Outcome: "error"}
	}
	switch res.Reason {
	case chat.AbortMissingLanguage:
		return chatResponse{Reply: texts.SelectLanguagePrompt, Outcome: string(res.Reason)}
	case chat.AbortMissingLevel:
		return chatResponse{Reply: texts.SelectLevelPrompt, Outcome: string(res.Reason)}
	case chat.AbortEmptyCompletion:
		return chatResponse{Reply: texts.ErrorReply(res.Language), Outcome: string(res.Reason)}
	default:
		return chatResponse{Reply: res.Reply, Outcome: "ok"}
	}
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func parseExternalID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("external id must be a positive integer")
	}
	return id, nil
}
