package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/linguai/internal/contextstore"
	"github.com/antoniostano/linguai/internal/prefs"
	"github.com/antoniostano/linguai/internal/texts"
	"github.com/antoniostano/linguai/internal/users"
)

type setPreferenceRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type setPreferenceResponse struct {
	Reply   string `json:"reply"`
	Outcome string `json:"outcome"`
}

// handleSetPreference applies one preference-selection event: a durable write
// through the reconciliation service and an ephemeral mirror, issued
// concurrently and both awaited. The two stores converge best-effort; if the
// mirror is lost the cache entry expires and the durable value is re-read.
func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	externalID, err := parseExternalID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_external_id", err.Error())
		return
	}

	var req setPreferenceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	field := users.PreferenceField(strings.TrimSpace(req.Field))
	if !field.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_field", "field must be language or cefr_level")
		return
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		// An empty value would be indistinguishable from "no value stored".
		respondError(w, http.StatusBadRequest, "empty_value", "value must not be empty")
		return
	}

	ctx := r.Context()
	durableErr := make(chan error, 1)
	mirrorErr := make(chan error, 1)
	go func() { durableErr <- s.prefs.Set(ctx, field, externalID, value) }()
	go func() { mirrorErr <- s.cache.Set(ctx, namespaceFor(field), externalID, value) }()
	dErr := <-durableErr
	mErr := <-mirrorErr

	switch {
	case errors.Is(dErr, prefs.ErrUserNotFound):
		// Silent no-op upstream: the user is told to register, not shown an error.
		s.observePreferenceWrite(field, "user_not_found")
		respondJSON(w, http.StatusOK, setPreferenceResponse{Reply: texts.SelectLanguagePrompt, Outcome: "user_not_found"})
		return
	case dErr != nil:
		s.observePreferenceWrite(field, "error")
		if s.metrics != nil {
			s.metrics.StoreErrors.WithLabelValues("users").Inc()
		}
		respondJSON(w, http.StatusOK, setPreferenceResponse{Reply: texts.Apology, Outcome: "error"})
		return
	case mErr != nil:
		// Durable write landed; the cache will be repopulated from it on the
		// next turn, so the selection still succeeds from the user's view.
		s.observePreferenceWrite(field, "mirror_error")
		if s.metrics != nil {
			s.metrics.StoreErrors.WithLabelValues("context").Inc()
		}
	default:
		s.observePreferenceWrite(field, "ok")
	}

	respondJSON(w, http.StatusOK, setPreferenceResponse{
		Reply:   s.selectionReply(ctx, field, externalID, value),
		Outcome: "ok",
	})
}

func (s *Server) observePreferenceWrite(field users.PreferenceField, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.PreferenceWrites.WithLabelValues(string(field), result).Inc()
}

// selectionReply picks the confirmation template for a stored selection.
func (s *Server) selectionReply(ctx context.Context, field users.PreferenceField, externalID int64, value string) string {
	switch field {
	case users.FieldLanguage:
		if t, err := texts.Lookup(value, texts.PhaseLanguageStart); err == nil {
			return t
		}
		return texts.ErrorReply(value)
	default:
		language := value
		if v, ok, err := s.cache.Get(ctx, contextstore.NamespaceLanguage, externalID); err == nil && ok {
			language = v
		} else if v, ok, err := s.prefs.Get(ctx, users.FieldLanguage, externalID); err == nil && ok {
			language = v
		}
		if t, err := texts.Lookup(language, texts.PhaseLevelStart); err == nil {
			return t
		}
		t, _ := texts.Lookup("english", texts.PhaseLevelStart)
		return t
	}
}

func namespaceFor(field users.PreferenceField) contextstore.Namespace {
	if field == users.FieldLanguage {
		return contextstore.NamespaceLanguage
	}
	return contextstore.NamespaceCEFRLevel
}
