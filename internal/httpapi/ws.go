package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"
)

type wsChatInbound struct {
	Text string `json:"text"`
}

// handleChatWS serves a persistent chat channel carrying the same chat
// events as POST /v1/chat, one turn per inbound frame.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	externalID, err := parseExternalID(r.URL.Query().Get("external_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_external_id", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 << 10)

	for {
		var in wsChatInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if strings.TrimSpace(in.Text) == "" {
			continue
		}

		res, err := s.orchestrator.Respond(r.Context(), externalID, in.Text)
		out := chatOutcome(res, err)

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(out); err != nil {
			log.Printf("httpapi: ws write for user %d failed: %v", externalID, err)
			return
		}
	}
}
