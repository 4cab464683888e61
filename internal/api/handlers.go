package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CausalDeck/Cockpit/internal/dispatch"
	"github.com/CausalDeck/Cockpit/internal/models"
	"github.com/CausalDeck/Cockpit/internal/session"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"status":   "healthy",
		"sessions": s.sessions.Count(),
	}))
}

func (s *Server) commandsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(dispatch.Descriptors()))
}

// sessionsHandler creates sessions on POST /sessions.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.sessionsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.sessions.Create()
	slog.Info("Server.sessionsHandler: session created", "sessionID", sess.ID())
	writeJSONResponse(w, http.StatusCreated, models.Created(map[string]interface{}{
		"id":        sess.ID(),
		"createdAt": sess.CreatedAt(),
	}))
}

// sessionHandler serves GET and DELETE on /sessions/{id}.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
			"id":        sess.ID(),
			"createdAt": sess.CreatedAt(),
			"state":     sess.State(),
		}))
	case http.MethodDelete:
		s.sessions.Delete(sess.ID())
		slog.Info("Server.sessionHandler: session deleted", "sessionID", sess.ID())
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
	default:
		w.Header().Set("Allow", "GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type messageRequest struct {
	Input string `json:"input"`
}

type messageResponse struct {
	Messages   []models.Message         `json:"messages"`
	Highlights []models.HighlightTarget `json:"highlights"`
	State      models.DialogueState     `json:"state"`
}

// messagesHandler feeds user input to the session on POST
// /sessions/{id}/messages and returns the assistant replies plus the
// resulting highlight set and dialogue state.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.messagesHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	replies, err := sess.HandleInput(r.Context(), req.Input)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyInput):
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Input cannot be empty"))
		case errors.Is(err, models.ErrInputTooLong):
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Input exceeds maximum length"))
		default:
			slog.Error("Server.messagesHandler: input handling failed", "sessionID", sess.ID(), "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process input"))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(messageResponse{
		Messages:   replies,
		Highlights: sess.Highlights(),
		State:      sess.State(),
	}))
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess.Transcript()))
}

// exportHandler returns the raw export document rather than an APIResponse
// wrapper, so the dashboard can offer it as a download unchanged.
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := sess.ExportTranscript()
	if err != nil {
		slog.Error("Server.exportHandler: export failed", "sessionID", sess.ID(), "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to export transcript"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="transcript.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Server.exportHandler: writing export failed", "sessionID", sess.ID(), "error", err)
	}
}

func (s *Server) highlightsHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess.Highlights()))
}

// contextHandler replaces the session's analysis snapshot on PUT
// /sessions/{id}/context. A null body clears it.
func (s *Server) contextHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var snap *models.AnalysisSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		slog.Warn("Server.contextHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	sess.SetSnapshot(snap)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Analysis context updated", nil))
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess.State()))
}
