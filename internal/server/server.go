package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/session"
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	registry *game.Registry
	manager  *session.Manager
	webFS    fs.FS
	log      logrus.FieldLogger
}

// New creates a server with all routes. A nil webFS serves the API only.
func New(registry *game.Registry, manager *session.Manager, webFS fs.FS, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
		webFS:    webFS,
		log:      logger.WithField("component", "server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /api/sessions/{code}/start", s.handleStartSession)
	s.mux.HandleFunc("POST /api/sessions/{code}/expire", s.handleExpireInteraction)

	// Static files
	if s.webFS != nil {
		s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

type createSessionRequest struct {
	GameType string          `json:"gameType"`
	PlayerID string          `json:"playerId"`
	Options  json.RawMessage `json:"options,omitempty"`
}

type createSessionResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" || req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gameType and playerId required"})
		return
	}

	sess, err := s.manager.Create(req.GameType, req.Options)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.AddPlayer(req.PlayerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := s.manager.SaveSessionConfig(sess); err != nil {
		s.log.WithError(err).WithField("session", sess.Code).Warn("save session config")
	}
	s.log.WithFields(logrus.Fields{"session": sess.Code, "gameType": req.GameType, "host": req.PlayerID}).Info("session created")

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err := s.manager.Start(sess); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// Broadcast new state to all players
	s.broadcastState(sess, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// handleExpireInteraction times out the pending interaction, for a host
// process that enforces response deadlines.
func (s *Server) handleExpireInteraction(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	out, err := s.manager.Expire(sess)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if !out.Result.Success {
		writeJSON(w, http.StatusConflict, rejectionPayload(out.Result.Err))
		return
	}
	s.broadcastState(sess, out.Result.Events)
	writeJSON(w, http.StatusOK, map[string]string{"status": "expired"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
