package server

import (
	"net/http"
	"strings"

	"github.com/escriba/minuta/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (per-session event stream)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Session lifecycle and conversation
	mux.HandleFunc("/api/session", s.app.SessionHandler.CreateSessionHandler) // POST - create session
	mux.HandleFunc("/api/session/", s.handleSessionRoutes)                    // Session-scoped subroutes

	// API routes - Contract templates
	mux.HandleFunc("/api/templates", s.app.SessionHandler.TemplatesHandler) // GET - list available templates

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleSessionRoutes routes /api/session/{id} and its subpaths.
func (s *Server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/session/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	session := s.app.SessionHandler.ResolveSession(w, id)
	if session == nil {
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.app.SessionHandler.GetSessionHandler(w, r, session)
		case http.MethodDelete:
			s.app.SessionHandler.DeleteSessionHandler(w, r, session)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case "message":
		if !handlers.RequireMethod(w, r, "POST") {
			return
		}
		s.app.SessionHandler.MessageHandler(w, r, session)

	case "documents":
		if !handlers.RequireMethod(w, r, "POST") {
			return
		}
		s.app.SessionHandler.UploadHandler(w, r, session)

	case "draft":
		switch r.Method {
		case http.MethodPost:
			s.app.SessionHandler.PrepareDraftHandler(w, r, session)
		case http.MethodDelete:
			s.app.SessionHandler.DiscardDraftHandler(w, r, session)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case "contract":
		if !handlers.RequireMethod(w, r, "POST") {
			return
		}
		s.app.SessionHandler.ContractHandler(w, r, session)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}
