package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
)

type APIHandler struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

func NewAPIHandler(llm interfaces.LLMService) *APIHandler {
	return &APIHandler{
		llm:    llm,
		logger: common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status, including the upstream model
// provider when one is wired.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if h.llm != nil {
		if err := h.llm.HealthCheck(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("LLM health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "degraded",
				"provider": h.llm.Provider(),
				"error":    err.Error(),
			})
			return
		}
	}

	response := map[string]interface{}{
		"status": "ok",
	}
	if h.llm != nil {
		response["provider"] = h.llm.Provider()
	}
	WriteJSON(w, http.StatusOK, response)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
