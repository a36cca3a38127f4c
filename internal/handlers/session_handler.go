package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/services/conversation"
)

// MessageRequest is the body of POST /api/session/{id}/message.
type MessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// ContractRequest is the body of POST /api/session/{id}/contract.
type ContractRequest struct {
	Template  string `json:"template" validate:"required"`
	ExtraText string `json:"extra_text"`
}

// SessionHandler handles session lifecycle and conversation HTTP requests.
type SessionHandler struct {
	config     *common.Config
	sessions   *conversation.Manager
	controller *conversation.Controller
	validate   *validator.Validate
	logger     arbor.ILogger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(
	cfg *common.Config,
	sessions *conversation.Manager,
	controller *conversation.Controller,
	logger arbor.ILogger,
) *SessionHandler {
	return &SessionHandler{
		config:     cfg,
		sessions:   sessions,
		controller: controller,
		validate:   validator.New(),
		logger:     logger,
	}
}

// CreateSessionHandler handles POST /api/session requests.
func (h *SessionHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	session := h.sessions.Create()
	WriteJSON(w, http.StatusCreated, map[string]string{
		"session_id": session.ID,
	})
}

// GetSessionHandler handles GET /api/session/{id} requests with a full
// state snapshot for client reconciliation.
func (h *SessionHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	documents := session.Documents()
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}
	sort.Strings(names)

	draft := session.Draft()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":    session.ID,
		"messages":      session.Messages(),
		"documents":     names,
		"pending_count": session.PendingCount(),
		"has_draft":     draft != nil,
		"draft":         draft,
		"busy":          session.Busy(),
	})
}

// DeleteSessionHandler handles DELETE /api/session/{id} requests.
func (h *SessionHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	h.sessions.Delete(session.ID)
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}

// MessageHandler handles POST /api/session/{id}/message requests.
func (h *SessionHandler) MessageHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode message request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Message field is required")
		return
	}

	if err := h.controller.SubmitMessage(r.Context(), session, req.Message); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages":      session.Messages(),
		"pending_count": session.PendingCount(),
		"has_draft":     session.Draft() != nil,
	})
}

// UploadHandler handles POST /api/session/{id}/documents multipart requests.
// Files are analyzed sequentially; per-file failures are reported in the
// conversation log without aborting the batch.
func (h *SessionHandler) UploadHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	maxBytes := int64(h.config.Upload.MaxFileSizeMB) * 1024 * 1024
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse multipart form")
		WriteError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var files []conversation.UploadFile
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			if maxBytes > 0 && header.Size > maxBytes {
				WriteError(w, http.StatusBadRequest, fmt.Sprintf(
					"O arquivo %s excede o limite de %d MB.", header.Filename, h.config.Upload.MaxFileSizeMB,
				))
				return
			}

			file, err := header.Open()
			if err != nil {
				h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to open uploaded file")
				WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
				return
			}

			files = append(files, conversation.UploadFile{
				Name: header.Filename,
				Data: data,
			})
		}
	}

	if err := h.controller.UploadDocuments(r.Context(), session, files); err != nil {
		WriteAppError(w, err)
		return
	}

	documents := session.Documents()
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}
	sort.Strings(names)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages":  session.Messages(),
		"documents": names,
	})
}

// PrepareDraftHandler handles POST /api/session/{id}/draft requests.
func (h *SessionHandler) PrepareDraftHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	draft, err := h.controller.PrepareDraft(r.Context(), session)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"draft":      draft,
		"pendencias": draft.Pendencias(),
		"messages":   session.Messages(),
	})
}

// DiscardDraftHandler handles DELETE /api/session/{id}/draft requests.
func (h *SessionHandler) DiscardDraftHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	if err := h.controller.DiscardDraft(session); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"has_draft": false,
		"messages":  session.Messages(),
	})
}

// ContractHandler handles POST /api/session/{id}/contract requests and
// streams the generated PDF as an attachment.
func (h *SessionHandler) ContractHandler(w http.ResponseWriter, r *http.Request, session *conversation.Session) {
	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode contract request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Template field is required")
		return
	}

	artifact, err := h.controller.GenerateContract(r.Context(), session, req.Template, req.ExtraText)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		"attachment; filename=%q", url.PathEscape(artifact.Filename),
	))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// TemplatesHandler handles GET /api/templates requests.
func (h *SessionHandler) TemplatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"templates": h.controller.TemplateKeys(),
	})
}

// ResolveSession looks up the session for a request and writes a 404 when it
// does not exist. Handlers under /api/session/{id} go through this.
func (h *SessionHandler) ResolveSession(w http.ResponseWriter, id string) *conversation.Session {
	session := h.sessions.Get(id)
	if session == nil {
		WriteError(w, http.StatusNotFound, "Sessão não encontrada ou expirada.")
		return nil
	}
	return session
}
