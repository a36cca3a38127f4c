package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
	"github.com/escriba/minuta/internal/services/conversation"
)

// mockDraftService implements interfaces.DraftService for testing
type mockDraftService struct {
	chatReply    string
	detectResult *interfaces.DetectResult
	prepareDraft models.Draft
	prepareErr   error
	editResult   *models.Instruction
}

func (m *mockDraftService) ChatReply(ctx context.Context, history []models.Message, documents models.DocumentSet, message string) (string, error) {
	return m.chatReply, nil
}

func (m *mockDraftService) DetectEdit(ctx context.Context, message string, documents models.DocumentSet) (*interfaces.DetectResult, error) {
	if m.detectResult != nil {
		return m.detectResult, nil
	}
	return &interfaces.DetectResult{}, nil
}

func (m *mockDraftService) PrepareDraft(ctx context.Context, documents models.DocumentSet, pending []models.Instruction) (models.Draft, error) {
	return m.prepareDraft, m.prepareErr
}

func (m *mockDraftService) EditDraft(ctx context.Context, draft models.Draft, message string) (*models.Instruction, error) {
	return m.editResult, nil
}

// mockOCRService implements interfaces.OCRService for testing
type mockOCRService struct {
	result *models.ExtractionResult
	err    error
}

func (m *mockOCRService) Analyze(ctx context.Context, filename string, data []byte) (*models.ExtractionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &models.ExtractionResult{Filename: filename, Text: "ok", Content: map[string]any{}}, nil
}

// mockContractService implements interfaces.ContractService for testing
type mockContractService struct {
	artifact *interfaces.Artifact
	err      error
}

func (m *mockContractService) Generate(ctx context.Context, templateKey string, draft models.Draft, extraText string) (*interfaces.Artifact, error) {
	return m.artifact, m.err
}

func (m *mockContractService) TemplateKeys() []string {
	return []string{"compra-venda", "financiamento-go", "financiamento-ms"}
}

type handlerFixture struct {
	handler   *SessionHandler
	sessions  *conversation.Manager
	drafts    *mockDraftService
	ocr       *mockOCRService
	contracts *mockContractService
}

func newHandlerFixture() *handlerFixture {
	cfg := common.NewDefaultConfig()
	logger := common.GetLogger()
	drafts := &mockDraftService{}
	ocr := &mockOCRService{}
	contracts := &mockContractService{}

	sessions := conversation.NewManager(cfg, logger)
	controller := conversation.NewController(cfg, drafts, ocr, contracts, nil, logger)

	return &handlerFixture{
		handler:   NewSessionHandler(cfg, sessions, controller, logger),
		sessions:  sessions,
		drafts:    drafts,
		ocr:       ocr,
		contracts: contracts,
	}
}

// uploadOne pushes a single file through the upload endpoint so tests reach
// states that require documents.
func (f *handlerFixture) uploadOne(t *testing.T, session *conversation.Session, filename string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", filename)
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.UploadHandler(rec, req, session)
	require.Equal(t, http.StatusOK, rec.Code)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateSessionHandler(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest("POST", "/api/session", nil)
	rec := httptest.NewRecorder()
	f.handler.CreateSessionHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	id, _ := body["session_id"].(string)
	assert.NotEmpty(t, id)
	assert.NotNil(t, f.sessions.Get(id))
}

func TestCreateSessionHandler_WrongMethod(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest("GET", "/api/session", nil)
	rec := httptest.NewRecorder()
	f.handler.CreateSessionHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetSessionHandler_Snapshot(t *testing.T) {
	f := newHandlerFixture()
	session := f.sessions.Create()

	req := httptest.NewRequest("GET", "/api/session/"+session.ID, nil)
	rec := httptest.NewRecorder()
	f.handler.GetSessionHandler(rec, req, session)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, session.ID, body["session_id"])
	assert.Equal(t, false, body["has_draft"])
	assert.Equal(t, false, body["busy"])
	assert.Equal(t, float64(0), body["pending_count"])
}

func TestMessageHandler_EmptyMessageRejected(t *testing.T) {
	f := newHandlerFixture()
	session := f.sessions.Create()

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/message", strings.NewReader(`{"message": ""}`))
	rec := httptest.NewRecorder()
	f.handler.MessageHandler(rec, req, session)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageHandler_ChatTurn(t *testing.T) {
	f := newHandlerFixture()
	f.drafts.chatReply = "Olá! Envie os documentos."
	session := f.sessions.Create()

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/message", strings.NewReader(`{"message": "oi"}`))
	rec := httptest.NewRecorder()
	f.handler.MessageHandler(rec, req, session)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 2)
}

func TestPrepareDraftHandler_EmptyStoreMapsTo400(t *testing.T) {
	f := newHandlerFixture()
	session := f.sessions.Create()

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/draft", nil)
	rec := httptest.NewRecorder()
	f.handler.PrepareDraftHandler(rec, req, session)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestPrepareDraftHandler_ServiceErrorMapsToStatus(t *testing.T) {
	f := newHandlerFixture()
	f.drafts.prepareErr = models.NewAICreditsExceeded(nil)
	session := f.sessions.Create()
	f.uploadOne(t, session, "doc.pdf")

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/draft", nil)
	rec := httptest.NewRecorder()
	f.handler.PrepareDraftHandler(rec, req, session)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "AI_CREDITS_EXCEEDED", body["code"])
}

func TestUploadHandler_Multipart(t *testing.T) {
	f := newHandlerFixture()
	f.ocr.result = &models.ExtractionResult{Filename: "matricula.pdf", Text: "extraído", Content: []any{"x"}}
	session := f.sessions.Create()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", "matricula.pdf")
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.UploadHandler(rec, req, session)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	documents, _ := body["documents"].([]any)
	require.Len(t, documents, 1)
	assert.Equal(t, "matricula.pdf", documents[0])
}

func TestPrepareDraftHandler_ReturnsPendencias(t *testing.T) {
	f := newHandlerFixture()
	f.drafts.prepareDraft = models.Draft{
		"partes":     []any{},
		"pendencias": []any{"Falta o CPF"},
	}
	session := f.sessions.Create()
	f.uploadOne(t, session, "doc.pdf")

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/draft", nil)
	rec := httptest.NewRecorder()
	f.handler.PrepareDraftHandler(rec, req, session)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	pendencias, _ := body["pendencias"].([]any)
	require.Len(t, pendencias, 1)
	assert.Equal(t, "Falta o CPF", pendencias[0])
}

func TestContractHandler_StreamsPDF(t *testing.T) {
	f := newHandlerFixture()
	f.drafts.prepareDraft = models.Draft{"partes": []any{}}
	f.contracts.artifact = &interfaces.Artifact{
		Filename:    "contrato_compra-venda.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 fake"),
	}
	session := f.sessions.Create()
	f.uploadOne(t, session, "doc.pdf")

	// Prepare a draft first; contract generation requires one.
	prepReq := httptest.NewRequest("POST", "/api/session/"+session.ID+"/draft", nil)
	f.handler.PrepareDraftHandler(httptest.NewRecorder(), prepReq, session)

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/contract", strings.NewReader(`{"template": "compra-venda"}`))
	rec := httptest.NewRecorder()
	f.handler.ContractHandler(rec, req, session)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contrato_compra-venda.pdf")
	assert.Equal(t, []byte("%PDF-1.4 fake"), rec.Body.Bytes())
}

func TestContractHandler_MissingTemplateRejected(t *testing.T) {
	f := newHandlerFixture()
	session := f.sessions.Create()

	req := httptest.NewRequest("POST", "/api/session/"+session.ID+"/contract", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	f.handler.ContractHandler(rec, req, session)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplatesHandler(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest("GET", "/api/templates", nil)
	rec := httptest.NewRecorder()
	f.handler.TemplatesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	templates, _ := body["templates"].([]any)
	assert.Len(t, templates, 3)
}

func TestResolveSession_NotFound(t *testing.T) {
	f := newHandlerFixture()

	rec := httptest.NewRecorder()
	session := f.handler.ResolveSession(rec, "sess_missing")

	assert.Nil(t, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
