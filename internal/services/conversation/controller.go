package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/models"
	"github.com/escriba/minuta/internal/paths"
	"github.com/escriba/minuta/internal/payload"
)

// UploadFile is one file in an upload batch.
type UploadFile struct {
	Name string
	Data []byte
}

// Controller orchestrates the conversation state machine: it routes each
// user message to edit-apply, edit-detection, or plain chat depending on
// whether a draft exists, and owns every mutation of the session's documents,
// queue, and draft.
//
// Only one top-level operation runs per session at a time; concurrent
// attempts are rejected with a busy error rather than queued.
type Controller struct {
	config    *common.Config
	drafts    interfaces.DraftService
	ocr       interfaces.OCRService
	contracts interfaces.ContractService
	events    interfaces.EventPublisher
	logger    arbor.ILogger
}

// NewController creates the conversation controller. events may be nil;
// publishing is best-effort.
func NewController(
	cfg *common.Config,
	drafts interfaces.DraftService,
	ocr interfaces.OCRService,
	contracts interfaces.ContractService,
	events interfaces.EventPublisher,
	logger arbor.ILogger,
) *Controller {
	return &Controller{
		config:    cfg,
		drafts:    drafts,
		ocr:       ocr,
		contracts: contracts,
		events:    events,
		logger:    logger,
	}
}

// acquire marks the session busy for one top-level operation. The returned
// release must run even on failure so the flag never sticks.
func (c *Controller) acquire(s *Session) (release func(), err error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, models.NewBusy()
	}
	s.busy = true
	s.touch()
	s.mu.Unlock()

	c.publish(s, interfaces.EventBusyChanged, true)
	return func() {
		s.mu.Lock()
		s.busy = false
		s.touch()
		s.mu.Unlock()
		c.publish(s, interfaces.EventBusyChanged, false)
	}, nil
}

func (c *Controller) publish(s *Session, eventType string, body any) {
	if c.events == nil {
		return
	}
	c.events.Publish(interfaces.SessionEvent{
		SessionID: s.ID,
		Type:      eventType,
		Payload:   body,
	})
}

func (c *Controller) appendMessage(s *Session, role models.MessageRole, content string) models.Message {
	s.mu.Lock()
	msg := s.append(role, content)
	s.mu.Unlock()
	c.publish(s, interfaces.EventMessageAppended, msg)
	return msg
}

// SubmitMessage runs one conversation turn. With a draft present the message
// is treated as an edit against the draft; otherwise it goes through edit
// detection and falls back to plain chat. Remote failures are recorded in
// the conversation log and returned so transports can carry a status.
func (c *Controller) SubmitMessage(ctx context.Context, s *Session, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NewInvalidInput("A mensagem não pode estar vazia.")
	}

	release, err := c.acquire(s)
	if err != nil {
		return err
	}
	defer release()

	c.appendMessage(s, models.RoleUser, text)

	if s.Draft() != nil {
		return c.editDraft(ctx, s, text)
	}
	return c.detectOrChat(ctx, s, text)
}

// editDraft applies a message as an edit against the existing draft.
func (c *Controller) editDraft(ctx context.Context, s *Session, text string) error {
	inst, err := c.drafts.EditDraft(ctx, s.Draft(), text)
	if err != nil {
		appErr := models.AsAppError(err)
		c.appendMessage(s, models.RoleBot, appErr.UserMessage)
		return appErr
	}

	if !paths.Valid(inst.Path) {
		appErr := models.NewInvalidInput("Não consegui identificar o campo a alterar. Pode reformular?")
		c.appendMessage(s, models.RoleBot, appErr.UserMessage)
		return appErr
	}

	s.mu.Lock()
	updated, ok := paths.Set(map[string]any(s.draft), inst.Path, inst.NewValue).(map[string]any)
	if ok {
		s.draft = models.Draft(updated)
	}
	s.mu.Unlock()

	c.appendMessage(s, models.RoleBot, describeEdit(inst))
	c.publish(s, interfaces.EventDraftPrepared, s.Draft())

	c.logger.Info().
		Str("session_id", s.ID).
		Str("path", inst.Path).
		Msg("Draft edit applied")
	return nil
}

// detectOrChat classifies a pre-draft message as an edit intent, queueing it
// when positive, and otherwise answers it as plain conversation.
func (c *Controller) detectOrChat(ctx context.Context, s *Session, text string) error {
	detect, err := c.drafts.DetectEdit(ctx, text, s.Documents())
	if err != nil {
		appErr := models.AsAppError(err)
		c.appendMessage(s, models.RoleBot, appErr.UserMessage)
		return appErr
	}

	if detect.IsEditInstruction && detect.Instruction != nil {
		s.mu.Lock()
		s.pending = append(s.pending, *detect.Instruction)
		queued := len(s.pending)
		s.mu.Unlock()

		c.appendMessage(s, models.RoleBot, fmt.Sprintf(
			"Entendido! %s\n\nA alteração será aplicada quando a minuta for preparada (%d pendente(s)).",
			detect.Instruction.Description, queued,
		))
		return nil
	}

	history := s.Messages()
	// The turn's own user entry is already in the log; the model receives it
	// once, as the current message.
	if n := len(history); n > 0 && history[n-1].Role == models.RoleUser {
		history = history[:n-1]
	}

	reply, err := c.drafts.ChatReply(ctx, history, s.Documents(), text)
	if err != nil {
		appErr := models.AsAppError(err)
		c.appendMessage(s, models.RoleBot, appErr.UserMessage)
		return appErr
	}

	replyText, inst := decodeReply(reply)
	if inst != nil && c.applyReplyInstruction(s, inst) {
		c.publish(s, interfaces.EventDocumentMerged, inst.Path)
		c.logger.Info().
			Str("session_id", s.ID).
			Str("path", inst.Path).
			Msg("Reply instruction applied to documents")
	}

	c.appendMessage(s, models.RoleBot, replyText)
	return nil
}

// applyReplyInstruction resolves a reply-carried instruction against the
// document store. Paths may address a document by filename prefix
// ("contrato.pdf.partes[0].nome"); filenames can contain dots, so the
// longest matching name is peeled off before the dotted grammar applies.
// Reports whether anything was written.
func (c *Controller) applyReplyInstruction(s *Session, inst *models.Instruction) bool {
	if !paths.Valid(inst.Path) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var name string
	for candidate := range s.documents {
		if strings.HasPrefix(inst.Path, candidate+".") && len(candidate) > len(name) {
			name = candidate
		}
	}
	if name != "" {
		rest := strings.TrimPrefix(inst.Path, name+".")
		if !paths.Valid(rest) {
			return false
		}
		s.documents[name] = paths.Set(s.documents[name], rest, inst.NewValue)
		return true
	}

	updated, ok := paths.Set(map[string]any(s.documents), inst.Path, inst.NewValue).(map[string]any)
	if !ok {
		return false
	}
	s.documents = models.DocumentSet(updated)
	return true
}

// UploadDocuments analyzes a batch of files sequentially. Failures are
// isolated per file: a failed extraction is reported in the conversation log
// and the batch continues, so the store ends up with every file that
// succeeded.
func (c *Controller) UploadDocuments(ctx context.Context, s *Session, files []UploadFile) error {
	if len(files) == 0 {
		return models.NewInvalidInput("Nenhum arquivo enviado.")
	}
	if max := c.config.Upload.MaxBatchFiles; max > 0 && len(files) > max {
		return models.NewInvalidInput(fmt.Sprintf("Envie no máximo %d arquivos por vez.", max))
	}

	release, err := c.acquire(s)
	if err != nil {
		return err
	}
	defer release()

	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name))
		if !c.config.AllowsExtension(ext) {
			c.appendMessage(s, models.RoleBot, fmt.Sprintf(
				"⚠️ O arquivo %s não é suportado (%s). Envie PDF, imagem, DOCX ou XLSX.",
				file.Name, ext,
			))
			continue
		}

		result, err := c.ocr.Analyze(ctx, file.Name, file.Data)
		if err != nil {
			appErr := models.AsAppError(err)
			c.appendMessage(s, models.RoleBot, fmt.Sprintf(
				"Não consegui processar o arquivo %s: %s", file.Name, appErr.UserMessage,
			))
			c.logger.Warn().
				Err(err).
				Str("session_id", s.ID).
				Str("filename", file.Name).
				Msg("Document extraction failed")
			continue
		}

		s.mu.Lock()
		s.documents[result.Filename] = result.Content
		s.mu.Unlock()

		c.appendMessage(s, models.RoleBot, fmt.Sprintf("**%s**\n%s", result.Filename, result.Text))
		c.publish(s, interfaces.EventDocumentMerged, result.Filename)
	}

	return nil
}

// PrepareDraft consolidates the documents into a draft. The pending queue is
// handed to the drafting service in arrival order and cleared only when
// drafting succeeds; on failure it stays intact so the user can retry.
func (c *Controller) PrepareDraft(ctx context.Context, s *Session) (models.Draft, error) {
	release, err := c.acquire(s)
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	if len(s.documents) == 0 {
		s.mu.Unlock()
		return nil, models.NewInvalidInput("Envie ao menos um documento antes de preparar a minuta.")
	}
	pending := make([]models.Instruction, len(s.pending))
	copy(pending, s.pending)
	s.mu.Unlock()

	draft, err := c.drafts.PrepareDraft(ctx, s.Documents(), pending)
	if err != nil {
		appErr := models.AsAppError(err)
		c.appendMessage(s, models.RoleBot, appErr.UserMessage)
		return nil, appErr
	}

	s.mu.Lock()
	s.draft = draft
	s.pending = nil
	s.mu.Unlock()

	c.appendMessage(s, models.RoleBot, describeDraft(draft, pending))
	c.publish(s, interfaces.EventDraftPrepared, draft)

	c.logger.Info().
		Str("session_id", s.ID).
		Int("instructions_applied", len(pending)).
		Msg("Draft prepared")
	return draft, nil
}

// GenerateContract renders the final contract artifact from the draft.
func (c *Controller) GenerateContract(ctx context.Context, s *Session, templateKey, extraText string) (*interfaces.Artifact, error) {
	release, err := c.acquire(s)
	if err != nil {
		return nil, err
	}
	defer release()

	draft := s.Draft()
	if draft == nil {
		return nil, models.NewInvalidInput("Prepare a minuta antes de gerar o contrato.")
	}

	artifact, err := c.contracts.Generate(ctx, templateKey, draft, extraText)
	if err != nil {
		appErr := models.AsAppError(err)
		c.appendMessage(s, models.RoleBot, appErr.UserMessage)
		return nil, appErr
	}

	c.appendMessage(s, models.RoleBot, fmt.Sprintf("Contrato gerado: %s", artifact.Filename))
	return artifact, nil
}

// TemplateKeys lists the contract templates available for generation.
func (c *Controller) TemplateKeys() []string {
	return c.contracts.TemplateKeys()
}

// DiscardDraft drops the draft and returns the session to document-collection
// mode. Documents and the message log are untouched.
func (c *Controller) DiscardDraft(s *Session) error {
	release, err := c.acquire(s)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	s.draft = nil
	s.mu.Unlock()

	c.appendMessage(s, models.RoleBot, "Minuta descartada. Você pode continuar enviando documentos e conversando.")
	c.publish(s, interfaces.EventDraftDiscarded, nil)
	return nil
}

// describeEdit renders the bot acknowledgment for an applied draft edit.
func describeEdit(inst *models.Instruction) string {
	value, err := json.Marshal(inst.NewValue)
	if err != nil {
		value = []byte(fmt.Sprintf("%v", inst.NewValue))
	}
	desc := inst.Description
	if desc == "" {
		desc = "Alteração aplicada."
	}
	return fmt.Sprintf("✏️ %s\n`%s` → %s", desc, inst.Path, value)
}

// describeDraft renders the bot summary after draft preparation: applied
// instructions in queue order, then any outstanding issues. Instructions the
// drafting pass skips (no path or no value) are excluded so the count
// matches what was actually applied.
func describeDraft(draft models.Draft, pending []models.Instruction) string {
	var applied []models.Instruction
	for _, inst := range pending {
		if inst.Path == "" || inst.NewValue == nil {
			continue
		}
		applied = append(applied, inst)
	}

	var b strings.Builder
	b.WriteString("📋 Minuta preparada com sucesso.")

	if len(applied) > 0 {
		fmt.Fprintf(&b, "\n\n%d alteração(ões) aplicada(s):", len(applied))
		for _, inst := range applied {
			desc := inst.Description
			if desc == "" {
				desc = inst.Path
			}
			b.WriteString("\n- " + desc)
		}
	}

	if pendencias := draft.Pendencias(); len(pendencias) > 0 {
		b.WriteString("\n\nPendências identificadas:")
		for _, p := range pendencias {
			b.WriteString("\n- " + p)
		}
	}

	return b.String()
}

// decodeReply gives the log renderable text even when the chat model answers
// with a JSON envelope instead of plain prose, and surfaces the edit
// instruction some envelopes carry alongside the text.
func decodeReply(reply string) (string, *models.Instruction) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return trimmed, nil
	}

	inst := models.InstructionFromMap(payload.ExtractInstruction(decoded))

	if text := payload.ExtractText(decoded); text != "" {
		return text, inst
	}
	return trimmed, inst
}
