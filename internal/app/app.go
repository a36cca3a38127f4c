package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/handlers"
	"github.com/escriba/minuta/internal/interfaces"
	"github.com/escriba/minuta/internal/services/contract"
	"github.com/escriba/minuta/internal/services/conversation"
	"github.com/escriba/minuta/internal/services/draft"
	"github.com/escriba/minuta/internal/services/llm"
	"github.com/escriba/minuta/internal/services/ocr"
	"github.com/escriba/minuta/internal/services/pdf"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Model services
	LLMService        interfaces.LLMService
	StructuredService interfaces.StructuredService

	// Domain services
	OCRService      interfaces.OCRService
	DraftService    interfaces.DraftService
	PDFService      interfaces.PDFService
	ContractService interfaces.ContractService

	// Conversation core
	SessionManager *conversation.Manager
	Controller     *conversation.Controller

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	SessionHandler *handlers.SessionHandler
	WSHandler      *handlers.WebSocketHandler
}

// New creates the application, wiring services bottom-up: model clients,
// then domain services, then the conversation core, then handlers.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	if err := app.SessionManager.Start(); err != nil {
		return nil, fmt.Errorf("failed to start session janitor: %w", err)
	}

	logger.Info().
		Str("provider", app.LLMService.Provider()).
		Int("templates", len(app.ContractService.TemplateKeys())).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initServices() error {
	llmService, structuredService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	a.LLMService = llmService
	a.StructuredService = structuredService

	a.OCRService = ocr.NewService(a.Config, structuredService, a.Logger)
	a.DraftService = draft.NewService(a.Config, llmService, structuredService, a.Logger)
	a.PDFService = pdf.NewService(a.Logger)

	contractService, err := contract.NewService(a.Config, llmService, a.PDFService, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create contract service: %w", err)
	}
	a.ContractService = contractService

	a.SessionManager = conversation.NewManager(a.Config, a.Logger)
	return nil
}

func (a *App) initHandlers() error {
	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)

	a.Controller = conversation.NewController(
		a.Config,
		a.DraftService,
		a.OCRService,
		a.ContractService,
		a.WSHandler,
		a.Logger,
	)

	a.APIHandler = handlers.NewAPIHandler(a.LLMService)
	a.SessionHandler = handlers.NewSessionHandler(a.Config, a.SessionManager, a.Controller, a.Logger)
	return nil
}

// Close stops background work and releases model clients.
func (a *App) Close() error {
	if a.SessionManager != nil {
		a.SessionManager.Stop()
		a.Logger.Info().Msg("Session janitor stopped")
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	return nil
}
