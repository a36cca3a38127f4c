package models

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a failure with a user-facing message and an HTTP status. The
// conversation layer converts every remote failure into one of these so the
// chat log can always show something actionable; nothing is fatal to the
// session.
type AppError struct {
	Status      int
	Code        string
	UserMessage string
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInput flags a locally-detected validation failure. No remote call
// is issued and no state is mutated for these.
func NewInvalidInput(userMessage string) *AppError {
	return &AppError{
		Status:      http.StatusBadRequest,
		Code:        "INVALID_INPUT",
		UserMessage: userMessage,
	}
}

// NewAICreditsExceeded flags an exhausted inference quota.
func NewAICreditsExceeded(err error) *AppError {
	return &AppError{
		Status:      http.StatusPaymentRequired,
		Code:        "AI_CREDITS_EXCEEDED",
		UserMessage: "Seu limite de uso da IA foi atingido. Tente novamente mais tarde ou entre em contato com o suporte.",
		Err:         err,
	}
}

// NewAIServiceUnavailable flags an unreachable or failing inference backend.
// Session state is left intact so the user can retry without data loss.
func NewAIServiceUnavailable(err error) *AppError {
	return &AppError{
		Status:      http.StatusServiceUnavailable,
		Code:        "AI_SERVICE_UNAVAILABLE",
		UserMessage: "O serviço de inteligência artificial está temporariamente indisponível. Tente novamente em instantes.",
		Err:         err,
	}
}

// NewContractGenerationFailed flags a failed contract rendering.
func NewContractGenerationFailed(err error) *AppError {
	return &AppError{
		Status:      http.StatusInternalServerError,
		Code:        "CONTRACT_GENERATION_FAILED",
		UserMessage: "Não foi possível gerar o contrato. Verifique os dados e tente novamente.",
		Err:         err,
	}
}

// NewBusy flags a rejected operation while another one is in flight. Only one
// top-level operation may run per session at a time.
func NewBusy() *AppError {
	return &AppError{
		Status:      http.StatusConflict,
		Code:        "SESSION_BUSY",
		UserMessage: "Aguarde a operação atual terminar antes de enviar outra.",
	}
}

// AsAppError unwraps err into an *AppError, or wraps it as a generic
// service-unavailable failure when it is something else.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAIServiceUnavailable(err)
}
