package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifica as falhas do pipeline de admissão
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindInvalidInput    ErrorKind = "invalid_input"
	KindRateExceeded    ErrorKind = "rate_exceeded"
	KindEncodingFailure ErrorKind = "encoding_failure"
	KindUnhandled       ErrorKind = "unhandled"
)

// Sentinelas por tipo; um *PipelineError casa com a sentinela do seu Kind via errors.Is
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrRateExceeded    = errors.New("rate limit exceeded")
	ErrEncodingFailure = errors.New("encoding failure")
	ErrUnhandled       = errors.New("unhandled error")
)

var kindSentinels = map[ErrorKind]error{
	KindUnauthenticated: ErrUnauthenticated,
	KindForbidden:       ErrForbidden,
	KindInvalidInput:    ErrInvalidInput,
	KindRateExceeded:    ErrRateExceeded,
	KindEncodingFailure: ErrEncodingFailure,
	KindUnhandled:       ErrUnhandled,
}

// ValidationReason detalha o motivo de um InvalidInput
type ValidationReason string

const (
	ReasonMissingField   ValidationReason = "MISSING_FIELD"
	ReasonEmptyContent   ValidationReason = "EMPTY_CONTENT"
	ReasonInvalidECL     ValidationReason = "INVALID_ECL"
	ReasonSizeOutOfRange ValidationReason = "SIZE_OUT_OF_RANGE"
	ReasonMalformedBody  ValidationReason = "MALFORMED_BODY"
)

// PipelineError é o erro tipado que cada estágio devolve ao encerrar a cadeia
type PipelineError struct {
	Kind       ErrorKind
	Reason     ValidationReason
	Message    string
	RetryAfter time.Duration
	Rate       *RateLimitResult // só em KindRateExceeded vindo do limiter
	Err        error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, domain.ErrInvalidInput) etc.
func (e *PipelineError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// NewUnauthenticated cria um erro de credencial ausente ou inválida
func NewUnauthenticated(message string) *PipelineError {
	return &PipelineError{Kind: KindUnauthenticated, Message: message}
}

// NewForbidden cria um erro de origem não permitida
func NewForbidden(message string) *PipelineError {
	return &PipelineError{Kind: KindForbidden, Message: message}
}

// NewInvalidInput cria um erro de validação com motivo
func NewInvalidInput(reason ValidationReason, message string) *PipelineError {
	return &PipelineError{Kind: KindInvalidInput, Reason: reason, Message: message}
}

// NewRateExceeded cria um erro de orçamento excedido com dica de retry
func NewRateExceeded(retryAfter time.Duration) *PipelineError {
	return &PipelineError{Kind: KindRateExceeded, Message: "rate limit exceeded", RetryAfter: retryAfter}
}

// NewRateLimitRejection cria o erro de rate limit a partir do resultado do limiter
func NewRateLimitRejection(result *RateLimitResult) *PipelineError {
	pe := NewRateExceeded(result.RetryAfter)
	pe.Rate = result
	return pe
}

// NewEncodingFailure encapsula uma falha do encoder
func NewEncodingFailure(err error) *PipelineError {
	return &PipelineError{Kind: KindEncodingFailure, Message: "failed to encode QR code", Err: err}
}

// NewUnhandled encapsula uma falha inesperada capturada na borda
func NewUnhandled(err error) *PipelineError {
	return &PipelineError{Kind: KindUnhandled, Message: "unhandled error", Err: err}
}

// AsPipelineError extrai o *PipelineError de err; erros desconhecidos viram Unhandled
func AsPipelineError(err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return NewUnhandled(err)
}
