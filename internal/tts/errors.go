package tts

import (
	"errors"
	"fmt"
	"strings"
)

// Common synthesis errors
var (
	// ErrValidation indicates a malformed or out-of-range request
	ErrValidation = errors.New("invalid synthesis request")

	// ErrEngineUnavailable indicates the engine's executable could not be found
	ErrEngineUnavailable = errors.New("engine is not available")

	// ErrEngineExecution indicates the engine process failed
	ErrEngineExecution = errors.New("engine execution failed")

	// ErrUnsupportedFormat indicates an output format outside the supported set
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrConversionFailed indicates the transcoder failed
	ErrConversionFailed = errors.New("audio conversion failed")

	// ErrProbeFailed indicates the output file could not be parsed for duration
	ErrProbeFailed = errors.New("audio probe failed")

	// ErrCleanup indicates a best-effort file removal failed
	ErrCleanup = errors.New("cleanup failed")

	// ErrSynthesisFailed wraps every failure after a request was accepted
	ErrSynthesisFailed = errors.New("text synthesis failed")
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	ErrorCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorCodeTextTooLong       ErrorCode = "TEXT_TOO_LONG"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeAudioFormat       ErrorCode = "AUDIO_FORMAT"
	ErrorCodeAudioFailure      ErrorCode = "AUDIO_FAILURE"
	ErrorCodeSynthesisFailed   ErrorCode = "SYNTHESIS_FAILED"
)

// sentinels maps each code to the sentinel errors.Is should match
var sentinels = map[ErrorCode]error{
	ErrorCodeInvalidInput:      ErrValidation,
	ErrorCodeTextTooLong:       ErrValidation,
	ErrorCodeEngineUnavailable: ErrEngineUnavailable,
	ErrorCodeEngineFailure:     ErrEngineExecution,
	ErrorCodeAudioFormat:       ErrUnsupportedFormat,
	ErrorCodeSynthesisFailed:   ErrSynthesisFailed,
}

// TTSError represents a synthesis error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// NewTTSError creates a new error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that corresponds to the error code
func (e *TTSError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// IsRetryable returns true if the same request could succeed later
func (e *TTSError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeEngineFailure, ErrorCodeSynthesisFailed:
		return true
	default:
		return false
	}
}

func validationError(format string, args ...interface{}) *TTSError {
	return NewTTSError(ErrorCodeInvalidInput, fmt.Sprintf(format, args...), nil)
}

// ExecutionError is a nonzero exit or forced termination of an engine process
type ExecutionError struct {
	Engine   string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Engine)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ", stderr: " + s
	}
	return msg
}

// Unwrap returns the underlying process error
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports ExecutionError as ErrEngineExecution
func (e *ExecutionError) Is(target error) bool {
	return target == ErrEngineExecution
}

// FallbackError reports that both the primary and the secondary engine failed
type FallbackError struct {
	Primary      string
	Secondary    string
	PrimaryErr   error
	SecondaryErr error
}

// Error implements the error interface
func (e *FallbackError) Error() string {
	return fmt.Sprintf("primary engine %s failed: %v; fallback engine %s failed: %v",
		e.Primary, e.PrimaryErr, e.Secondary, e.SecondaryErr)
}

// Unwrap returns both failures
func (e *FallbackError) Unwrap() []error {
	return []error{e.PrimaryErr, e.SecondaryErr}
}
