package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Dataset/fingerprint validation errors (DATA-001 to DATA-099)
	ErrCodeDataEmpty         ErrorCode = "DATA-001"
	ErrCodeDataUnnamedColumn ErrorCode = "DATA-002"
	ErrCodeDataRaggedColumn  ErrorCode = "DATA-003"
	ErrCodeDataUnsupported   ErrorCode = "DATA-004"
	ErrCodeDataHashFailed    ErrorCode = "DATA-005"

	// Seed management errors (SEED-001 to SEED-099)
	ErrCodeSeedModuleUnknown   ErrorCode = "SEED-001"
	ErrCodeSeedSnapshotMissing ErrorCode = "SEED-002"
	ErrCodeSeedSnapshotCorrupt ErrorCode = "SEED-003"
	ErrCodeSeedScopeFailed     ErrorCode = "SEED-004"

	// Pipeline tracking errors (PIPE-001 to PIPE-099)
	ErrCodePipeNoActiveStep ErrorCode = "PIPE-001"
	ErrCodePipeStepUnknown  ErrorCode = "PIPE-002"

	// State capture errors (STATE-001 to STATE-099)
	ErrCodeStateCaptureFailed   ErrorCode = "STATE-001"
	ErrCodeStateRestoreFailed   ErrorCode = "STATE-002"
	ErrCodeStateVersionMismatch ErrorCode = "STATE-003"

	// Bundle lifecycle errors (BUNDLE-001 to BUNDLE-099)
	ErrCodeBundleMissingField  ErrorCode = "BUNDLE-001"
	ErrCodeBundleDuplicateData ErrorCode = "BUNDLE-002"
	ErrCodeBundleNotSealed     ErrorCode = "BUNDLE-003"
	ErrCodeBundleSealed        ErrorCode = "BUNDLE-004"
	ErrCodeBundleChecksum      ErrorCode = "BUNDLE-005"

	// Serialization format errors (FORMAT-001 to FORMAT-099)
	ErrCodeFormatUnknown ErrorCode = "FORMAT-001"
	ErrCodeFormatCorrupt ErrorCode = "FORMAT-002"
	ErrCodeFormatSchema  ErrorCode = "FORMAT-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
)

// ReproError represents an enhanced error with code, suggestions and a cause
type ReproError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *ReproError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ReproError) Unwrap() error {
	return e.Cause
}

// New creates a new ReproError
func New(code ErrorCode, message string) *ReproError {
	return &ReproError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new ReproError with a formatted message
func Newf(code ErrorCode, format string, args ...any) *ReproError {
	return &ReproError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new ReproError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ReproError {
	return &ReproError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ReproError) WithSuggestion(suggestion string) *ReproError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ReproError) WithSuggestions(suggestions ...string) *ReproError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the error code carried by err, or "" if err is not a ReproError
func CodeOf(err error) ErrorCode {
	var re *ReproError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
