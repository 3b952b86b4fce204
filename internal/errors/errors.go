package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeGit           ErrorType = "GIT"
	TypeHTTP          ErrorType = "HTTP"
	TypeAI            ErrorType = "AI"
	TypeStorage       ErrorType = "STORAGE"
	TypeNotification  ErrorType = "NOTIFICATION"
)

// Code is the stable identifier of an error kind. Codes are printed to the user
// and must not change between releases.
type Code string

const (
	CodeConfigInvalid       Code = "1001"
	CodeInsufficientHistory Code = "2002"
	CodeGitOperationFailed  Code = "2004"
	CodeRequestFailed       Code = "3001"
	CodeBackendRejected     Code = "4001"
	CodeResponseMalformed   Code = "4002"
	CodeResponseEmpty       Code = "4003"
	CodeReportPersistFailed Code = "5001"
	CodeNotificationFailed  Code = "6001"
)

// AppError represents a domain-level error with a type, a stable code and an underlying error
type AppError struct {
	Type       ErrorType
	Code       Code
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
	}

	if e.Context != nil {
		if status, ok := e.Context["status"].(int); ok {
			msg += fmt.Sprintf(" - status %d", status)
		}
		if body, ok := e.Context["body"].(string); ok && body != "" {
			msg += fmt.Sprintf(" - %s", body)
		}
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithMessage replaces the human readable message while keeping the kind
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    msg,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Code:       e.Code,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, code Code, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

var (
	ErrConfigInvalid = NewAppError(TypeConfiguration, CodeConfigInvalid, "Configuration is invalid", nil).
				WithSuggestion("Check the config file or run: matereview config show")

	ErrInsufficientHistory = NewAppError(TypeGit, CodeInsufficientHistory, "Not enough commit history to compare", nil).
				WithSuggestion("The repository needs at least two commits with a non-empty diff")

	ErrGitOperationFailed = NewAppError(TypeGit, CodeGitOperationFailed, "Git operation failed", nil).
				WithSuggestion("Make sure you are inside a git repository: git status")

	ErrRequestFailed = NewAppError(TypeHTTP, CodeRequestFailed, "Review request failed", nil).
				WithSuggestion("Check network access to the review endpoint")

	ErrBackendRejected = NewAppError(TypeAI, CodeBackendRejected, "Review endpoint rejected the request", nil).
				WithSuggestion("Verify the API key, model name and endpoint URL")

	ErrResponseMalformed = NewAppError(TypeAI, CodeResponseMalformed, "Review endpoint returned an unexpected response", nil)

	ErrResponseEmpty = NewAppError(TypeAI, CodeResponseEmpty, "Review endpoint returned an empty review", nil)

	ErrReportPersistFailed = NewAppError(TypeStorage, CodeReportPersistFailed, "Failed to save the review report", nil).
				WithSuggestion("Check write permissions or the report repository token")

	ErrNotificationFailed = NewAppError(TypeNotification, CodeNotificationFailed, "Failed to deliver notification", nil)
)

// KindOf returns the stable code of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ExitCode maps an error returned by the review run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case CodeInsufficientHistory:
		return 0
	case CodeConfigInvalid:
		return 2
	default:
		return 1
	}
}
