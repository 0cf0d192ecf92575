package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// AppError is an SDK error with a stable Code. Two AppErrors match under
// errors.Is when their codes are equal, so callers can compare against
// New(code) without caring about context or cause.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Context    string
	cause      error
	stack      []uintptr
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Stack renders the frames captured by New, skipping the runtime.
func (e *AppError) Stack() string {
	if len(e.stack) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "%s:%d %s\n", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func captureStack() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// Option configures an AppError.
type Option func(*AppError)

// New creates an AppError. The message defaults to the code's registered
// text, or the code itself.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: defaultStatus(code),
		stack:      captureStack(),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// NotFound creates a 404-class error.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusNotFound))
}

// Validation creates a 400-class error for bad caller input.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// FromHTTPStatus maps a backend response status onto an AppError.
func FromHTTPStatus(statusCode int, context string) *AppError {
	code := CodeAPIError
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		code = CodeAPIUnauthorized
	case statusCode == http.StatusNotFound:
		code = CodeNotFound
	case statusCode == http.StatusTooManyRequests:
		code = CodeRateLimitExceeded
	case statusCode == http.StatusGatewayTimeout:
		code = CodeServiceTimeout
	case statusCode >= 500:
		code = CodeServiceUnavailable
	}
	return New(code, WithContext(context), WithStatusCode(statusCode))
}

// Wrap turns err into an AppError with code. An AppError anywhere in the
// chain is returned as is, gaining context if it had none.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return New(code, WithContext(context), WithCause(err), WithStatusCode(http.StatusInternalServerError))
}

// GetCode returns the code of the outermost AppError in err's chain, or
// CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// Retryable reports whether the failure is transient: the backend or the
// connection may recover without the caller changing anything.
func Retryable(err error) bool {
	switch GetCode(err) {
	case CodeAPIConnectionFailed, CodeServiceTimeout, CodeServiceUnavailable,
		CodeRateLimitExceeded, CodeCircuitOpen, CodeCircuitHalfOpen,
		CodeWebSocketConnectionError, CodeWebSocketReconnecting, CodeSnapshotStale:
		return true
	}
	return false
}

func defaultStatus(code Code) int {
	c := string(code)
	switch {
	case strings.Contains(c, "UNAUTHORIZED"):
		return http.StatusUnauthorized
	case strings.Contains(c, "NOT_FOUND"):
		return http.StatusNotFound
	case strings.Contains(c, "INVALID"):
		return http.StatusBadRequest
	case strings.Contains(c, "CONNECTION"), strings.Contains(c, "TIMEOUT"), strings.Contains(c, "CIRCUIT"):
		return http.StatusServiceUnavailable
	case code == CodeInsufficientLiquidity, code == CodeCurveGraduated:
		return http.StatusUnprocessableEntity
	case code == CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
