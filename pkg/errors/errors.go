package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCategory represents different types of errors in the system
type ErrorCategory string

const (
	// File system related errors
	ErrorCategoryFileSystem ErrorCategory = "filesystem"
	// Catalog file parsing related errors
	ErrorCategoryParsing ErrorCategory = "parsing"
	// Catalog loading and reloading errors
	ErrorCategoryCatalog ErrorCategory = "catalog"
	// Registry lookup errors
	ErrorCategoryRegistry ErrorCategory = "registry"
	// Diagram rendering errors
	ErrorCategoryRender ErrorCategory = "render"
	// Validation related errors
	ErrorCategoryValidation ErrorCategory = "validation"
	// HTTP transport errors
	ErrorCategoryHTTP ErrorCategory = "http"
	// System/internal errors
	ErrorCategorySystem ErrorCategory = "system"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// StructuredError represents a structured error with additional context
type StructuredError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Recoverable bool                   `json:"recoverable"`
	Cause       error                  `json:"-"`
}

// Error implements the error interface
func (se *StructuredError) Error() string {
	if se.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", se.Category, se.Code, se.Message, se.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", se.Category, se.Code, se.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (se *StructuredError) Unwrap() error {
	return se.Cause
}

// HTTPStatus maps the error to the HTTP status code returned to clients
func (se *StructuredError) HTTPStatus() int {
	switch se.Code {
	case ErrCodeResourceNotFound, ErrCodePatternNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidParams, ErrCodeInvalidCategory, ErrCodeInvalidQuery:
		return http.StatusBadRequest
	case ErrCodeServiceDegraded:
		return http.StatusServiceUnavailable
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	}

	switch se.Category {
	case ErrorCategoryValidation:
		return http.StatusBadRequest
	case ErrorCategoryHTTP:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Problem is the JSON error body returned by the HTTP API
type Problem struct {
	Status    int                    `json:"status"`
	Code      string                 `json:"code"`
	Category  ErrorCategory          `json:"category"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToProblem converts a StructuredError to an HTTP problem body
func (se *StructuredError) ToProblem() Problem {
	return Problem{
		Status:    se.HTTPStatus(),
		Code:      se.Code,
		Category:  se.Category,
		Message:   se.Message,
		Details:   se.Details,
		Context:   se.Context,
		Timestamp: se.Timestamp,
	}
}

// NewStructuredError creates a new structured error
func NewStructuredError(category ErrorCategory, severity ErrorSeverity, code, message string) *StructuredError {
	return &StructuredError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		Recoverable: severity != ErrorSeverityCritical,
		Context:     make(map[string]interface{}),
	}
}

// WithDetails adds details to the error
func (se *StructuredError) WithDetails(details string) *StructuredError {
	se.Details = details
	return se
}

// WithContext adds context information to the error
func (se *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if se.Context == nil {
		se.Context = make(map[string]interface{})
	}
	se.Context[key] = value
	return se
}

// WithCause sets the underlying cause error
func (se *StructuredError) WithCause(err error) *StructuredError {
	se.Cause = err
	return se
}

// IsRecoverable returns whether the error is recoverable
func (se *StructuredError) IsRecoverable() bool {
	return se.Recoverable
}

// SetRecoverable sets the recoverable flag
func (se *StructuredError) SetRecoverable(recoverable bool) *StructuredError {
	se.Recoverable = recoverable
	return se
}

// Predefined error constructors for common error scenarios

// NewFileSystemError creates a file system related error
func NewFileSystemError(code, message string, err error) *StructuredError {
	severity := ErrorSeverityMedium
	if code == ErrCodeFileNotFound || code == ErrCodeDirectoryNotFound {
		severity = ErrorSeverityLow
	} else if code == ErrCodePermissionDenied {
		severity = ErrorSeverityHigh
	}

	return NewStructuredError(ErrorCategoryFileSystem, severity, code, message).WithCause(err)
}

// NewParsingError creates a catalog file parsing error
func NewParsingError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryParsing, ErrorSeverityLow, code, message).WithCause(err)
}

// NewCatalogError creates a catalog loading error
func NewCatalogError(code, message string, err error) *StructuredError {
	severity := ErrorSeverityMedium
	if code == ErrCodeCatalogEmpty {
		severity = ErrorSeverityHigh
	}
	return NewStructuredError(ErrorCategoryCatalog, severity, code, message).WithCause(err)
}

// NewRegistryError creates a registry lookup error
func NewRegistryError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryRegistry, ErrorSeverityLow, code, message).WithCause(err)
}

// NewRenderError creates a diagram rendering error
func NewRenderError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryRender, ErrorSeverityMedium, code, message).WithCause(err)
}

// NewValidationError creates a validation related error
func NewValidationError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryValidation, ErrorSeverityLow, code, message).WithCause(err)
}

// NewHTTPError creates an HTTP transport error
func NewHTTPError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategoryHTTP, ErrorSeverityLow, code, message).WithCause(err)
}

// NewSystemError creates a system/internal error
func NewSystemError(code, message string, err error) *StructuredError {
	return NewStructuredError(ErrorCategorySystem, ErrorSeverityCritical, code, message).WithCause(err)
}

// Common error codes
const (
	// File system error codes
	ErrCodeFileNotFound          = "FILE_NOT_FOUND"
	ErrCodeDirectoryNotFound     = "DIRECTORY_NOT_FOUND"
	ErrCodePermissionDenied      = "PERMISSION_DENIED"
	ErrCodeFileSystemUnavailable = "FILESYSTEM_UNAVAILABLE"

	// Parsing error codes
	ErrCodeMalformedYAML     = "MALFORMED_YAML"
	ErrCodeSchemaViolation   = "SCHEMA_VIOLATION"
	ErrCodeEncodingIssue     = "ENCODING_ISSUE"
	ErrCodeMalformedMarkdown = "MALFORMED_MARKDOWN"

	// Catalog error codes
	ErrCodeCatalogEmpty        = "CATALOG_EMPTY"
	ErrCodeCatalogReloadFailed = "CATALOG_RELOAD_FAILED"

	// Registry error codes
	ErrCodePatternNotFound = "PATTERN_NOT_FOUND"

	// Render error codes
	ErrCodeSVGWriteFailed = "SVG_WRITE_FAILED"

	// HTTP error codes
	ErrCodeInvalidParams    = "INVALID_PARAMS"
	ErrCodeInvalidQuery     = "INVALID_QUERY"
	ErrCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	ErrCodeServiceDegraded  = "SERVICE_DEGRADED"
	ErrCodeUpgradeFailed    = "WEBSOCKET_UPGRADE_FAILED"
	ErrCodeRateLimited      = "RATE_LIMITED"

	// Validation error codes
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeInvalidCategory = "INVALID_CATEGORY"
	ErrCodeMissingField    = "MISSING_FIELD"

	// System error codes
	ErrCodeInitializationFailed = "INITIALIZATION_FAILED"
	ErrCodeShutdownFailed       = "SHUTDOWN_FAILED"
	ErrCodeUnexpectedPanic      = "UNEXPECTED_PANIC"
)
