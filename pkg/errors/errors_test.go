package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestStructuredError(t *testing.T) {
	t.Run("NewStructuredError creates error with correct fields", func(t *testing.T) {
		err := NewStructuredError(ErrorCategoryFileSystem, ErrorSeverityHigh, "TEST_CODE", "Test message")

		if err.Category != ErrorCategoryFileSystem {
			t.Errorf("Expected category %s, got %s", ErrorCategoryFileSystem, err.Category)
		}
		if err.Severity != ErrorSeverityHigh {
			t.Errorf("Expected severity %s, got %s", ErrorSeverityHigh, err.Severity)
		}
		if err.Code != "TEST_CODE" {
			t.Errorf("Expected code TEST_CODE, got %s", err.Code)
		}
		if !err.Recoverable {
			t.Errorf("Expected recoverable to be true for non-critical error")
		}
	})

	t.Run("Critical errors are not recoverable", func(t *testing.T) {
		err := NewSystemError(ErrCodeInitializationFailed, "Startup failed", nil)

		if err.IsRecoverable() {
			t.Errorf("Expected critical error to not be recoverable")
		}
	})

	t.Run("WithContext adds context", func(t *testing.T) {
		err := NewValidationError(ErrCodeInvalidID, "Bad id", nil).
			WithContext("id", "Not An Id")

		if err.Context["id"] != "Not An Id" {
			t.Errorf("Expected context id 'Not An Id', got %v", err.Context["id"])
		}
	})

	t.Run("Error method includes details when present", func(t *testing.T) {
		err := NewRenderError(ErrCodeSVGWriteFailed, "SVG write failed", nil).
			WithDetails("short write")
		expected := "[render:SVG_WRITE_FAILED] SVG write failed: short write"

		if err.Error() != expected {
			t.Errorf("Expected error string '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		cause := stderrors.New("disk gone")
		err := NewFileSystemError(ErrCodeFileSystemUnavailable, "Read failed", cause)

		if !stderrors.Is(err, cause) {
			t.Errorf("Expected errors.Is to find the cause")
		}
	})
}

func TestStructuredError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected int
	}{
		{"pattern not found", NewRegistryError(ErrCodePatternNotFound, "missing", nil), http.StatusNotFound},
		{"resource not found", NewHTTPError(ErrCodeResourceNotFound, "missing", nil), http.StatusNotFound},
		{"invalid category", NewValidationError(ErrCodeInvalidCategory, "bad", nil), http.StatusBadRequest},
		{"invalid query", NewHTTPError(ErrCodeInvalidQuery, "bad", nil), http.StatusBadRequest},
		{"service degraded", NewSystemError(ErrCodeServiceDegraded, "degraded", nil), http.StatusServiceUnavailable},
		{"rate limited", NewHTTPError(ErrCodeRateLimited, "slow down", nil), http.StatusTooManyRequests},
		{"render failure", NewRenderError(ErrCodeSVGWriteFailed, "failed", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestStructuredError_ToProblem(t *testing.T) {
	err := NewRegistryError(ErrCodePatternNotFound, "Pattern not found", nil).
		WithContext("pattern_id", "nope")

	problem := err.ToProblem()

	if problem.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", problem.Status)
	}
	if problem.Code != ErrCodePatternNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodePatternNotFound, problem.Code)
	}
	if problem.Context["pattern_id"] != "nope" {
		t.Errorf("Expected pattern_id context to be carried over")
	}
}

func TestPredefinedConstructorsSeverity(t *testing.T) {
	if sev := NewFileSystemError(ErrCodeFileNotFound, "m", nil).Severity; sev != ErrorSeverityLow {
		t.Errorf("Expected low severity for missing file, got %s", sev)
	}
	if sev := NewFileSystemError(ErrCodePermissionDenied, "m", nil).Severity; sev != ErrorSeverityHigh {
		t.Errorf("Expected high severity for permission denied, got %s", sev)
	}
	if sev := NewCatalogError(ErrCodeCatalogEmpty, "m", nil).Severity; sev != ErrorSeverityHigh {
		t.Errorf("Expected high severity for empty catalog, got %s", sev)
	}
	if cat := NewParsingError(ErrCodeMalformedYAML, "m", nil).Category; cat != ErrorCategoryParsing {
		t.Errorf("Expected parsing category, got %s", cat)
	}
}
