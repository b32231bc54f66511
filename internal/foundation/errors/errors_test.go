package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "smartcart.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "smartcart.yaml", file)
	})

	t.Run("Wrapped chain is searchable", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := fmt.Errorf("tick: %w", DetectionError("capture failed").WithCause(cause).Build())

		assert.True(t, HasCategory(err, CategoryDetection))
		assert.True(t, IsRetryable(err))
		assert.True(t, stderrors.Is(err, cause))
		assert.Equal(t, CategoryDetection, GetCategory(err))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := stderrors.New("plain")
		assert.False(t, IsRetryable(err))
		assert.Equal(t, CategoryInternal, GetCategory(err))
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := SubmissionError("purchase rejected").Build()
		derived := base.WithContext("status", 503)

		_, ok := base.Context().Get("status")
		assert.False(t, ok)
		v, ok := derived.Context().Get("status")
		require.True(t, ok)
		assert.Equal(t, 503, v)
		assert.True(t, stderrors.Is(derived, base))
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
		retry    RetryStrategy
	}{
		{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal, RetryNever},
		{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal, RetryNever},
		{"NetworkError", NetworkError("x"), CategoryNetwork, SeverityError, RetryBackoff},
		{"CatalogError", CatalogError("x"), CategoryCatalog, SeverityWarning, RetryBackoff},
		{"DetectionError", DetectionError("x"), CategoryDetection, SeverityWarning, RetryBackoff},
		{"SubmissionError", SubmissionError("x"), CategorySubmission, SeverityError, RetryBackoff},
		{"SubmissionPermanent", SubmissionError("x").Permanent(), CategorySubmission, SeverityError, RetryNever},
		{"HardwareError", HardwareError("x"), CategoryHardware, SeverityFatal, RetryNever},
		{"DaemonError", DaemonError("x"), CategoryDaemon, SeverityFatal, RetryNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.severity, err.Severity())
			assert.Equal(t, tt.retry, err.RetryStrategy())
		})
	}
}

func TestCLIErrorAdapter(t *testing.T) {
	var out bytes.Buffer
	exitCode := -1
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	a.out = &out
	a.exit = func(code int) { exitCode = code }

	assert.Equal(t, 0, a.ExitCodeFor(nil))
	assert.Equal(t, 1, a.ExitCodeFor(stderrors.New("plain")))
	assert.Equal(t, 7, a.ExitCodeFor(ConfigError("bad").Build()))
	assert.Equal(t, 9, a.ExitCodeFor(HardwareError("no gpio").Build()))

	a.HandleError(HardwareError("button pin not found").Build())
	assert.Equal(t, 9, exitCode)
	assert.Equal(t, "Error: button pin not found\n", out.String())
}

func TestHTTPErrorAdapter(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)

	a.WriteErrorResponse(rec, req, CheckoutError("checkout already running").WithContext("phase", "displaying").Build())

	require.Equal(t, http.StatusConflict, rec.Code)
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "checkout already running", body.Error)
	assert.Equal(t, "checkout", body.Code)
	assert.Equal(t, "displaying", body.Details["phase"])
	assert.Equal(t, http.StatusBadGateway, a.StatusCodeFor(SubmissionError("x").Build()))
}
