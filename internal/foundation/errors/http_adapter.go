package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// httpStatus maps categories to admin API status codes. Unlisted categories
// are internal errors.
var httpStatus = map[ErrorCategory]int{
	CategoryValidation: http.StatusBadRequest,
	CategoryConfig:     http.StatusBadRequest,
	CategoryNotFound:   http.StatusNotFound,
	CategoryCheckout:   http.StatusConflict,
	CategoryNetwork:    http.StatusBadGateway,
	CategoryCatalog:    http.StatusBadGateway,
	CategorySubmission: http.StatusBadGateway,
	CategoryDetection:  http.StatusBadGateway,
	CategoryDaemon:     http.StatusServiceUnavailable,
	CategoryHardware:   http.StatusServiceUnavailable,
}

// HTTPErrorAdapter renders errors for the admin server.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON body of every admin API error.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if code, ok := httpStatus[GetCategory(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: err.Error()}
	}
	resp := HTTPErrorResponse{Error: c.Message(), Code: string(c.Category()), Retryable: c.CanRetry()}
	if ctx := c.Context(); len(ctx) > 0 {
		resp.Details = map[string]any(ctx)
	}
	return resp
}

// WriteErrorResponse writes err as JSON and logs it at its severity. Client
// errors below 500 are logged at most as warnings.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		body = []byte(`{"error":"internal error"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))

	lvl := slog.LevelError
	if c, ok := AsClassified(err); ok {
		lvl = levelFor(c.Severity())
	}
	if status < http.StatusInternalServerError && lvl > slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	a.logger.Log(r.Context(), lvl, err.Error(),
		slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Int("status", status))
}
