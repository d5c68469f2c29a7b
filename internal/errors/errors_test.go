package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorInterface(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	assert.Equal(t, "Resource not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
}

func TestAppErrorWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewExtractError("fetch sales data", cause)

	assert.Equal(t, "extract: fetch sales data: connection refused", err.Error())
	assert.True(t, stderrors.Is(err, cause))

	var appErr *AppError
	require.True(t, stderrors.As(fmt.Errorf("run failed: %w", err), &appErr))
	assert.Equal(t, TypeExtract, appErr.Type)
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewLoadError("insert batch", nil).
		WithContext("table", "sales").
		WithContext("rows", 500)

	assert.Equal(t, "sales", err.Context["table"])
	assert.Equal(t, 500, err.Context["rows"])
	assert.Equal(t, "load: insert batch", err.Error())
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, ProblemPipelineRunning,
		"Conflict", "run in progress", "/api/pipeline/run").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ProblemPipelineRunning, decoded["type"])
	assert.Equal(t, float64(http.StatusConflict), decoded["status"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
	assert.Equal(t, "run in progress", decoded["detail"])
}

func TestHandleErrorMapsAPIError(t *testing.T) {
	h := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", nil)

	h.HandleError(w, r, ErrPipelineRunning)

	assert.Equal(t, http.StatusConflict, w.Code)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, ProblemPipelineRunning, decoded["type"])
	assert.Equal(t, "PIPELINE_RUNNING", decoded["error_code"])
}

func TestHandleErrorMapsAppError(t *testing.T) {
	h := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", nil)

	h.HandleError(w, r, NewTransformError("clean_data stage", stderrors.New("boom")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, ProblemPipelineFailed, decoded["type"])
	assert.Equal(t, "transform", decoded["stage"])
}

func TestHandleErrorContextCancellation(t *testing.T) {
	h := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/quality/report", nil)

	h.HandleError(w, r, fmt.Errorf("run: %w", context.DeadlineExceeded))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewErrorHandler(nil, false)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	RecoveryMiddleware(h)(panicking).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, ProblemInternal, decoded["type"])
}

func TestValidationErrorsDetails(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "source", Message: "unsupported source kind"},
		{Field: "path", Message: "required"},
	})
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}
