package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(includeStack bool) *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), includeStack)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAPIError(t *testing.T) {
	err := DatasetNotFound("lcoe")
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "DATASET_NOT_FOUND", err.ErrorCode)
	assert.Equal(t, `dataset "lcoe" not found`, err.Error())

	missing := MissingParameter("route")
	assert.Equal(t, "Missing required parameter: route", missing.Message)

	v := ErrValidation("length", "must be positive")
	require.IsType(t, []ValidationError{}, v.Details)
	assert.Equal(t, "length", v.Details.([]ValidationError)[0].Field)
}

func TestAPIErrorWithDetails(t *testing.T) {
	err := ErrDataCorrupted.WithDetails("lcoe")
	assert.Equal(t, "lcoe", err.Details)
	assert.Equal(t, "DATA_CORRUPTED", err.ErrorCode)
	assert.Nil(t, ErrDataCorrupted.Details)
}

func TestProblemDetailsMarshal(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadGateway, TypeUpstream, "Bad Gateway", "", "/api/eia").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeUpstream, got["type"])
	assert.Equal(t, float64(http.StatusBadGateway), got["status"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, "/api/eia", got["instance"])
	assert.NotContains(t, got, "detail")

	var zero ProblemDetails
	zero.WithExtension("k", "v")
	assert.Equal(t, "v", zero.Extensions["k"])
}

type lengthParams struct {
	Route  string `validate:"required"`
	Length int    `validate:"gte=0"`
}

func TestErrorToProblem(t *testing.T) {
	h := newTestHandler(false)
	r := httptest.NewRequest(http.MethodGet, "/api/datasets/x", nil)

	valErr := validator.New().Struct(lengthParams{Length: -1})
	require.Error(t, valErr)

	tests := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"wrapped cancel", fmt.Errorf("load: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout},
		{"api error", ErrDatasetNotFound, http.StatusNotFound, TypeDataNotFound},
		{"wrapped api error", fmt.Errorf("parse: %w", ErrNotNumeric), http.StatusUnprocessableEntity, TypeNotNumeric},
		{"validator", valErr, http.StatusBadRequest, TypeValidation},
		{"app config", NewConfigError("bad port", nil), http.StatusInternalServerError, TypeInternal},
		{"app network", NewNetworkError("eia", io.ErrUnexpectedEOF), http.StatusBadGateway, TypeUpstream},
		{"app parsing", NewParsingError("bad json", nil), http.StatusUnprocessableEntity, TypeDataCorrupt},
		{"app storage", NewStorageError("disk", nil), http.StatusInternalServerError, TypeInternal},
		{"plain", io.EOF, http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.status, pd.Status)
			assert.Equal(t, tt.typ, pd.Type)
			assert.Equal(t, "/api/datasets/x", pd.Instance)
		})
	}
}

func TestErrorToProblemValidationFields(t *testing.T) {
	h := newTestHandler(false)
	r := httptest.NewRequest(http.MethodGet, "/api/eia", nil)

	pd := h.ErrorToProblem(validator.New().Struct(lengthParams{Length: -1}), r)
	fields := pd.Extensions["errors"].([]ValidationError)
	require.Len(t, fields, 2)
	assert.Equal(t, "route", fields[0].Field)
	assert.Equal(t, "length", fields[1].Field)
	assert.Contains(t, fields[1].Message, "gte")
}

func TestHandleError(t *testing.T) {
	h := newTestHandler(false)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/datasets/nope", nil)

	h.HandleError(rec, r, DatasetNotFound("nope"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, TypeDataNotFound, body["type"])
	assert.Equal(t, "DATASET_NOT_FOUND", body["error_code"])
	assert.Equal(t, "nope", body["details"])
	assert.Contains(t, body, "trace_id")
	assert.NotContains(t, body, "stack")
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestHandleErrorIncludesStackForServerErrors(t *testing.T) {
	h := newTestHandler(true)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), io.EOF)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "stack")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestHandler(true)
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.Equal(t, "boom", body["panic"])
}

func TestRecoveryMiddlewareRepanicsOnAbort(t *testing.T) {
	h := newTestHandler(false)
	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		RecoveryMiddleware(h)(aborting).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeBody(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "DELETE")
}

func TestAppError(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := NewStorageError("read envelope", cause).WithContext("dataset", "lcoe")

	assert.Equal(t, "[STORAGE] read envelope: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "lcoe", err.Context["dataset"])

	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeStorage))
	assert.False(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(io.EOF, ErrTypeStorage))

	assert.Equal(t, "[CONFIG] bad port", NewConfigError("bad port", nil).Error())
}
