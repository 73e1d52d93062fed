package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "licences/pkg/domain-errors"
)

type runRequest struct {
	Job string `json:"job"`
}

func (r *runRequest) Normalize() {
	r.Job = strings.ToLower(strings.TrimSpace(r.Job))
}

func (r *runRequest) Validate() error {
	if r.Job == "" {
		return errors.New("job is required")
	}
	return nil
}

type domainValidated struct {
	Reason string `json:"reason"`
}

func (r *domainValidated) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, ok := DecodeJSON[runRequest](rec, post(`{"job":"activation"}`), discardLogger())
		require.True(t, ok)
		assert.Equal(t, "activation", req.Job)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeJSON[runRequest](rec, post(`{"job":`), discardLogger())
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decodeError(t, rec).Error)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeJSON[runRequest](rec, post(`{"job":"x","extra":1}`), discardLogger())
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("normalizes before validating", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[runRequest](rec, post(`{"job":"  TIME-OUT "}`), discardLogger())
		require.True(t, ok)
		assert.Equal(t, "time-out", req.Job)
	})

	t.Run("plain validation error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[runRequest](rec, post(`{"job":"   "}`), discardLogger())
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, string(dErrors.CodeValidation), resp.Error)
		assert.Equal(t, "job is required", resp.Description)
	})

	t.Run("domain error keeps its code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[domainValidated](rec, post(`{}`), discardLogger())
		require.False(t, ok)
		assert.Equal(t, string(dErrors.CodeBadRequest), decodeError(t, rec).Error)
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeNotFound, "licence 4 not found"), http.StatusNotFound, "not_found"},
		{dErrors.New(dErrors.CodeConflict, "stale"), http.StatusConflict, "conflict"},
		{dErrors.New(dErrors.CodeInvariantViolation, "bad transition"), http.StatusUnprocessableEntity, "invariant_violation"},
		{dErrors.New(dErrors.CodeUnavailable, "prison api down"), http.StatusBadGateway, "upstream_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.code, decodeError(t, rec).Error)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}
