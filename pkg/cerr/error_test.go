package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/pushrelay/pkg/clog"
)

func TestCode(t *testing.T) {
	tests := []struct {
		code    Code
		name    string
		connect connect.Code
		http    int
	}{
		{InvalidArgument, "InvalidArgument", connect.CodeInvalidArgument, http.StatusBadRequest},
		{NotFound, "NotFound", connect.CodeNotFound, http.StatusNotFound},
		{FailedPrecondition, "FailedPrecondition", connect.CodeFailedPrecondition, http.StatusPreconditionFailed},
		{Unavailable, "Unavailable", connect.CodeUnavailable, http.StatusServiceUnavailable},
		{Internal, "Internal", connect.CodeInternal, http.StatusInternalServerError},
		{Code(99), "Code(99)", connect.CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.code.String())
			assert.Equal(t, tt.connect, tt.code.ConnectCode())
			assert.Equal(t, tt.http, tt.code.HTTPCode())
		})
	}
}

func TestNewError(t *testing.T) {
	cause := errors.New("disk on fire")

	err := NewError(Internal, "server error", cause)
	assert.Equal(t, "[Internal] server error: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.Stack)

	err = NewError(InvalidArgument, "bad input", nil)
	assert.Equal(t, "[InvalidArgument] bad input", err.Error())
	assert.Empty(t, err.Stack)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(NotFound, "missing", nil))
	assert.True(t, IsCode(err, NotFound))
	assert.False(t, IsCode(err, Internal))
	assert.False(t, IsCode(errors.New("plain"), NotFound))
}

func TestConnectError(t *testing.T) {
	err := NewError(InvalidArgument, "invalid subscription", nil).
		AddDetailMessageWithCode("endpoint is required", "endpoint.required")

	connectErr := err.ConnectError()
	assert.Equal(t, connect.CodeInvalidArgument, connectErr.Code())
	assert.Equal(t, "invalid subscription", connectErr.Message())
	require.Len(t, connectErr.Details(), 1)

	msg, derr := connectErr.Details()[0].Value()
	require.NoError(t, derr)
	v, ok := msg.(*validate.Violation)
	require.True(t, ok)
	assert.Equal(t, "endpoint.required", v.GetRuleId())
}

func TestExtractConnectError(t *testing.T) {
	ctx := clog.ContextWithSlog(context.Background())

	assert.NoError(t, ExtractConnectError(ctx, nil))

	err := ExtractConnectError(ctx, errors.New("plain"))
	var connectErr *connect.Error
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, connect.CodeUnknown, connectErr.Code())
	assert.EqualError(t, clog.GetError(ctx), "plain")

	err = ExtractConnectError(ctx, context.Canceled)
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, connect.CodeCanceled, connectErr.Code())
}

func serveWithMiddleware(t *testing.T, h http.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewJSONResponseChiMiddleware()(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestJSONResponseMiddleware(t *testing.T) {
	t.Run("response", func(t *testing.T) {
		rec, out := serveWithMiddleware(t, func(_ http.ResponseWriter, r *http.Request) {
			SetJSONResponse(r.Context(), map[string]string{"message": "<b>hi</b> & 👋"})
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<b>hi</b> & 👋")
		assert.Equal(t, "<b>hi</b> & 👋", out["message"])
	})

	t.Run("error with details", func(t *testing.T) {
		rec, out := serveWithMiddleware(t, func(_ http.ResponseWriter, r *http.Request) {
			err := NewError(InvalidArgument, "invalid subscription", nil)
			err.AddDetailMessageWithCode("endpoint is required", "endpoint.required")
			err.AddDetailMessage("check the browser")
			SetJSONError(r.Context(), err)
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "InvalidArgument", out["code"])
		assert.Equal(t, "invalid subscription", out["message"])
		assert.Equal(t, []any{
			map[string]any{"rule_id": "endpoint.required", "message": "endpoint is required"},
			map[string]any{"message": "check the browser"},
		}, out["details"])
	})

	t.Run("plain error", func(t *testing.T) {
		rec, out := serveWithMiddleware(t, func(_ http.ResponseWriter, r *http.Request) {
			SetJSONError(r.Context(), errors.New("secret internals"))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "unknown error", out["message"])
		assert.NotContains(t, rec.Body.String(), "secret internals")
	})

	t.Run("new error", func(t *testing.T) {
		rec, out := serveWithMiddleware(t, func(_ http.ResponseWriter, r *http.Request) {
			SetNewJSONError(r.Context(), FailedPrecondition, "notification failed: expired", nil)
		})
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
		assert.Equal(t, "FailedPrecondition", out["code"])
	})
}

func TestJSONResponseMiddleware_HandlerWritesItself(t *testing.T) {
	rec := httptest.NewRecorder()
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	NewJSONResponseChiMiddleware()(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}
