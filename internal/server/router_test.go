package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/themecheck/internal/metrics"
	"github.com/ppiankov/themecheck/internal/model"
)

type validatorFake struct {
	err   error
	input model.DestinationInput
}

func (f *validatorFake) ValidateDestination(_ context.Context, input model.DestinationInput) (*model.DestinationReport, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &model.DestinationReport{
		DestinationName: input.Name,
		DestinationID:   input.DestinationID(),
		ThemesValidated: len(input.Themes),
	}, nil
}

func newHandler(v DestinationValidator, m *metrics.Metrics, maxBody int64) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(v, m, logger, maxBody).Handler()
}

func post(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/destinations/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestValidateDestination(t *testing.T) {
	fake := &validatorFake{}
	handler := newHandler(fake, nil, 0)

	res := post(t, handler, `{"destination_name":"Kyoto, Japan","themes":[{"name":"Temples","confidence":0.8}]}`)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.NotEmpty(t, res.Header().Get(requestIDHeader))

	var report model.DestinationReport
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &report))
	assert.Equal(t, "kyoto_japan", report.DestinationID)
	assert.Equal(t, 1, report.ThemesValidated)
	assert.Equal(t, "Temples", fake.input.Themes[0].Name)
}

func TestValidateDestination_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		err    error
		status int
	}{
		{name: "invalid json", method: http.MethodPost, body: "{", status: http.StatusBadRequest},
		{name: "missing name", method: http.MethodPost, body: `{"themes":[]}`, status: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{
			name:   "invalid input from validator",
			method: http.MethodPost,
			body:   `{"destination_name":"Oslo"}`,
			err:    model.WrapError(model.ErrInvalidInput, "validate", errors.New("bad")),
			status: http.StatusBadRequest,
		},
		{
			name:   "cancelled",
			method: http.MethodPost,
			body:   `{"destination_name":"Oslo"}`,
			err:    context.Canceled,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "internal",
			method: http.MethodPost,
			body:   `{"destination_name":"Oslo"}`,
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(&validatorFake{err: tt.err}, nil, 0)
			req := httptest.NewRequest(tt.method, "/v1/destinations/validate", strings.NewReader(tt.body))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			assert.Equal(t, tt.status, res.Code)
			assert.Contains(t, res.Body.String(), `"error"`)
		})
	}
}

func TestValidateDestination_BodyTooLarge(t *testing.T) {
	handler := newHandler(&validatorFake{}, nil, 64)
	body := `{"destination_name":"` + strings.Repeat("x", 128) + `"}`

	res := post(t, handler, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	m := metrics.New()
	handler := newHandler(&validatorFake{}, m, 0)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
	assert.Equal(t, "req-42", res.Header().Get(requestIDHeader))

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `themecheck_http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	handler := newHandler(&validatorFake{}, nil, 0)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(model.ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second}, newHandler(&validatorFake{}, nil, 0))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, ln, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	var res *http.Response
	require.Eventually(t, func() bool {
		var err error
		res, err = http.Post("http://"+ln.Addr().String()+"/v1/destinations/validate", "application/json",
			bytes.NewReader([]byte(`{"destination_name":"Lima"}`)))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
