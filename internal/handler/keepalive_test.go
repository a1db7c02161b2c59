package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/castiq/internal/handler"
)

type stubProber struct {
	rows int
	err  error
}

func (p stubProber) Probe(context.Context) (int, error) { return p.rows, p.err }

func TestKeepaliveHandler(t *testing.T) {
	tests := []struct {
		name   string
		prober stubProber
		want   string
	}{
		{"store awake", stubProber{rows: 1}, `{"ok":true,"supabase_rows":1}`},
		{"empty table", stubProber{rows: 0}, `{"ok":true,"supabase_rows":0}`},
		{"store down", stubProber{err: errors.New("project paused")}, `{"ok":false,"error":"project paused"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewKeepaliveHandler(tt.prober, testLogger())
			rr := httptest.NewRecorder()

			h.HandleKeepalive(rr, httptest.NewRequest(http.MethodGet, "/keepalive", nil))

			assert.Equal(t, http.StatusOK, rr.Code, "liveness never fails at the HTTP level")
			assert.JSONEq(t, tt.want, rr.Body.String())
		})
	}
}
