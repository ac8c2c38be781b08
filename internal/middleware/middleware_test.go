package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/terra-energy/inspecciones/internal/utils"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuth(t *testing.T) {
	secret := "test-secret"
	token, err := utils.GenerateToken("inspector", "inspector", time.Hour, secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var sub interface{}
	h := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := Claims(r.Context())
		sub = claims["sub"]
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documentos/x/pdf", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("body = %s, want JSON error", rec.Body.String())
			}
		})
	}
	if sub != "inspector" {
		t.Errorf("claims not propagated, sub = %v", sub)
	}
}

func TestIPRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewIPRateLimiter(ctx, 0.001, 2)
	h := rl.Middleware(ok)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/verificar/abc", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := do("10.0.0.1:1000"); got != http.StatusNoContent {
		t.Fatalf("first request = %d", got)
	}
	if got := do("10.0.0.1:1001"); got != http.StatusNoContent {
		t.Fatalf("second request = %d", got)
	}
	if got := do("10.0.0.1:1002"); got != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", got)
	}
	if got := do("10.0.0.2:1000"); got != http.StatusNoContent {
		t.Fatalf("other client = %d, want its own bucket", got)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Documento no encontrado"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documentos/x/pdf", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["path"] != "/api/documentos/x/pdf" {
		t.Errorf("path field = %v", fields["path"])
	}
}
