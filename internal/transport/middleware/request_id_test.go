package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/questforge/questforge/pkg/ctxutil"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var ctxID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = ctxutil.RequestIDFromCtx(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if ctxID == "" {
		t.Fatal("request ID not stored in context")
	}
	if _, err := uuid.Parse(ctxID); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", ctxID, err)
	}
	if got := rec.Header().Get("X-Request-Id"); got != ctxID {
		t.Errorf("response header = %q, want %q", got, ctxID)
	}
}

func TestRequestID_KeepsInboundHeader(t *testing.T) {
	var ctxID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = ctxutil.RequestIDFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "proxy-supplied-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ctxID != "proxy-supplied-id" {
		t.Errorf("context ID = %q, want inbound header value", ctxID)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "proxy-supplied-id" {
		t.Errorf("response header = %q, want echoed inbound value", got)
	}
}
