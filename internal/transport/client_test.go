package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"clinic-console/internal/session"
	"clinic-console/internal/store"
)

func setup(t *testing.T, h http.HandlerFunc) (*Client, *session.Manager, *store.Memory) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tokens := store.NewMemory("")
	sess := session.New(tokens, zerolog.Nop())
	c, err := New(Options{BaseURL: srv.URL, Timeout: time.Second}, sess, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, sess, tokens
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	sess := session.New(store.NewMemory(""), zerolog.Nop())
	if _, err := New(Options{BaseURL: "/api"}, sess, zerolog.Nop()); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestHeaders(t *testing.T) {
	var got http.Header
	var gotQuery url.Values
	c, sess, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	// no session: no Authorization header
	if err := c.Get(context.Background(), "/medicines", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Get("Authorization") != "" {
		t.Errorf("unexpected auth header %q", got.Get("Authorization"))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("content type: %q", got.Get("Content-Type"))
	}
	if got.Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}

	sess.Begin(context.Background(), "tok-123")
	var out map[string]string
	q := url.Values{"doctorId": {"3"}, "date": {"2025-01-10"}}
	if err := c.Get(context.Background(), "/appointments/available-slots", q, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Get("Authorization") != "Bearer tok-123" {
		t.Errorf("auth header: %q", got.Get("Authorization"))
	}
	if gotQuery.Get("doctorId") != "3" || gotQuery.Get("date") != "2025-01-10" {
		t.Errorf("query: %v", gotQuery)
	}
	if out["ok"] != "yes" {
		t.Errorf("decoded body: %v", out)
	}
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	c, sess, tokens := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})
	ctx := context.Background()
	sess.Begin(ctx, "tok")

	var reasons []string
	sess.OnTeardown(func(r string) { reasons = append(reasons, r) })

	err := c.Get(ctx, "/appointments", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if Message(err, "fallback") != "token expired" {
		t.Errorf("message: %q", Message(err, "fallback"))
	}
	if sess.HasToken() {
		t.Error("session token survived a 401")
	}
	if saved, _ := tokens.Load(ctx); saved != "" {
		t.Errorf("stored token survived a 401: %q", saved)
	}
	if len(reasons) != 1 || reasons[0] != session.ReasonUnauthorized {
		t.Errorf("teardown listeners: %v", reasons)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	c, sess, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "old token"})
	})
	ctx := context.Background()
	sess.Begin(ctx, "old")

	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		err = c.Get(ctx, "/appointments", nil, nil)
	}()

	// a new login lands while the old request is in flight
	time.Sleep(50 * time.Millisecond)
	sess.Begin(ctx, "new")
	close(release)
	wg.Wait()

	if !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
	if tok, _ := sess.Token(); tok != "new" {
		t.Fatalf("stale 401 tore down new session, token %q", tok)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	sess := session.New(store.NewMemory(""), zerolog.Nop())
	c, _ := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, sess, zerolog.Nop())

	err := c.Get(context.Background(), "/appointments", nil, nil)
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if Message(err, "Failed to fetch appointments") != "Failed to fetch appointments" {
		t.Error("timeout should fall back to the default message")
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	sess := session.New(store.NewMemory(""), zerolog.Nop())
	c, _ := New(Options{BaseURL: addr}, sess, zerolog.Nop())
	err := c.Get(context.Background(), "/medicines", nil, nil)
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode codes.Code
		wantMsg  string
	}{
		{"validation", 400, `{"message":"date is required"}`, codes.InvalidArgument, "date is required"},
		{"forbidden", 403, `{"message":"admins only"}`, codes.PermissionDenied, "admins only"},
		{"missing", 404, `{}`, codes.NotFound, "fallback"},
		{"conflict", 409, `{"message":"slot taken"}`, codes.AlreadyExists, "slot taken"},
		{"server no body", 500, ``, codes.Internal, "fallback"},
		{"server text", 502, `bad gateway`, codes.Internal, "fallback"},
		{"unavailable", 503, `{"message":"maintenance"}`, codes.Unavailable, "maintenance"},
		{"teapot", 418, `{"message":"short and stout"}`, codes.Unknown, "short and stout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			err := c.Post(context.Background(), "/medicines", map[string]string{"name": "x"}, nil)
			if got := status.Code(err); got != tt.wantCode {
				t.Errorf("code: got %v want %v", got, tt.wantCode)
			}
			if got := Message(err, "fallback"); got != tt.wantMsg {
				t.Errorf("message: got %q want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestErrorBodyDetails(t *testing.T) {
	c, _, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad", "field": "price"})
	})
	err := c.Put(context.Background(), "/medicines/1", map[string]int{"price": -1}, nil)
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	var found bool
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok && s.GetFields()["field"].GetStringValue() == "price" {
			found = true
		}
	}
	if !found {
		t.Errorf("body not carried in status details: %v", st.Details())
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	c, _, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	var out []string
	err := c.Get(context.Background(), "/medicines", nil, &out)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestEmptySuccessBody(t *testing.T) {
	c, _, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	var out map[string]any
	if err := c.Delete(context.Background(), "/medicines/1", &out); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSignInRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
	}))
	defer srv.Close()

	sess := session.New(store.NewMemory(""), zerolog.Nop())
	c, _ := New(Options{BaseURL: srv.URL, AuthRPS: 0.001, AuthBurst: 1}, sess, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := c.Post(ctx, "/auth/login", nil, nil); !IsUnauthorized(err) {
		t.Fatalf("first attempt should reach the server, got %v", err)
	}
	err := c.Post(ctx, "/auth/login", nil, nil)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}

	// other endpoints are not limited
	if err := c.Get(ctx, "/doctors", nil, nil); !IsUnauthorized(err) {
		t.Fatalf("unlimited endpoint: got %v", err)
	}
}
