package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clinic-console/internal/api"
	"clinic-console/internal/model"
	"clinic-console/internal/session"
	"clinic-console/internal/state"
	"clinic-console/internal/store"
	"clinic-console/internal/transport"
)

type fixedAuth struct {
	status state.AuthStatus
	sess   model.Session
}

func (f fixedAuth) Status() state.AuthStatus { return f.status }
func (f fixedAuth) Session() (model.Session, bool) {
	return f.sess, f.status == state.Authenticated
}

func signedIn(roles ...model.Role) fixedAuth {
	return fixedAuth{status: state.Authenticated, sess: model.Session{UserID: "1", Roles: roles}}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		auth   fixedAuth
		path   string
		kind   Kind
		target string
	}{
		{"checking blocks", fixedAuth{status: state.AuthChecking}, "/dashboard/admin", Loading, ""},
		{"unknown blocks", fixedAuth{}, "/", Loading, ""},
		{"guest to protected", fixedAuth{status: state.Unauthenticated}, "/dashboard/doctor", Redirect, Login},
		{"guest root", fixedAuth{status: state.Unauthenticated}, "/", Redirect, Login},
		{"guest login", fixedAuth{status: state.Unauthenticated}, "/login", Render, ""},
		{"guest register", fixedAuth{status: state.Unauthenticated}, "/register/", Render, ""},
		{"unauthorized page while loading", fixedAuth{}, "/unauthorized", Render, ""},
		{"doctor dashboard root", signedIn(model.RoleDoctor), "/dashboard", Redirect, "/dashboard/doctor"},
		{"no roles dashboard root", signedIn(), "/dashboard", Redirect, "/dashboard/patient"},
		{"no roles patient view", signedIn(), "/dashboard/patient", Render, ""},
		{"signed in root", signedIn(model.RolePharmacist), "/", Redirect, "/dashboard/pharmacist"},
		{"signed in login", signedIn(model.RoleAdmin), "/login", Redirect, "/dashboard/admin"},
		{"doctor on admin route", signedIn(model.RoleDoctor), "/dashboard/admin", Redirect, Unauthorized},
		{"receptionist on users", signedIn(model.RoleReceptionist), "/dashboard/users", Redirect, Unauthorized},
		{"admin on admin route", signedIn(model.RoleAdmin), "/dashboard/admin", Render, ""},
		{"shared route", signedIn(model.RoleReceptionist), "/dashboard/appointments", Render, ""},
		{"query ignored", signedIn(model.RolePharmacist), "/dashboard/medicines?page=2", Render, ""},
		{"unknown path", signedIn(model.RoleAdmin), "/nope", NotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewGuard(tt.auth).Resolve(tt.path)
			if d.Kind != tt.kind || d.Target != tt.target {
				t.Fatalf("got %v -> %q, want %v -> %q", d.Kind, d.Target, tt.kind, tt.target)
			}
		})
	}
}

func TestNavigateFollowsRedirects(t *testing.T) {
	sess := session.New(store.NewMemory(""), zerolog.Nop())
	n := NewNavigator(NewGuard(signedIn(model.RoleDoctor)), sess, zerolog.Nop())

	var seen []Decision
	n.OnChange(func(d Decision) { seen = append(seen, d) })

	d := n.Navigate("/")
	if d.Kind != Render || d.Path != "/dashboard/doctor" || d.Route.Screen != "doctor" {
		t.Fatalf("decision = %+v", d)
	}
	if len(seen) != 1 || n.Current().Path != "/dashboard/doctor" {
		t.Fatalf("changes = %+v", seen)
	}

	d = n.Navigate("/dashboard/users")
	if d.Kind != Render || d.Path != Unauthorized {
		t.Fatalf("admin route for doctor = %+v", d)
	}
}

func TestUnauthorizedResponseReturnsToLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/auth/me" {
			w.Write([]byte(`{"userId":1,"roles":["ADMIN"]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	}))
	defer srv.Close()

	tokens := store.NewMemory("tok")
	sess := session.New(tokens, zerolog.Nop())
	tc, err := transport.New(transport.Options{BaseURL: srv.URL, Timeout: time.Second}, sess, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	c := api.New(tc)
	authStore := state.NewAuth(c.Auth, sess, nil, zerolog.Nop())
	nav := NewNavigator(NewGuard(authStore), sess, zerolog.Nop())
	users := state.NewUsers(c.Users, nil, zerolog.Nop())
	ctx := context.Background()

	if d := nav.Navigate("/dashboard/users"); d.Kind != Loading {
		t.Fatalf("before restore = %+v", d)
	}
	if err := authStore.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if d := nav.Refresh(); d.Kind != Render || d.Path != "/dashboard/users" {
		t.Fatalf("after restore = %+v", d)
	}

	if err := users.Fetch(ctx); err == nil {
		t.Fatal("expected 401")
	}
	if authStore.Status() != state.Unauthenticated {
		t.Fatalf("auth status = %v", authStore.Status())
	}
	if cur := nav.Current(); cur.Path != Login {
		t.Fatalf("current = %+v", cur)
	}
	if d := nav.Refresh(); d.Kind != Render || d.Path != Login {
		t.Fatalf("refresh = %+v", d)
	}
	if tok, _ := tokens.Load(ctx); tok != "" {
		t.Fatalf("token = %q", tok)
	}
}
