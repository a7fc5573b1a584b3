package auth

import (
	"testing"
	"time"

	"clinic-console/internal/model"
)

const secret = "test-secret"

func TestMakeAndParseToken(t *testing.T) {
	s := model.Session{UserID: "42", Username: "drhouse", Email: "h@clinic.test", Roles: []model.Role{model.RoleDoctor}}
	tok, err := MakeToken(s, secret, time.Hour)
	if err != nil {
		t.Fatalf("make: %v", err)
	}

	c, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := c.Session()
	if got.UserID != "42" || got.Username != "drhouse" {
		t.Errorf("unexpected session %+v", got)
	}
	if len(got.Roles) != 1 || got.Roles[0] != model.RoleDoctor {
		t.Errorf("roles: got %v", got.Roles)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tok, _ := MakeToken(model.Session{UserID: "1"}, secret, time.Hour)
	if _, err := ParseToken(tok, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestExpired(t *testing.T) {
	live, _ := MakeToken(model.Session{UserID: "1"}, secret, time.Hour)
	dead, _ := MakeToken(model.Session{UserID: "1"}, secret, -time.Minute)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"live", live, false},
		{"expired", dead, true},
		{"opaque", "not-a-jwt", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expired(tt.raw, time.Now()); got != tt.want {
				t.Errorf("Expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(h, "password123") {
		t.Error("expected password to match")
	}
	if CheckPassword(h, "wrong") {
		t.Error("expected mismatch")
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("hash not deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("distinct tokens collide")
	}
}
