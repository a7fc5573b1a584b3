package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ID identifies an entity. Backends emit ids either as JSON numbers or as
// strings; both decode into the same value and numeric ids are written back
// as numbers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (id ID) String() string { return string(id) }

type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleDoctor       Role = "DOCTOR"
	RolePharmacist   Role = "PHARMACIST"
	RoleReceptionist Role = "RECEPTIONIST"
	RolePatient      Role = "PATIENT"
)

var roleLabels = map[Role]string{
	RoleAdmin:        "Administrator",
	RoleDoctor:       "Doctor",
	RolePharmacist:   "Pharmacist",
	RoleReceptionist: "Receptionist",
	RolePatient:      "Patient",
}

// Label is the display name of the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// ParseRole accepts any casing of a known role name.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := roleLabels[r]
	return r, ok
}

// Session is the authenticated user as seen by the frontend. Token is never
// serialized; it lives in the session manager and the token store.
type Session struct {
	UserID   ID     `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Roles    []Role `json:"roles"`
	Token    string `json:"-"`
}

// UnmarshalJSON accepts both the roles array and the single role field some
// endpoints return, and "id" in place of "userId".
func (s *Session) UnmarshalJSON(b []byte) error {
	type plain Session
	var raw struct {
		plain
		ID   ID     `json:"id"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Session(raw.plain)
	if s.UserID == "" {
		s.UserID = raw.ID
	}
	if len(s.Roles) == 0 && raw.Role != "" {
		s.Roles = []Role{Role(raw.Role)}
	}
	if len(s.Roles) > 0 {
		s.Roles = lo.Map(s.Roles, func(r Role, _ int) Role {
			return Role(strings.ToUpper(strings.TrimSpace(string(r))))
		})
	}
	return nil
}

// User is the admin-facing account record.
type User struct {
	UserID   ID     `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

func (u User) Key() ID { return u.UserID }

// UserUpdate is the body of PUT /users/{id}. Empty fields are omitted.
type UserUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}
