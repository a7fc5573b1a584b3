// Package api is the typed REST surface of the clinic backend.
package api

import (
	"context"
	"encoding/json"
	"net/url"

	"clinic-console/internal/model"
)

// Requester is satisfied by *transport.Client.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// Client groups the endpoint families.
type Client struct {
	Auth         *Auth
	Users        *Users
	Appointments *Appointments
	Directory    *Directory
	Pharmacy     *Pharmacy
}

func New(r Requester) *Client {
	return &Client{
		Auth:         &Auth{r: r},
		Users:        &Users{r: r},
		Appointments: &Appointments{r: r},
		Directory:    &Directory{r: r},
		Pharmacy:     &Pharmacy{r: r},
	}
}

func seg(id model.ID) string { return url.PathEscape(id.String()) }

// AuthResponse is what login and register return. Some deployments nest
// the user under "user", others put its fields beside the token.
type AuthResponse struct {
	Token string
	User  model.Session
}

func (a *AuthResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Token       string         `json:"token"`
		AccessToken string         `json:"accessToken"`
		User        *model.Session `json:"user"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.Token = raw.Token
	if a.Token == "" {
		a.Token = raw.AccessToken
	}
	if raw.User != nil {
		a.User = *raw.User
		return nil
	}
	return json.Unmarshal(b, &a.User)
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Phone    string     `json:"phone,omitempty"`
}
