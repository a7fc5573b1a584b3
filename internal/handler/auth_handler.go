package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"clinic-console/internal/auth"
	"clinic-console/internal/backend"
	"clinic-console/internal/model"
)

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string        `json:"token"`
	User  model.Session `json:"user"`
}

func (h *Handler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	role := model.RolePatient
	if req.Role != "" {
		r, ok := model.ParseRole(req.Role)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
		}
		role = r
	}
	if role == model.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "admin accounts cannot self-register")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	u, err := h.clinic.CreateAccount(backend.Account{
		User:         model.User{Username: req.Username, Email: req.Email, Role: role, Phone: req.Phone},
		PasswordHash: hash,
	})
	if err != nil {
		// duplicate email, but don't reveal that
		return echo.NewHTTPError(http.StatusConflict, "registration failed")
	}

	return h.issue(c, http.StatusCreated, backend.Account{User: u})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	a, err := h.clinic.AccountByEmail(req.Email)
	if err != nil || !auth.CheckPassword(a.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if a.Active != nil && !*a.Active {
		return echo.NewHTTPError(http.StatusForbidden, "account disabled")
	}
	return h.issue(c, http.StatusOK, a)
}

func (h *Handler) issue(c echo.Context, code int, a backend.Account) error {
	s := a.Session()
	tok, err := auth.MakeToken(s, h.secret, auth.AccessTTL)
	if err != nil {
		return err
	}
	h.log.Info().Str("user", s.UserID.String()).Msg("token issued")
	return c.JSON(code, authResponse{Token: tok, User: s})
}

// Logout revokes the presented token for the rest of its lifetime.
func (h *Handler) Logout(c echo.Context) error {
	raw := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	until := time.Now().Add(auth.AccessTTL)
	if cl := caller(c.Request().Context()); cl != nil && cl.ExpiresAt != nil {
		until = cl.ExpiresAt.Time
	}
	h.clinic.Revoke(auth.HashToken(raw), until)
	return message(c, http.StatusOK, "Logged out")
}

// Me answers from the account record so role changes show up without a new
// token.
func (h *Handler) Me(c echo.Context) error {
	cl := caller(c.Request().Context())
	a, err := h.clinic.Account(model.ID(cl.UserID))
	if errors.Is(err, backend.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a.Session())
}
