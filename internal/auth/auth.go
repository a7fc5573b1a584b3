package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"clinic-console/internal/model"
)

var ErrBadToken = errors.New("invalid token")

// AccessTTL is the lifetime of tokens issued by the development backend.
const AccessTTL = 8 * time.Hour

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	UserID   string   `json:"uid"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Session converts the claims into the frontend session shape.
func (c *Claims) Session() model.Session {
	s := model.Session{
		UserID:   model.ID(c.UserID),
		Username: c.Username,
		Email:    c.Email,
	}
	for _, r := range c.Roles {
		s.Roles = append(s.Roles, model.Role(r))
	}
	return s
}

func MakeToken(s model.Session, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		UserID:   s.UserID.String(),
		Username: s.Username,
		Email:    s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	for _, r := range s.Roles {
		c.Roles = append(c.Roles, string(r))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrBadToken
	}
	return c, nil
}

// Peek decodes claims without verifying the signature. The client holds no
// key; this is only used to notice an expired token before calling out.
func Peek(raw string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Expired reports whether raw is a JWT whose exp lies before now. Opaque
// tokens and tokens without exp are never considered expired.
func Expired(raw string, now time.Time) bool {
	c, err := Peek(raw)
	if err != nil || c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.After(now)
}

// HashToken is the revocation-list key for a token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
