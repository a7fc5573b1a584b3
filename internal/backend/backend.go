// Package backend is the in-memory clinic behind the development server.
package backend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"clinic-console/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalid, msg) }

// Account is a user plus the fields only the server sees.
type Account struct {
	model.User
	PasswordHash   string
	Specialization string
	Age            int
	Gender         string
}

func (a Account) Session() model.Session {
	return model.Session{
		UserID:   a.UserID,
		Username: a.Username,
		Email:    a.Email,
		Roles:    []model.Role{a.Role},
	}
}

type Clinic struct {
	mu            sync.RWMutex
	accounts      []*Account
	appointments  []model.Appointment
	medicines     []model.Medicine
	prescriptions []model.Prescription
	revoked       map[string]time.Time
	seq           int
	now           func() time.Time
}

func New() *Clinic {
	return &Clinic{revoked: map[string]time.Time{}, now: time.Now}
}

// next hands out the numeric ids used by appointments, medicines and
// prescriptions. Must be called with mu held.
func (c *Clinic) next() model.ID {
	c.seq++
	return model.ID(strconv.Itoa(c.seq))
}

func (c *Clinic) CreateAccount(a Account) (model.User, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.Role == "" {
		a.Role = model.RolePatient
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if lo.ContainsBy(c.accounts, func(x *Account) bool { return x.Email == a.Email }) {
		return model.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if a.UserID == "" {
		a.UserID = model.ID(uuid.NewString())
	}
	if a.Active == nil {
		a.Active = lo.ToPtr(true)
	}
	c.accounts = append(c.accounts, &a)
	return a.User, nil
}

func (c *Clinic) AccountByEmail(email string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := lo.Find(c.accounts, func(x *Account) bool { return x.Email == email })
	if !ok {
		return Account{}, ErrNotFound
	}
	return *a, nil
}

func (c *Clinic) account(id model.ID) (*Account, bool) {
	return lo.Find(c.accounts, func(x *Account) bool { return x.UserID == id })
}

func (c *Clinic) Account(id model.ID) (Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.account(id)
	if !ok {
		return Account{}, ErrNotFound
	}
	return *a, nil
}

func (c *Clinic) Users() []model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.accounts, func(a *Account, _ int) model.User { return a.User })
}

func (c *Clinic) UpdateUser(id model.ID, in model.UserUpdate) (model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.account(id)
	if !ok {
		return model.User{}, ErrNotFound
	}
	if in.Email != "" {
		email := strings.ToLower(in.Email)
		if lo.ContainsBy(c.accounts, func(x *Account) bool { return x.Email == email && x.UserID != id }) {
			return model.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		a.Email = email
	}
	if in.Username != "" {
		a.Username = in.Username
	}
	if in.Role != "" {
		if _, ok := model.ParseRole(string(in.Role)); !ok {
			return model.User{}, invalid("unknown role")
		}
		a.Role = in.Role
	}
	if in.Phone != "" {
		a.Phone = in.Phone
	}
	if in.Active != nil {
		a.Active = lo.ToPtr(*in.Active)
	}
	return a.User, nil
}

func (c *Clinic) DeleteUser(id model.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.accounts)
	c.accounts = lo.Reject(c.accounts, func(x *Account, _ int) bool { return x.UserID == id })
	if len(c.accounts) == n {
		return ErrNotFound
	}
	return nil
}

func (c *Clinic) byRole(r model.Role) []*Account {
	return lo.Filter(c.accounts, func(a *Account, _ int) bool { return a.Role == r })
}

func toDoctor(a *Account) model.Doctor {
	return model.Doctor{ID: a.UserID, Name: a.Username, Username: a.Username, Specialization: a.Specialization, Email: a.Email}
}

func toPatient(a *Account) model.Patient {
	return model.Patient{ID: a.UserID, Name: a.Username, Username: a.Username, Age: a.Age, Gender: a.Gender, Phone: a.Phone}
}

func (c *Clinic) Doctors() []model.Doctor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.byRole(model.RoleDoctor), func(a *Account, _ int) model.Doctor { return toDoctor(a) })
}

func (c *Clinic) Doctor(id model.ID) (model.Doctor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.account(id)
	if !ok || a.Role != model.RoleDoctor {
		return model.Doctor{}, ErrNotFound
	}
	return toDoctor(a), nil
}

func (c *Clinic) Patients() []model.Patient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.byRole(model.RolePatient), func(a *Account, _ int) model.Patient { return toPatient(a) })
}

func (c *Clinic) Patient(id model.ID) (model.Patient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.account(id)
	if !ok || a.Role != model.RolePatient {
		return model.Patient{}, ErrNotFound
	}
	return toPatient(a), nil
}

// Revoke remembers a logged-out token until it would have expired anyway.
func (c *Clinic) Revoke(hash string, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for h, exp := range c.revoked {
		if exp.Before(now) {
			delete(c.revoked, h)
		}
	}
	c.revoked[hash] = until
}

func (c *Clinic) Revoked(hash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.revoked[hash]
	return ok
}
