package state

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"clinic-console/internal/model"
	"clinic-console/internal/notify"
)

type UsersAPI interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id model.ID) (model.User, error)
	Update(ctx context.Context, id model.ID, in model.UserUpdate) (model.User, error)
	Delete(ctx context.Context, id model.ID) error
}

type Users struct {
	*base
	api      UsersAPI
	items    []model.User
	selected *model.User
}

func NewUsers(a UsersAPI, n notify.Notifier, log zerolog.Logger) *Users {
	return &Users{base: newBase("users", n, log), api: a}
}

func (s *Users) Items() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

func (s *Users) Selected() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.selected)
}

func (s *Users) ClearSelected() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// CountByRole tallies the loaded users per role.
func (s *Users) CountByRole() map[model.Role]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.CountValuesBy(s.items, func(u model.User) model.Role { return u.Role })
}

func (s *Users) Fetch(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchUsers", fallback: "Failed to fetch users"},
		s.api.List, func(us []model.User) { replaceAll(&s.items, us) })
	return err
}

func (s *Users) Get(ctx context.Context, id model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchUser", fallback: "Failed to fetch user"},
		func(ctx context.Context) (model.User, error) { return s.api.Get(ctx, id) },
		func(u model.User) { s.selected = &u })
	return err
}

func (s *Users) Update(ctx context.Context, id model.ID, in model.UserUpdate) error {
	_, err := run(ctx, s.base, op{name: "updateUser", fallback: "Failed to update user", success: "User updated successfully"},
		func(ctx context.Context) (model.User, error) { return s.api.Update(ctx, id, in) },
		func(u model.User) {
			if u.UserID == "" {
				u.UserID = id
			}
			replaceByResponse(&s.items, u)
			syncSelected(&s.selected, u)
		})
	return err
}

func (s *Users) Delete(ctx context.Context, id model.ID) error {
	return exec(ctx, s.base, op{name: "deleteUser", fallback: "Failed to delete user", success: "User deleted successfully"},
		func(ctx context.Context) error { return s.api.Delete(ctx, id) },
		func() {
			removeByKey(&s.items, id)
			if s.selected != nil && s.selected.UserID == id {
				s.selected = nil
			}
		})
}
