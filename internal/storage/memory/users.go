package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/dkopi/internal/domain/admin"
)

// Users is an in-memory admin.UserRepository.
type Users struct {
	mu    sync.RWMutex
	users []admin.User
}

// NewUsers returns a repository holding seed in order.
func NewUsers(seed ...admin.User) *Users {
	return &Users{users: slices.Clone(seed)}
}

func (r *Users) List(_ context.Context, f admin.UserFilter) ([]admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]admin.User, 0, len(r.users))
	for _, u := range r.users {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *Users) Get(_ context.Context, id string) (*admin.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return nil, errors.Wrapf(admin.ErrNotFound, "user %q", id)
	}
	u := r.users[i]
	return &u, nil
}

func (r *Users) UpdateRole(_ context.Context, id string, role admin.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return errors.Wrapf(admin.ErrNotFound, "user %q", id)
	}
	r.users[i].Role = role
	return nil
}

func (r *Users) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *Users) index(id string) int {
	return slices.IndexFunc(r.users, func(u admin.User) bool { return u.ID == id })
}
