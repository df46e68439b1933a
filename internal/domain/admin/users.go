package admin

import (
	"context"
	"strings"
)

// UserRole is the role shown in the user list.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// ParseUserRole validates s.
func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(s); r {
	case UserRoleUser, UserRoleAdmin:
		return r, nil
	default:
		return "", &ValidationError{Field: "role", Reason: "unknown role " + s}
	}
}

// User is a storefront customer account.
type User struct {
	ID     string
	Name   string
	Email  string
	Role   UserRole
	Orders int
	Active bool
}

// UserFilter narrows a user listing. Zero values match everything.
type UserFilter struct {
	// Search matches name or email, case-insensitively.
	Search string
	Role   UserRole
}

// Match reports whether u passes the filter.
func (f UserFilter) Match(u User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(u.Name), q) ||
		strings.Contains(strings.ToLower(u.Email), q)
}

// UserRepository persists storefront users.
type UserRepository interface {
	List(ctx context.Context, f UserFilter) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	UpdateRole(ctx context.Context, id string, role UserRole) error
	Count(ctx context.Context) (int, error)
}
