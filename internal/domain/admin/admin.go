// Package admin implements the store console: session tokens, inventory,
// users, orders, settings and the dashboard.
package admin

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an inventory item or user does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
