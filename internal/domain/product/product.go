package product

import (
	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// MaxPrice bounds a single product price so cart arithmetic stays far from
// int64 overflow.
const MaxPrice int64 = 1_000_000_000_000

// Product represents a catalog item available for purchase. Price is in the
// smallest currency unit (rupiah).
type Product struct {
	ID       int64
	Name     string
	Price    int64
	Image    string
	Category string
	Rating   float64
}

// Validate checks the product invariants shared by the catalog and stored
// carts.
func (p Product) Validate() error {
	switch {
	case p.ID <= 0:
		return &InvalidProductError{ID: p.ID, Reason: "id must be positive"}
	case p.Name == "":
		return &InvalidProductError{ID: p.ID, Reason: "name is required"}
	case p.Price < 0:
		return &InvalidProductError{ID: p.ID, Reason: "price must not be negative"}
	case p.Price > MaxPrice:
		return &InvalidProductError{ID: p.ID, Reason: "price exceeds the maximum"}
	case p.Rating < 0 || p.Rating > 5:
		return &InvalidProductError{ID: p.ID, Reason: "rating must be within 0..5"}
	}
	return nil
}

// Reader defines read operations for the product catalog.
type Reader interface {
	List() []Product
	Get(id int64) (Product, error)
}

// InvalidProductError describes a catalog entry that violates the product
// invariants.
type InvalidProductError struct {
	ID     int64
	Reason string
}

func (e *InvalidProductError) Error() string {
	return "invalid product " + formatID(e.ID) + ": " + e.Reason
}
