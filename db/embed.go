// Package db provides the embedded database migrations and the static
// product catalog shipped with the binary.
package db

import (
	"embed"
)

// Migrations holds the versioned golang-migrate files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Catalog contains the versioned product catalog document.
//
//go:embed catalog/products.json
var Catalog []byte

// Inventory contains the sample inventory loaded by seed-db and the
// in-memory repositories.
//
//go:embed seed/inventory.json
var Inventory []byte
