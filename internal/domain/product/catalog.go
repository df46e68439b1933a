package product

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

var _ Reader = (*Catalog)(nil)

// Catalog is the immutable, ordered product list loaded at start-up.
// It is safe for concurrent use because nothing mutates it after New.
type Catalog struct {
	version  string
	products []Product
	byID     map[int64]int
}

// NewCatalog validates products and builds a Catalog preserving their order.
func NewCatalog(version string, products []Product) (*Catalog, error) {
	c := &Catalog{
		version:  version,
		products: make([]Product, len(products)),
		byID:     make(map[int64]int, len(products)),
	}
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, &InvalidProductError{ID: p.ID, Reason: "duplicate id"}
		}
		c.byID[p.ID] = i
		c.products[i] = p
	}
	return c, nil
}

// Load decodes a catalog document of the form
// {"version": "...", "products": [{id, name, price, image, category, rating}]}.
func Load(data []byte) (*Catalog, error) {
	var (
		version  string
		products []Product
	)
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			version = v
			return nil
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := decodeProduct(d)
				if err != nil {
					return errors.Wrapf(err, "product #%d", len(products))
				}
				products = append(products, p)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return NewCatalog(version, products)
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = d.Int64()
		case "image":
			p.Image, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "rating":
			p.Rating, err = d.Float64()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

// Version reports the catalog document version.
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}

// List returns a copy of all products in catalog order.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id or ErrNotFound.
func (c *Catalog) Get(id int64) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return c.products[i], nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
