package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/dkopi/db"
)

func ptr[T any](v T) *T { return &v }

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog("test", []Product{
		{ID: 1, Name: "Aceh Gayo", Price: 85000, Category: "arabica", Rating: 4.8},
		{ID: 2, Name: "Java Robusta", Price: 65000, Category: "robusta", Rating: 4.3},
		{ID: 3, Name: "Toraja Sapan", Price: 95000, Category: "premium", Rating: 4.7},
		{ID: 4, Name: "Bali Kintamani", Price: 75000, Category: "arabica", Rating: 4.6},
		{ID: 5, Name: "Luwak", Price: 250000, Category: "specialty", Rating: 4.9},
	})
	require.NoError(t, err)
	return c
}

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load(db.Catalog)
	require.NoError(t, err)

	assert.Equal(t, 12, c.Len())
	assert.NotEmpty(t, c.Version())

	p, err := c.Get(9)
	require.NoError(t, err)
	assert.Equal(t, "Luwak Premium Coffee", p.Name)
	assert.Equal(t, int64(250000), p.Price)
	assert.Equal(t, "specialty", p.Category)
	assert.InDelta(t, 4.9, p.Rating, 1e-9)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not an object", doc: `[]`},
		{name: "string price", doc: `{"products":[{"id":1,"name":"x","price":"10"}]}`},
		{name: "fractional id", doc: `{"products":[{"id":1.5,"name":"x","price":10}]}`},
		{name: "duplicate id", doc: `{"products":[{"id":1,"name":"x","price":1},{"id":1,"name":"y","price":2}]}`},
		{name: "zero id", doc: `{"products":[{"id":0,"name":"x","price":1}]}`},
		{name: "negative price", doc: `{"products":[{"id":1,"name":"x","price":-1}]}`},
		{name: "price above maximum", doc: `{"products":[{"id":1,"name":"x","price":1000000000001}]}`},
		{name: "rating above five", doc: `{"products":[{"id":1,"name":"x","price":1,"rating":5.5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestCatalog_GetNotFound(t *testing.T) {
	c := testCatalog(t)
	_, err := c.Get(42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_ListIsCopy(t *testing.T) {
	c := testCatalog(t)
	list := c.List()
	list[0].Name = "mutated"

	p, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Aceh Gayo", p.Name)
}

func TestCatalog_Find(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []int64
	}{
		{name: "no filter", filter: Filter{}, wantIDs: []int64{1, 2, 3, 4, 5}},
		{name: "category set", filter: Filter{Categories: []string{"arabica", "premium"}}, wantIDs: []int64{1, 3, 4}},
		{name: "price range inclusive", filter: Filter{MinPrice: ptr[int64](75000), MaxPrice: ptr[int64](95000)}, wantIDs: []int64{1, 3, 4}},
		{name: "min rating", filter: Filter{MinRating: ptr(4.7)}, wantIDs: []int64{1, 3, 5}},
		{name: "search by name", filter: Filter{Search: "JAVA"}, wantIDs: []int64{2}},
		{name: "search by category", filter: Filter{Search: "spec"}, wantIDs: []int64{5}},
		{name: "combined", filter: Filter{Categories: []string{"arabica"}, MinRating: ptr(4.7)}, wantIDs: []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []int64
			for _, p := range c.Find(tt.filter) {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCatalog_Browsing(t *testing.T) {
	c := testCatalog(t)

	assert.Equal(t, []string{"arabica", "robusta", "premium", "specialty"}, c.Categories())

	lo, hi := c.PriceBounds()
	assert.Equal(t, int64(65000), lo)
	assert.Equal(t, int64(250000), hi)

	assert.Len(t, c.Featured(3), 3)
	assert.Len(t, c.Featured(100), 5)

	p, err := c.Get(1)
	require.NoError(t, err)
	related := c.Related(p, 4)
	require.Len(t, related, 1)
	assert.Equal(t, int64(4), related[0].ID)
}
