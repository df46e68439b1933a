package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/dkopi/internal/domain/product"
)

// ListProducts handles GET /api/products.
//
// Query: category (repeatable or comma separated), minPrice, maxPrice,
// minRating, q. The response carries the filter facets next to the matches.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, field, err := parseFilter(r)
	if err != nil {
		writeFieldError(w, field, err.Error())
		return
	}

	items := h.catalog.Find(f)
	lo, hi := h.catalog.PriceBounds()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		h.encodeProducts(e, items)
		e.FieldStart("total")
		e.Int(len(items))
		e.FieldStart("categories")
		encodeStrings(e, h.catalog.Categories())
		e.FieldStart("priceRange")
		e.ObjStart()
		e.FieldStart("min")
		e.Int64(lo)
		e.FieldStart("max")
		e.Int64(hi)
		e.ObjEnd()
		e.ObjEnd()
	})
}

// FeaturedProducts handles GET /api/products/featured.
func (h *Handler) FeaturedProducts(w http.ResponseWriter, _ *http.Request) {
	items := h.catalog.Featured(featuredCount)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		h.encodeProducts(e, items)
		e.ObjEnd()
	})
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.catalog.Get(id)
	if errors.Is(err, product.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	related := h.catalog.Related(p, relatedCount)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("product")
		h.encodeProduct(e, p)
		e.FieldStart("related")
		h.encodeProducts(e, related)
		e.ObjEnd()
	})
}

func parseFilter(r *http.Request) (product.Filter, string, error) {
	q := r.URL.Query()
	f := product.Filter{Search: strings.TrimSpace(q.Get("q"))}
	for _, v := range q["category"] {
		for c := range strings.SplitSeq(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
	}
	if v := q.Get("minPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, "minPrice", errors.New("must be an integer")
		}
		f.MinPrice = &n
	}
	if v := q.Get("maxPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, "maxPrice", errors.New("must be an integer")
		}
		f.MaxPrice = &n
	}
	if v := q.Get("minRating"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, "minRating", errors.New("must be a number")
		}
		f.MinRating = &n
	}
	return f, "", nil
}

func pathProductID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

func (h *Handler) encodeProducts(e *jx.Encoder, items []product.Product) {
	e.ArrStart()
	for _, p := range items {
		h.encodeProduct(e, p)
	}
	e.ArrEnd()
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Int64(p.Price)
	e.FieldStart("image")
	e.Str(h.imageURL(p.Image))
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("rating")
	e.Float64(p.Rating)
	e.ObjEnd()
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(image string) string {
	if h.imageBaseURL == "" || image == "" ||
		strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(image, "/")
}
