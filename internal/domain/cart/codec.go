package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrMalformedSnapshot is returned when a persisted cart cannot be trusted.
var ErrMalformedSnapshot = errors.New("malformed cart snapshot")

// Snapshot field names as stored in the slot.
const (
	fieldID       = "id"
	fieldName     = "name"
	fieldPrice    = "price"
	fieldImage    = "image"
	fieldCategory = "category"
	fieldRating   = "rating"
	fieldQuantity = "quantity"
)

const (
	hasID uint8 = 1 << iota
	hasName
	hasPrice
	hasImage
	hasCategory
	hasRating
	hasQuantity

	hasAll = hasID | hasName | hasPrice | hasImage | hasCategory | hasRating | hasQuantity
)

// EncodeLines serializes lines as a JSON array of
// {id, name, price, image, category, rating, quantity} objects.
func EncodeLines(lines []Line) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart(fieldID)
		e.Int64(l.ID)
		e.FieldStart(fieldName)
		e.Str(l.Name)
		e.FieldStart(fieldPrice)
		e.Int64(l.Price)
		e.FieldStart(fieldImage)
		e.Str(l.Image)
		e.FieldStart(fieldCategory)
		e.Str(l.Category)
		e.FieldStart(fieldRating)
		e.Float64(l.Rating)
		e.FieldStart(fieldQuantity)
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeLines parses and validates a persisted snapshot. Every element must
// carry all seven fields with their exact JSON types, satisfy the catalog
// product rules, use a unique id and hold a quantity within 1..MaxQuantity.
// Unknown fields are ignored. Any violation is reported as
// ErrMalformedSnapshot.
func DecodeLines(data []byte) ([]Line, error) {
	d := jx.DecodeBytes(data)
	if tt := d.Next(); tt != jx.Array {
		return nil, errors.Wrapf(ErrMalformedSnapshot, "expected array, got %s", tt)
	}

	lines := []Line{}
	seen := make(map[int64]struct{})
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return errors.Wrapf(err, "line #%d", len(lines))
		}
		if _, dup := seen[l.ID]; dup {
			return errors.Errorf("line #%d: duplicate id %d", len(lines), l.ID)
		}
		seen[l.ID] = struct{}{}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, errors.Wrapf(ErrMalformedSnapshot, "%v", err)
	}
	if tt := d.Next(); tt != jx.Invalid {
		return nil, errors.Wrapf(ErrMalformedSnapshot, "trailing %s after array", tt)
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (Line, error) {
	var (
		l   Line
		set uint8
	)
	if tt := d.Next(); tt != jx.Object {
		return l, errors.Errorf("expected object, got %s", tt)
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case fieldID:
			l.ID, err = d.Int64()
			set |= hasID
		case fieldName:
			l.Name, err = d.Str()
			set |= hasName
		case fieldPrice:
			l.Price, err = d.Int64()
			set |= hasPrice
		case fieldImage:
			l.Image, err = d.Str()
			set |= hasImage
		case fieldCategory:
			l.Category, err = d.Str()
			set |= hasCategory
		case fieldRating:
			l.Rating, err = d.Float64()
			set |= hasRating
		case fieldQuantity:
			l.Quantity, err = d.Int()
			set |= hasQuantity
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return l, err
	}

	if set != hasAll {
		return l, errors.Errorf("missing fields (mask %07b)", set)
	}
	if err := l.Product.Validate(); err != nil {
		return l, err
	}
	if l.Quantity < 1 || l.Quantity > MaxQuantity {
		return l, errors.Errorf("quantity %d for id %d is outside 1..%d", l.Quantity, l.ID, MaxQuantity)
	}
	return l, nil
}
