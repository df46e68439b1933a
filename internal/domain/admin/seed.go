package admin

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// DecodeItems reads a JSON array of {id, name, stock, price, category}
// objects. Prices are decimal strings. Every item is validated.
func DecodeItems(r io.Reader) ([]Item, error) {
	d := jx.Decode(r, 4096)
	var items []Item
	if err := d.Arr(func(d *jx.Decoder) error {
		var it Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				it.ID, err = d.Str()
			case "name":
				it.Name, err = d.Str()
			case "stock":
				it.Stock, err = d.Int()
			case "price":
				var s string
				if s, err = d.Str(); err == nil {
					it.Price, err = decimal.NewFromString(s)
				}
			case "category":
				it.Category, err = d.Str()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "item #%d", len(items))
		}
		if it.ID == "" {
			return errors.Errorf("item #%d: missing id", len(items))
		}
		if err := it.Validate(); err != nil {
			return errors.Wrapf(err, "item %q", it.ID)
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode inventory")
	}
	return items, nil
}
