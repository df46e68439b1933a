package order

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/xenking/dkopi/internal/domain/cart"
)

// Shipping rules in rupiah.
const (
	FreeShippingThreshold int64 = 300000
	StandardShipping      int64 = 15000
)

// ShippingFor returns the shipping fee for a cart subtotal.
func ShippingFor(subtotal int64) int64 {
	if subtotal == 0 || subtotal >= FreeShippingThreshold {
		return 0
	}
	return StandardShipping
}

// Quote is the order summary shown before checkout.
type Quote struct {
	Subtotal int64
	Shipping int64
	Total    int64
	Count    int
}

// QuoteFor prices a cart snapshot.
func QuoteFor(snap cart.Snapshot) Quote {
	shipping := ShippingFor(snap.Total)
	return Quote{
		Subtotal: snap.Total,
		Shipping: shipping,
		Total:    snap.Total + shipping,
		Count:    snap.Count,
	}
}

// PaymentMethod is how the shopper intends to pay.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank-transfer"
	PaymentCreditCard   PaymentMethod = "credit-card"
	PaymentEWallet      PaymentMethod = "e-wallet"
)

// Provinces accepted in the shipping address.
var Provinces = []string{"jakarta", "west-java", "east-java", "central-java", "yogyakarta", "bali"}

// ValidationError reports the first invalid checkout field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Form is the checkout form.
type Form struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Address       string
	City          string
	PostalCode    string
	Province      string
	Notes         string
	PaymentMethod PaymentMethod
}

// Normalize trims every field and applies the default payment method.
func (f *Form) Normalize() {
	for _, s := range []*string{
		&f.FirstName, &f.LastName, &f.Email, &f.Phone, &f.Address,
		&f.City, &f.PostalCode, &f.Province, &f.Notes,
	} {
		*s = strings.TrimSpace(*s)
	}
	f.Province = strings.ToLower(f.Province)
	if f.PaymentMethod == "" {
		f.PaymentMethod = PaymentBankTransfer
	}
}

// Validate checks required fields in form order.
func (f Form) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", f.FirstName},
		{"lastName", f.LastName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"address", f.Address},
		{"city", f.City},
		{"postalCode", f.PostalCode},
		{"province", f.Province},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.name, Reason: "required"}
		}
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return &ValidationError{Field: "email", Reason: "invalid address"}
	}
	if !slices.Contains(Provinces, f.Province) {
		return &ValidationError{Field: "province", Reason: fmt.Sprintf("unknown province %q", f.Province)}
	}
	switch f.PaymentMethod {
	case PaymentBankTransfer, PaymentCreditCard, PaymentEWallet:
	default:
		return &ValidationError{Field: "paymentMethod", Reason: fmt.Sprintf("unsupported method %q", f.PaymentMethod)}
	}
	return nil
}

// CustomerName is "First Last".
func (f Form) CustomerName() string {
	return f.FirstName + " " + f.LastName
}

// ShippingAddress formats the address on one line.
func (f Form) ShippingAddress() string {
	return fmt.Sprintf("%s, %s %s, %s", f.Address, f.City, f.PostalCode, f.Province)
}
