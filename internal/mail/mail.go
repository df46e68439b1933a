// Package mail sends order confirmations.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/xenking/dkopi/internal/domain/order"
)

var (
	_ order.Mailer = (*SMTP)(nil)
	_ order.Mailer = Log{}
)

// Config holds SMTP settings. An empty Host selects the Log mailer.
type Config struct {
	Host     string `default:"" usage:"SMTP host; empty disables mail delivery" flag:"smtp-host"`
	Port     int    `default:"587" usage:"SMTP port" flag:"smtp-port"`
	User     string `default:"" usage:"SMTP user" flag:"smtp-user"`
	Password string `default:"" usage:"SMTP password" flag:"smtp-password"`
	From     string `default:"D'Kopi <orders@dkopi.com>" usage:"Sender address" flag:"smtp-from"`
}

// New returns an SMTP mailer when cfg.Host is set, otherwise Log.
func New(cfg Config) order.Mailer {
	if cfg.Host == "" {
		return Log{}
	}
	return NewSMTP(cfg)
}

// SMTP delivers confirmations through an SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP returns an SMTP mailer for cfg.
func NewSMTP(cfg Config) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// OrderPlaced mails the confirmation. Orders without an email are skipped.
func (s *SMTP) OrderPlaced(ctx context.Context, o *order.Order) error {
	if o.Email == "" {
		return nil
	}
	subject, text := Render(o)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", o.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrapf(err, "send confirmation for %q", o.ID)
	}
	zctx.From(ctx).Debug("Confirmation sent", zap.String("order_id", o.ID))
	return nil
}

// Log records confirmations in the request log instead of sending them.
type Log struct{}

func (Log) OrderPlaced(ctx context.Context, o *order.Order) error {
	subject, _ := Render(o)
	zctx.From(ctx).Info("Order confirmation (not sent)",
		zap.String("order_id", o.ID),
		zap.String("to", o.Email),
		zap.String("subject", subject),
	)
	return nil
}

// Render builds the subject and plain-text body of a confirmation.
func Render(o *order.Order) (subject, body string) {
	subject = fmt.Sprintf("D'Kopi order %s confirmed", shortID(o.ID))

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", o.Customer)
	b.WriteString("Thank you for your purchase! Here is your order summary.\n\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "  %d x %s  %s\n", l.Quantity, l.Name, rupiah(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", rupiah(o.Subtotal))
	fmt.Fprintf(&b, "Shipping: %s\n", shippingLabel(o.Shipping))
	fmt.Fprintf(&b, "Total:    %s\n\n", rupiah(o.Total))
	fmt.Fprintf(&b, "Ship to: %s\n", o.Address)
	if o.Notes != "" {
		fmt.Fprintf(&b, "Notes:   %s\n", o.Notes)
	}
	fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	return subject, b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func shippingLabel(d decimal.Decimal) string {
	if d.IsZero() {
		return "Free"
	}
	return rupiah(d)
}

// rupiah formats d as "Rp 1.234.567".
func rupiah(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
