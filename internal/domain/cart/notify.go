package cart

import (
	"context"
	"fmt"
)

// Kind classifies a user-visible cart notification.
type Kind string

const (
	KindAdded     Kind = "added"
	KindIncreased Kind = "increased"
	KindRemoved   Kind = "removed"
	KindCleared   Kind = "cleared"
)

// Notification is a short message shown to the shopper after a mutation.
type Notification struct {
	Kind        Kind
	Title       string
	Description string
	ProductID   int64
	// Quantity is the resulting line quantity for KindAdded and KindIncreased.
	Quantity int
}

// Notifier receives notifications emitted by a Store. Notify is called after
// the store lock is released.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

func addedNotification(l Line) Notification {
	return Notification{
		Kind:        KindAdded,
		Title:       "Added to cart",
		Description: fmt.Sprintf("%s has been added to your cart.", l.Name),
		ProductID:   l.ID,
		Quantity:    l.Quantity,
	}
}

func increasedNotification(l Line) Notification {
	return Notification{
		Kind:        KindIncreased,
		Title:       "Cart updated",
		Description: fmt.Sprintf("%s quantity increased to %d.", l.Name, l.Quantity),
		ProductID:   l.ID,
		Quantity:    l.Quantity,
	}
}

func removedNotification(l Line) Notification {
	return Notification{
		Kind:        KindRemoved,
		Title:       "Item removed",
		Description: fmt.Sprintf("%s has been removed from your cart.", l.Name),
		ProductID:   l.ID,
	}
}

func clearedNotification() Notification {
	return Notification{
		Kind:        KindCleared,
		Title:       "Cart cleared",
		Description: "All items have been removed from your cart.",
	}
}
