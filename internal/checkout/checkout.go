// Package checkout turns the active cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/notify"
	"storefront/internal/orders"

	"github.com/decred/slog"
)

// ErrEmptyCart is returned when checking out an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// DefaultDelay is the simulated payment processing time.
const DefaultDelay = 2 * time.Second

// Service places orders from a cart, one at a time.
type Service struct {
	// sem holds the single checkout slot.
	sem    chan struct{}
	cart   *cart.Cart
	orders *orders.Repository
	sink   notify.Sink
	log    slog.Logger
	delay  time.Duration
}

// NewService returns a checkout service waiting delay before each order is
// placed.
func NewService(c *cart.Cart, o *orders.Repository, sink notify.Sink, log slog.Logger, delay time.Duration) *Service {
	return &Service{
		sem:    make(chan struct{}, 1),
		cart:   c,
		orders: o,
		sink:   sink,
		log:    log,
		delay:  delay,
	}
}

// Place creates a pending order for customer from the current cart and
// takes the ordered lines out of it. Calls are serialized, so a repeated
// checkout sees the cart the previous one left behind.
func (s *Service) Place(ctx context.Context, customer string) (orders.Order, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return orders.Order{}, fmt.Errorf("checkout aborted: %w", ctx.Err())
	}
	defer func() { <-s.sem }()

	items := s.cart.Items()
	if len(items) == 0 {
		return orders.Order{}, ErrEmptyCart
	}

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return orders.Order{}, fmt.Errorf("checkout aborted: %w", ctx.Err())
		case <-t.C:
		}
	}

	o := s.orders.Create(orders.Input{
		Items:      items,
		TotalPrice: cart.Total(items),
		Customer:   customer,
	})
	s.cart.Deduct(items)
	s.sink.Notify(notify.New(notify.LevelSuccess, "Order confirmed",
		fmt.Sprintf("Order %s was placed successfully", o.ID)))
	return o, nil
}
