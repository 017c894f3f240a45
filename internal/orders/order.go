package orders

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// StatusAll is the filter sentinel matching every status.
const StatusAll Status = "all"

// Statuses lists the order statuses in fulfilment order.
var Statuses = []Status{
	StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

// ErrInvalidStatus is returned when parsing an unknown order status.
var ErrInvalidStatus = errors.New("invalid order status")

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Order is a placed order. Date is the creation time in RFC 3339 with
// millisecond precision.
type Order struct {
	ID         string      `json:"id"`
	Items      []cart.Item `json:"items"`
	TotalPrice float64     `json:"totalPrice"`
	Customer   string      `json:"customer"`
	Date       string      `json:"date"`
	Status     Status      `json:"status"`
}

// Time parses Date.
func (o Order) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, o.Date)
}

// Input holds the fields of an order being created.
type Input struct {
	Items      []cart.Item
	TotalPrice float64
	Customer   string
}
