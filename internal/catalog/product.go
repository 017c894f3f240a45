package catalog

import (
	"errors"
	"fmt"
)

// PlaceholderImage is used for products created without an image.
const PlaceholderImage = "/placeholder.svg"

// Status is the publication state of a product.
type Status string

const (
	StatusPublished  Status = "published"
	StatusDraft      Status = "draft"
	StatusOutOfStock Status = "out_of_stock"
)

// ErrInvalidStatus is returned when parsing an unknown product status.
var ErrInvalidStatus = errors.New("invalid product status")

// Valid returns whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPublished, StatusDraft, StatusOutOfStock:
		return true
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

// Product is a catalogue entry.
type Product struct {
	ID            int64   `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Description   string  `json:"description" yaml:"description"`
	Price         float64 `json:"price" yaml:"price"`
	Category      string  `json:"category" yaml:"category"`
	Image         string  `json:"image" yaml:"image"`
	ImagePublicID string  `json:"imagePublicId,omitempty" yaml:"-"`
	Stock         int     `json:"stock" yaml:"stock"`
	Status        Status  `json:"status,omitempty" yaml:"status,omitempty"`
}

// Input holds the fields of a product being created.
type Input struct {
	Name          string
	Description   string
	Price         float64
	Category      string
	Stock         int
	Image         string
	ImagePublicID string
}

// Patch holds the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Name          *string
	Description   *string
	Price         *float64
	Category      *string
	Stock         *int
	Image         *string
	ImagePublicID *string
	Status        *Status
}

// creationStatus is the status assigned to new and seeded products.
func creationStatus(stock int) Status {
	if stock > 0 {
		return StatusPublished
	}
	return StatusDraft
}

// restockStatus is the status assigned when an update sets the stock.
func restockStatus(stock int) Status {
	if stock > 0 {
		return StatusPublished
	}
	return StatusOutOfStock
}

func (p *Product) apply(patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.ImagePublicID != nil {
		p.ImagePublicID = *patch.ImagePublicID
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
		p.Status = restockStatus(p.Stock)
	}
}
