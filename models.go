package main

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
)

// productForm is the create/update payload, decoded from JSON or from a
// multipart form. Absent fields stay nil.
type productForm struct {
	Name        *string  `json:"name" schema:"name"`
	Description *string  `json:"description" schema:"description"`
	Price       *float64 `json:"price" schema:"price"`
	Category    *string  `json:"category" schema:"category"`
	Stock       *int     `json:"stock" schema:"stock"`
	Image       *string  `json:"image" schema:"image"`
	Status      *string  `json:"status" schema:"status"`
}

// validate checks the present fields. requireName is set for creation.
func (f *productForm) validate(requireName bool) error {
	if (requireName && f.Name == nil) || (f.Name != nil && *f.Name == "") {
		return errors.New("name required")
	}
	if f.Price != nil && *f.Price < 0 {
		return errors.New("price must not be negative")
	}
	if f.Stock != nil && *f.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	if f.Status != nil {
		if _, err := catalog.ParseStatus(*f.Status); err != nil {
			return err
		}
	}
	return nil
}

func deref[T any](p *T) T {
	var v T
	if p != nil {
		v = *p
	}
	return v
}

func (f *productForm) input() catalog.Input {
	return catalog.Input{
		Name:        deref(f.Name),
		Description: deref(f.Description),
		Price:       deref(f.Price),
		Category:    deref(f.Category),
		Stock:       deref(f.Stock),
		Image:       deref(f.Image),
	}
}

// patch must only be called after validate.
func (f *productForm) patch() catalog.Patch {
	p := catalog.Patch{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Category:    f.Category,
		Stock:       f.Stock,
		Image:       f.Image,
	}
	if f.Status != nil {
		s := catalog.Status(*f.Status)
		p.Status = &s
	}
	return p
}

type statusPayload struct {
	Status string `json:"status"`
}

// Bulk actions.
const (
	bulkDelete = "delete"
	bulkStatus = "status"
)

type bulkPayload struct {
	IDs    []int64 `json:"ids"`
	Action string  `json:"action"`
	Status string  `json:"status"`
}

type bulkResponse struct {
	Count int `json:"count"`
}

type cartAddPayload struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type cartQuantityPayload struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Items      []cart.Item `json:"items"`
	TotalItems int         `json:"totalItems"`
	TotalPrice float64     `json:"totalPrice"`
}

type checkoutPayload struct {
	Customer string `json:"customer"`
}

type meResponse struct {
	User *auth.User `json:"user"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

type errorsResponse struct {
	Errors auth.FieldErrors `json:"errors"`
}

// page is one page of a listing.
type page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Default page sizes.
const (
	productsPerPage = 10
	ordersPerPage   = 10
)

// maxPerPage caps the perPage query value.
const maxPerPage = 100

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// paginate slices items according to the page and perPage query values.
// perPage is capped at maxPerPage and pages past the end are empty.
func paginate[T any](r *http.Request, items []T, perPage int) page[T] {
	perPage = min(queryInt(r, "perPage", perPage), maxPerPage)
	n := queryInt(r, "page", 1)
	totalPages := (len(items) + perPage - 1) / perPage
	p := page[T]{
		Items:      []T{},
		Page:       n,
		PerPage:    perPage,
		Total:      len(items),
		TotalPages: totalPages,
	}
	if n > totalPages {
		return p
	}
	start := (n - 1) * perPage
	end := min(start+perPage, len(items))
	p.Items = items[start:end]
	return p
}
