package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/schema"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/dashboard"
	"storefront/internal/guard"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/orders"
)

const maxUploadSize = 20 << 20

// server holds everything the HTTP handlers work on.
type server struct {
	log      slog.Logger
	products *catalog.Repository
	orders   *orders.Repository
	cart     *cart.Cart
	auth     *auth.Service
	checkout *checkout.Service
	media    media.Uploader
	sink     notify.Sink
	hub      *notify.Hub
	stats    *metrics.Stats
	forms    *schema.Decoder
}

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// routes builds the API mux. staticDir, when set, is served at the root.
func (s *server) routes(staticDir string, withMetrics bool) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.observe(pattern, h))
	}

	handle("/api/login", s.loginHandler())
	handle("/api/register", s.registerHandler())
	handle("/api/logout", s.logoutHandler())
	handle("/api/me", s.meHandler())
	handle("/api/users", s.usersHandler())

	handle("/api/products", s.productsHandler())
	handle("/api/products/", s.productItemHandler())
	handle("/api/seller/products", s.sellerProductsHandler())
	handle("/api/seller/products/bulk", s.bulkProductsHandler())
	handle("/api/seller/products/export", s.exportProductsHandler())

	handle("/api/cart", s.cartHandler())
	handle("/api/cart/", s.cartItemHandler())
	handle("/api/checkout", s.checkoutHandler())

	handle("/api/account/orders", s.accountOrdersHandler())
	handle("/api/orders", s.ordersHandler())
	handle("/api/orders/", s.orderItemHandler())

	handle("/api/dashboard/seller", s.sellerDashboardHandler())
	handle("/api/dashboard/admin", s.adminDashboardHandler())

	if s.hub != nil {
		mux.Handle("/ws", s.hub)
	}
	if withMetrics && s.stats != nil {
		mux.Handle("/metrics", s.stats.Handler())
	}
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// observe records request latency under route.
func (s *server) observe(route string, h http.HandlerFunc) http.HandlerFunc {
	if s.stats == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		s.stats.Observe(route, time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError reports an error returned by a service call. Field
// validation failures become 400 with the per-field messages.
func writeServiceError(w http.ResponseWriter, err error) {
	var fe auth.FieldErrors
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: fe})
		return
	}
	http.Error(w, "request aborted", http.StatusServiceUnavailable)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// pathParts splits a request path like /api/products/3/status into its
// segments.
func pathParts(r *http.Request) []string {
	return strings.Split(strings.Trim(r.URL.Path, "/"), "/")
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// authorize runs the navigation guard for the current session. When the
// request may not proceed it writes the redirect response: 401 towards the
// login view, 403 otherwise.
func (s *server) authorize(w http.ResponseWriter, r *http.Request, redirectPath string, roles ...auth.Role) (auth.User, bool) {
	var user *auth.User
	if u, ok := s.auth.Current(); ok {
		user = &u
	}
	d := guard.Decide(guard.Input{
		User:         user,
		AllowedRoles: roles,
		RedirectPath: redirectPath,
		Location:     r.URL.RequestURI(),
	})
	switch d.Kind {
	case guard.Render:
		return *user, true
	case guard.Redirect:
		loc := d.Path
		status := http.StatusForbidden
		if d.Path == guard.LoginPath {
			status = http.StatusUnauthorized
			loc += "?from=" + url.QueryEscape(d.From)
		}
		w.Header().Set("Location", loc)
		writeJSON(w, status, redirectResponse{Redirect: loc})
	default:
		http.Error(w, "session loading", http.StatusServiceUnavailable)
	}
	return auth.User{}, false
}

var sellerRoles = []auth.Role{auth.RoleSeller, auth.RoleAdmin}

// authorizeCustomer gates the cart and checkout views. Other roles are sent
// to the seller dashboard.
func (s *server) authorizeCustomer(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	return s.authorize(w, r, guard.SellerDashboardPath, auth.RoleCustomer)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readProduct decodes a product payload from JSON or a multipart form. A
// multipart image in the file field is uploaded once the fields are valid.
// The int is the status to answer with when err is set.
func (s *server) readProduct(r *http.Request, requireName bool) (productForm, *media.Image, int, error) {
	var f productForm
	if !isMultipart(r) {
		if err := decodeJSON(r, &f); err != nil {
			return f, nil, http.StatusBadRequest, err
		}
		if err := f.validate(requireName); err != nil {
			return f, nil, http.StatusBadRequest, err
		}
		return f, nil, 0, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return f, nil, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err)
	}
	if err := s.forms.Decode(&f, r.MultipartForm.Value); err != nil {
		return f, nil, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err)
	}
	if err := f.validate(requireName); err != nil {
		return f, nil, http.StatusBadRequest, err
	}

	file, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return f, nil, 0, nil
	}
	if err != nil {
		return f, nil, http.StatusBadRequest, fmt.Errorf("read file: %w", err)
	}
	defer file.Close()
	img, err := s.media.Upload(r.Context(), file, hdr.Filename)
	if err != nil {
		s.log.Errorf("Image upload failed: %v", err)
		return f, nil, http.StatusInternalServerError, errors.New("upload failed")
	}
	return f, &img, 0, nil
}

// destroyImage removes an uploaded product image. Failures are only logged.
func (s *server) destroyImage(r *http.Request, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.media.Destroy(r.Context(), publicID); err != nil {
		s.log.Warnf("Unable to delete image %s: %v", publicID, err)
	}
}

// productsHandler lists the catalogue (public) and creates products.
func (s *server) productsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			var status catalog.Status
			if v := q.Get("status"); v != "" {
				var err error
				if status, err = catalog.ParseStatus(v); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
			}
			writeJSON(w, http.StatusOK, s.products.Filter(q.Get("q"), q.Get("category"), status))

		case http.MethodPost:
			if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
				return
			}
			f, img, code, err := s.readProduct(r, true)
			if err != nil {
				http.Error(w, err.Error(), code)
				return
			}
			in := f.input()
			if img != nil {
				in.Image = img.URL
				in.ImagePublicID = img.PublicID
			}
			p := s.products.Create(in)
			writeJSON(w, http.StatusCreated, p)

		default:
			methodNotAllowed(w)
		}
	}
}

// productItemHandler serves /api/products/{id} and /api/products/{id}/status.
// Forms that cannot send PUT may POST with _method=PUT.
func (s *server) productItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r)
		if len(parts) < 3 || len(parts) > 4 || (len(parts) == 4 && parts[3] != "status") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		if len(parts) == 4 {
			s.productStatus(w, r, id)
			return
		}

		method := r.Method
		if method == http.MethodPost && strings.EqualFold(r.FormValue("_method"), http.MethodPut) {
			method = http.MethodPut
		}

		switch method {
		case http.MethodGet:
			p, ok := s.products.Get(id)
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, p)

		case http.MethodPut:
			if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
				return
			}
			old, ok := s.products.Get(id)
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			f, img, code, err := s.readProduct(r, false)
			if err != nil {
				http.Error(w, err.Error(), code)
				return
			}
			patch := f.patch()
			if img != nil {
				if img.URL != "" {
					patch.Image = &img.URL
				}
				patch.ImagePublicID = &img.PublicID
			}
			p, ok := s.products.Update(id, patch)
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if img != nil && old.ImagePublicID != img.PublicID {
				s.destroyImage(r, old.ImagePublicID)
			}
			writeJSON(w, http.StatusOK, p)

		case http.MethodDelete:
			if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
				return
			}
			p, ok := s.products.Get(id)
			if !ok || !s.products.Delete(id) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			s.destroyImage(r, p.ImagePublicID)
			w.WriteHeader(http.StatusNoContent)

		default:
			methodNotAllowed(w)
		}
	}
}

func (s *server) productStatus(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
		return
	}
	var payload statusPayload
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status, err := catalog.ParseStatus(payload.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, ok := s.products.SetStatus(id, status)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// sellerProductsHandler is the paginated product management table.
func (s *server) sellerProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
			return
		}
		q := r.URL.Query()
		products := s.products.ManageFilter(q.Get("search"), q.Get("tab"))
		writeJSON(w, http.StatusOK, paginate(r, products, productsPerPage))
	}
}

func (s *server) bulkProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
			return
		}
		var payload bulkPayload
		if err := decodeJSON(r, &payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var n int
		switch payload.Action {
		case bulkDelete:
			var publicIDs []string
			for _, id := range payload.IDs {
				if p, ok := s.products.Get(id); ok {
					publicIDs = append(publicIDs, p.ImagePublicID)
				}
			}
			n = s.products.BulkDelete(payload.IDs)
			for _, pid := range publicIDs {
				s.destroyImage(r, pid)
			}
		case bulkStatus:
			status, err := catalog.ParseStatus(payload.Status)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			n = s.products.BulkSetStatus(payload.IDs, status)
		default:
			http.Error(w, fmt.Sprintf("unknown action %q", payload.Action), http.StatusBadRequest)
			return
		}
		s.sink.Notify(notify.New(notify.LevelSuccess, "Products updated",
			fmt.Sprintf("%d products affected", n)))
		writeJSON(w, http.StatusOK, bulkResponse{Count: n})
	}
}

func (s *server) exportProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
			return
		}
		q := r.URL.Query()
		products := s.products.ManageFilter(q.Get("search"), q.Get("tab"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
		if err := catalog.Export(w, products); err != nil {
			s.log.Errorf("Product export failed: %v", err)
		}
	}
}

func (s *server) cartState() cartResponse {
	items := s.cart.Items()
	return cartResponse{
		Items:      items,
		TotalItems: s.cart.TotalItems(),
		TotalPrice: cart.Total(items),
	}
}

// cartHandler shows, fills and clears the cart. Adding is open to
// everybody browsing the catalogue; the cart itself is a customer view.
func (s *server) cartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			if _, ok := s.authorizeCustomer(w, r); !ok {
				return
			}
		}
		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			var payload cartAddPayload
			if err := decodeJSON(r, &payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if payload.Quantity < 0 {
				http.Error(w, "quantity must not be negative", http.StatusBadRequest)
				return
			}
			if payload.Quantity == 0 {
				payload.Quantity = 1
			}
			p, ok := s.products.Get(payload.ProductID)
			if !ok {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			s.cart.Add(p, payload.Quantity)
		case http.MethodDelete:
			s.cart.Clear()
		default:
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, s.cartState())
	}
}

// cartItemHandler serves /api/cart/{productId}.
func (s *server) cartItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r)
		if len(parts) != 3 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		if _, ok := s.authorizeCustomer(w, r); !ok {
			return
		}
		switch r.Method {
		case http.MethodPut:
			var payload cartQuantityPayload
			if err := decodeJSON(r, &payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.cart.SetQuantity(id, payload.Quantity)
		case http.MethodDelete:
			s.cart.Remove(id)
		default:
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, s.cartState())
	}
}

func (s *server) checkoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		user, ok := s.authorizeCustomer(w, r)
		if !ok {
			return
		}
		var payload checkoutPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		customer := strings.TrimSpace(payload.Customer)
		if customer == "" {
			customer = user.Name
		}

		o, err := s.checkout.Place(r.Context(), customer)
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			s.log.Warnf("Checkout for %s aborted: %v", customer, err)
			http.Error(w, "checkout aborted", http.StatusServiceUnavailable)
			return
		}
		if s.stats != nil {
			s.stats.OrderCreated()
		}
		writeJSON(w, http.StatusCreated, o)
	}
}

func (s *server) accountOrdersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		user, ok := s.authorize(w, r, "", auth.RoleCustomer)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.orders.ForCustomer(user.Name))
	}
}

// ordersHandler is the paginated order management table.
func (s *server) ordersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
			return
		}
		q := r.URL.Query()
		status := orders.StatusAll
		if v := q.Get("status"); v != "" && v != string(orders.StatusAll) {
			var err error
			if status, err = orders.ParseStatus(v); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		writeJSON(w, http.StatusOK, paginate(r, s.orders.Filter(q.Get("q"), status), ordersPerPage))
	}
}

// orderItemHandler serves /api/orders/{id} and /api/orders/{id}/status.
func (s *server) orderItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r)
		if len(parts) < 3 || len(parts) > 4 || (len(parts) == 4 && parts[3] != "status") || parts[2] == "" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		id := parts[2]

		if len(parts) == 4 {
			if r.Method != http.MethodPut {
				methodNotAllowed(w)
				return
			}
			if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
				return
			}
			var payload statusPayload
			if err := decodeJSON(r, &payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			status, err := orders.ParseStatus(payload.Status)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			o, ok := s.orders.SetStatus(id, status)
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			s.sink.Notify(notify.New(notify.LevelInfo, "Order updated",
				fmt.Sprintf("Order %s is now %s", o.ID, o.Status)))
			writeJSON(w, http.StatusOK, o)
			return
		}

		switch r.Method {
		case http.MethodGet:
			if _, ok := s.authorize(w, r, "", auth.RoleCustomer, auth.RoleSeller, auth.RoleAdmin); !ok {
				return
			}
			o, ok := s.orders.Get(id)
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, o)

		case http.MethodDelete:
			if _, ok := s.authorize(w, r, "", auth.RoleAdmin); !ok {
				return
			}
			if !s.orders.Delete(id) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			methodNotAllowed(w)
		}
	}
}

func (s *server) sellerDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", sellerRoles...); !ok {
			return
		}
		writeJSON(w, http.StatusOK, dashboard.ForSeller(s.products.List(), s.orders.List()))
	}
}

func (s *server) adminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if _, ok := s.authorize(w, r, "", auth.RoleAdmin); !ok {
			return
		}
		users, err := s.auth.Users(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dashboard.ForAdmin(len(users), s.products.List(), s.orders.List()))
	}
}
