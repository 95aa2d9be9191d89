package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/surajmeruva0786/restosaas2/internal/cart"
	"github.com/surajmeruva0786/restosaas2/internal/domain"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

// StorefrontHandler serves the public, slug-parameterized surface: store
// info, menu, cart, checkout, reservations and feedback.
type StorefrontHandler struct {
	Resolver *syncctx.Resolver
	Manager  *syncctx.Manager
	Cart     cart.Service
}

func (h StorefrontHandler) RegisterRoutes(r chi.Router) {
	r.Route("/r/{slug}", func(sr chi.Router) {
		sr.Get("/", h.info)
		sr.Get("/menu", h.menu)
		sr.Post("/orders", h.createOrder)
		sr.Post("/checkout", h.checkout)
		sr.Post("/reservations", h.createReservation)
		sr.Post("/feedback", h.createFeedback)
		sr.Get("/cart", h.cartContents)
		sr.Post("/cart/items", h.cartAdd)
		sr.Put("/cart/items/{itemID}", h.cartUpdate)
		sr.Delete("/cart/items/{itemID}", h.cartRemove)
		sr.Delete("/cart", h.cartClear)
	})
}

// resolve maps the URL slug to a tenant id. A mirror that has not loaded yet
// is a retryable condition, not a miss.
func (h StorefrontHandler) resolve(w http.ResponseWriter, r *http.Request) (string, bool) {
	slug := chi.URLParam(r, "slug")
	tenantID, err := h.Resolver.Resolve("", slug)
	switch {
	case errors.Is(err, syncctx.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "restaurant directory is loading, retry shortly")
		return "", false
	case errors.Is(err, syncctx.ErrNotFound):
		writeError(w, http.StatusNotFound, "restaurant not found")
		return "", false
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return "", false
	}
	return tenantID, true
}

func (h StorefrontHandler) info(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	ctx := h.Manager.Context(tenantID)
	settings, _ := ctx.Settings()
	writeJSON(w, http.StatusOK, map[string]any{
		"restaurantId": tenantID,
		"settings":     settings,
		"loading":      ctx.Loading(),
	})
}

func (h StorefrontHandler) menu(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	ctx := h.Manager.Context(tenantID)
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": ctx.Categories(),
		"items":      ctx.MenuItems(),
		"loading":    ctx.Loading(),
	})
}

func (h StorefrontHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req domain.Order
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Manager.Context(tenantID).AddOrder(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// checkout builds an order from the persisted cart and clears the cart once
// the order is accepted.
func (h StorefrontHandler) checkout(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req struct {
		CustomerName  string `json:"customerName"`
		CustomerPhone string `json:"customerPhone"`
		OrderType     string `json:"orderType"`
		TableNumber   string `json:"tableNumber"`
		Notes         string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	items, err := h.Cart.Items(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}
	order := domain.Order{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		OrderType:     domain.OrderType(req.OrderType),
		TableNumber:   req.TableNumber,
		Notes:         req.Notes,
	}
	for _, it := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
		order.Total += it.Price * float64(it.Quantity)
	}
	id, err := h.Manager.Context(tenantID).AddOrder(r.Context(), order)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Cart.Clear(r.Context(), tenantID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "total": order.Total})
}

func (h StorefrontHandler) createReservation(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req domain.Reservation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Manager.Context(tenantID).AddReservation(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h StorefrontHandler) createFeedback(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req domain.Feedback
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Manager.Context(tenantID).AddFeedback(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h StorefrontHandler) cartContents(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	items, err := h.Cart.Items(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	count, total, err := h.Cart.Totals(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"totalItems": count,
		"totalPrice": total,
	})
}

func (h StorefrontHandler) cartAdd(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var item cart.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if item.ID == "" || item.Name == "" {
		writeError(w, http.StatusBadRequest, "item id and name are required")
		return
	}
	if err := h.Cart.AddItem(r.Context(), tenantID, item); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h StorefrontHandler) cartUpdate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Cart.UpdateQuantity(r.Context(), tenantID, chi.URLParam(r, "itemID"), req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h StorefrontHandler) cartRemove(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.Cart.RemoveItem(r.Context(), tenantID, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h StorefrontHandler) cartClear(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.Cart.Clear(r.Context(), tenantID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
