package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/server/authctx"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

// AdminHandler is the tenant back office. Every route requires a
// tenant-admin principal; the restaurant id always comes from the token,
// never from the request.
type AdminHandler struct {
	Manager  *syncctx.Manager
	Platform *syncctx.PlatformContext
}

func (h AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/menu-items", h.listMenuItems)
	r.Post("/menu-items", h.createMenuItem)
	r.Put("/menu-items/{id}", h.updateMenuItem)
	r.Delete("/menu-items/{id}", h.deleteMenuItem)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Put("/categories/{id}", h.updateCategory)
	r.Delete("/categories/{id}", h.deleteCategory)
	r.Get("/orders", h.listOrders)
	r.Put("/orders/{id}/status", h.updateOrderStatus)
	r.Get("/reservations", h.listReservations)
	r.Put("/reservations/{id}/status", h.updateReservationStatus)
	r.Get("/feedback", h.listFeedback)
	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.updateSettings)
	r.Get("/notifications", h.listNotifications)
	r.Put("/notifications/{id}/read", h.markNotificationRead)
}

func (h AdminHandler) tenant(w http.ResponseWriter, r *http.Request) (*syncctx.TenantContext, bool) {
	p := authctx.FromContext(r.Context())
	if p == nil || p.RestaurantID == "" {
		writeError(w, http.StatusUnauthorized, "missing tenant scope")
		return nil, false
	}
	return h.Manager.Context(p.RestaurantID), true
}

func (h AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	orders := ctx.Orders()
	var revenue float64
	pending := 0
	for _, o := range orders {
		if o.Status == domain.OrderCompleted {
			revenue += o.Total
		}
		if o.Status == domain.OrderNew || o.Status == domain.OrderPreparing {
			pending++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalOrders":       len(orders),
		"pendingOrders":     pending,
		"completedRevenue":  revenue,
		"totalMenuItems":    len(ctx.MenuItems()),
		"totalReservations": len(ctx.Reservations()),
		"totalFeedback":     len(ctx.Feedbacks()),
		"loading":           ctx.Loading(),
	})
}

func (h AdminHandler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctx.MenuItems())
}

func (h AdminHandler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var item domain.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := ctx.AddMenuItem(r.Context(), item)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h AdminHandler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var patch domain.MenuItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := ctx.UpdateMenuItem(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AdminHandler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	if err := ctx.DeleteMenuItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AdminHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctx.Categories())
}

func (h AdminHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var cat domain.Category
	if err := json.NewDecoder(r.Body).Decode(&cat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := ctx.AddCategory(r.Context(), cat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h AdminHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var patch domain.CategoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := ctx.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// deleteCategory refuses to delete a category that menu items still point
// at, so the storefront never shows an orphaned item.
func (h AdminHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	for _, item := range ctx.MenuItems() {
		if item.Category == id {
			writeError(w, http.StatusConflict, "category still has menu items")
			return
		}
	}
	if err := ctx.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctx.Orders())
}

func (h AdminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	err := ctx.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if errors.Is(err, syncctx.ErrInvalidStatus) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AdminHandler) listReservations(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctx.Reservations())
}

func (h AdminHandler) updateReservationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	err := ctx.UpdateReservationStatus(r.Context(), chi.URLParam(r, "id"), domain.ReservationStatus(req.Status))
	if errors.Is(err, syncctx.ErrInvalidStatus) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AdminHandler) listFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctx.Feedbacks())
}

func (h AdminHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	settings, loaded := ctx.Settings()
	writeJSON(w, http.StatusOK, map[string]any{
		"settings": settings,
		"loaded":   loaded,
	})
}

func (h AdminHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var patch domain.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := ctx.UpdateSettings(r.Context(), patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h AdminHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	p := authctx.FromContext(r.Context())
	if p == nil || p.RestaurantID == "" {
		writeError(w, http.StatusUnauthorized, "missing tenant scope")
		return
	}
	writeJSON(w, http.StatusOK, h.Platform.NotificationsForRestaurant(p.RestaurantID))
}

func (h AdminHandler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	p := authctx.FromContext(r.Context())
	if p == nil || p.RestaurantID == "" {
		writeError(w, http.StatusUnauthorized, "missing tenant scope")
		return
	}
	id := chi.URLParam(r, "id")
	owned := false
	for _, n := range h.Platform.NotificationsForRestaurant(p.RestaurantID) {
		if n.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	if err := h.Platform.MarkNotificationRead(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
