package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/surajmeruva0786/restosaas2/internal/domain"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

// PlatformHandler is the operator surface: tenant lifecycle, billing
// notifications and a cross-tenant dashboard.
type PlatformHandler struct {
	Platform *syncctx.PlatformContext
}

func (h PlatformHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/restaurants", h.listRestaurants)
	r.Post("/restaurants", h.createRestaurant)
	r.Put("/restaurants/{id}", h.updateRestaurant)
	r.Delete("/restaurants/{id}", h.deleteRestaurant)
	r.Put("/restaurants/{id}/toggle", h.toggleRestaurant)
	r.Get("/notifications", h.listNotifications)
	r.Post("/notifications", h.sendNotification)
	r.Put("/notifications/{id}/paid", h.markNotificationPaid)
	r.Post("/sync-settings", h.syncSettings)
}

func (h PlatformHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	restaurants := h.Platform.Restaurants()
	active := 0
	var due float64
	for _, rest := range restaurants {
		if rest.IsActive {
			active++
		}
		due += rest.DueAmount
	}
	notifications := h.Platform.Notifications()
	unpaid := 0
	for _, n := range notifications {
		if n.Status != domain.NotificationPaid {
			unpaid++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalRestaurants":    len(restaurants),
		"activeRestaurants":   active,
		"totalDueAmount":      due,
		"unpaidNotifications": unpaid,
		"loaded":              h.Platform.Loaded(),
	})
}

func (h PlatformHandler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Platform.Restaurants())
}

func (h PlatformHandler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req domain.Restaurant
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Platform.AddRestaurant(r.Context(), req)
	if errors.Is(err, syncctx.ErrSlugTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h PlatformHandler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var patch domain.RestaurantPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	err := h.Platform.UpdateRestaurant(r.Context(), chi.URLParam(r, "id"), patch)
	switch {
	case errors.Is(err, syncctx.ErrSlugTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, syncctx.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h PlatformHandler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	err := h.Platform.DeleteRestaurant(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, syncctx.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h PlatformHandler) toggleRestaurant(w http.ResponseWriter, r *http.Request) {
	err := h.Platform.ToggleRestaurantStatus(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, syncctx.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h PlatformHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Platform.Notifications())
}

func (h PlatformHandler) sendNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantID string  `json:"restaurantId"`
		Amount       float64 `json:"amount"`
		Message      string  `json:"message"`
		DueDate      string  `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := h.Platform.SendPaymentNotification(r.Context(), req.RestaurantID, req.Amount, req.Message, req.DueDate)
	if errors.Is(err, syncctx.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h PlatformHandler) markNotificationPaid(w http.ResponseWriter, r *http.Request) {
	if err := h.Platform.MarkNotificationPaid(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h PlatformHandler) syncSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.Platform.SyncSettings(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
