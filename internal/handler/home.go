package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

// HomeHandler redirects the default entry to the demo storefront.
type HomeHandler struct{}

func (h HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.root)
}

func (h HomeHandler) root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/r/"+syncctx.DemoSlug, http.StatusFound)
}
