package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajmeruva0786/restosaas2/internal/cart"
	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
	"github.com/surajmeruva0786/restosaas2/internal/config"
	"github.com/surajmeruva0786/restosaas2/internal/handler"
	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/session"
	"github.com/surajmeruva0786/restosaas2/internal/store/memstore"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   time.Hour,
		OperatorUsername: "superadmin",
		OperatorPassword: "testpass",
	}

	gw := memstore.New()
	state := clientstate.NewMemory()
	m := metrics.New(prometheus.NewRegistry())

	platform := syncctx.NewPlatformContext(gw, state, logger, m)
	platform.Startup(context.Background())
	t.Cleanup(platform.Close)

	manager := syncctx.NewManager(gw, logger, m)
	t.Cleanup(manager.Close)

	carts := cart.Service{State: state}
	router := NewRouter(cfg, logger,
		handler.HealthHandler{Store: gw},
		handler.HomeHandler{},
		handler.AuthHandler{
			AdminGate:    session.NewAdminGate(state, platform, logger),
			OperatorGate: session.NewOperatorGate(state, cfg.OperatorUsername, cfg.OperatorPassword, logger),
			JWTSecret:    cfg.JWTSecret,
			TokenTTL:     cfg.AccessTokenTTL,
		},
		handler.StorefrontHandler{Resolver: &syncctx.Resolver{Platform: platform}, Manager: manager, Cart: carts},
		handler.AdminHandler{Manager: manager, Platform: platform},
		handler.PlatformHandler{Platform: platform},
		handler.ExportHandler{Platform: platform},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func login(t *testing.T, srv *httptest.Server, path string, creds map[string]string) string {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, srv.URL+path, "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestRouter_HealthAndHomeRedirect(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err = client.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/r/"+syncctx.DemoSlug, resp.Header.Get("Location"))
}

func TestRouter_Storefront_UnknownSlug(t *testing.T) {
	srv := newTestServer(t)

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/r/no-such-restaurant/menu")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		// 503 while the directory loads, then a definitive 404.
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRouter_Storefront_DemoMenu(t *testing.T) {
	srv := newTestServer(t)

	var data struct {
		Items      []map[string]any `json:"items"`
		Categories []map[string]any `json:"categories"`
	}
	require.Eventually(t, func() bool {
		resp, env := doJSON(t, http.MethodGet, srv.URL+"/r/"+syncctx.DemoSlug+"/menu", "", nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return false
		}
		return len(data.Items) == 6 && len(data.Categories) == 4
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, "Starters", data.Categories[0]["name"], "categories arrive in display order")
}

func TestRouter_CartCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/r/" + syncctx.DemoSlug

	require.Eventually(t, func() bool {
		resp, _ := doJSON(t, http.MethodGet, base, "", nil)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// Checkout with an empty cart is rejected.
	resp, _ := doJSON(t, http.MethodPost, base+"/checkout", "", map[string]string{
		"customerName": "Ravi", "orderType": "takeaway",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, base+"/cart/items", "", map[string]any{
		"id": "m1", "name": "Butter Chicken", "price": 350.0, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cartData struct {
		TotalItems int     `json:"totalItems"`
		TotalPrice float64 `json:"totalPrice"`
	}
	resp, env := doJSON(t, http.MethodGet, base+"/cart", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &cartData))
	assert.Equal(t, 2, cartData.TotalItems)
	assert.Equal(t, 700.0, cartData.TotalPrice)

	var checkout struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
	}
	resp, env = doJSON(t, http.MethodPost, base+"/checkout", "", map[string]string{
		"customerName": "Ravi", "orderType": "takeaway",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &checkout))
	assert.NotEmpty(t, checkout.ID)
	assert.Equal(t, 700.0, checkout.Total)

	// The cart is emptied by a successful checkout.
	resp, env = doJSON(t, http.MethodGet, base+"/cart", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &cartData))
	assert.Zero(t, cartData.TotalItems)
}

func TestRouter_AdminAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	// Protected surface rejects anonymous and wrong-role callers.
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/admin/login", "", map[string]string{
		"slug": syncctx.DemoSlug, "username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := login(t, srv, "/admin/login", map[string]string{
		"slug": syncctx.DemoSlug, "username": "admin", "password": "admin123",
	})

	var dash struct {
		TotalMenuItems int `json:"totalMenuItems"`
	}
	require.Eventually(t, func() bool {
		resp, env := doJSON(t, http.MethodGet, srv.URL+"/admin/dashboard", token, nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(env.Data, &dash); err != nil {
			return false
		}
		return dash.TotalMenuItems == 6
	}, 2*time.Second, 20*time.Millisecond)

	// A tenant-admin token does not open the operator surface.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/superadmin/restaurants", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_OperatorFlow(t *testing.T) {
	srv := newTestServer(t)

	token := login(t, srv, "/superadmin/login", map[string]string{
		"username": "superadmin", "password": "testpass",
	})

	var restaurants []map[string]any
	require.Eventually(t, func() bool {
		resp, env := doJSON(t, http.MethodGet, srv.URL+"/superadmin/restaurants", token, nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(env.Data, &restaurants); err != nil {
			return false
		}
		return len(restaurants) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, syncctx.DemoSlug, restaurants[0]["slug"])

	// Create a tenant through the API and resolve its storefront.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/superadmin/restaurants", token, map[string]any{
		"name": "Spice Garden", "slug": "Spice Garden",
		"adminUsername": "owner", "adminPassword": "hunter2", "isActive": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/r/spice-garden", "", nil)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// Export ships a spreadsheet.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/superadmin/restaurants/export?format=xlsx", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	xresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer xresp.Body.Close()
	assert.Equal(t, http.StatusOK, xresp.StatusCode)
	assert.Contains(t, xresp.Header.Get("Content-Disposition"), "restaurants_")
}
