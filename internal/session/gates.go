// Package session holds the two role gates. They are independent and
// non-hierarchical: a platform operator is not a tenant admin and vice
// versa. Each gate is an explicit state object with an init-from-storage
// step and a teardown-on-logout step; the persisted flag is the only
// durability mechanism.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

// ErrInvalidCredentials is deliberately generic: it never reveals which
// field was wrong, or whether the restaurant exists at all.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	adminSessionKey    = "admin_session"
	operatorSessionKey = "operator_session"
)

// AdminGate is the tenant-admin gate, scoped to one restaurant id.
type AdminGate struct {
	state    clientstate.Store
	platform *syncctx.PlatformContext
	log      *slog.Logger
}

func NewAdminGate(state clientstate.Store, platform *syncctx.PlatformContext, logger *slog.Logger) *AdminGate {
	return &AdminGate{state: state, platform: platform, log: logger}
}

type adminSession struct {
	RestaurantID string `json:"restaurantId"`
}

// Restore returns the persisted restaurant id, or "" when no session is
// stored.
func (g *AdminGate) Restore(ctx context.Context) (string, error) {
	raw, err := g.state.Get(ctx, adminSessionKey)
	if errors.Is(err, clientstate.ErrNoValue) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var s adminSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", err
	}
	return s.RestaurantID, nil
}

// Login checks the credentials against the restaurant resolved by slug and
// persists the session on success. It returns the restaurant id.
func (g *AdminGate) Login(ctx context.Context, slug, username, password string) (string, error) {
	restaurant, err := g.platform.RestaurantBySlug(slug)
	if errors.Is(err, syncctx.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if username != restaurant.AdminUsername {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(restaurant.AdminPassword), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	raw, err := json.Marshal(adminSession{RestaurantID: restaurant.ID})
	if err != nil {
		return "", err
	}
	if err := g.state.Set(ctx, adminSessionKey, string(raw)); err != nil {
		return "", err
	}
	g.log.Info("tenant admin logged in", "restaurant", restaurant.ID)
	return restaurant.ID, nil
}

// Logout clears the persisted session.
func (g *AdminGate) Logout(ctx context.Context) error {
	return g.state.Delete(ctx, adminSessionKey)
}

// OperatorGate is the platform-operator gate. It validates against a fixed
// credential pair, not per-tenant data.
type OperatorGate struct {
	state    clientstate.Store
	username string
	password string
	log      *slog.Logger
}

func NewOperatorGate(state clientstate.Store, username, password string, logger *slog.Logger) *OperatorGate {
	return &OperatorGate{state: state, username: username, password: password, log: logger}
}

// Restore reports whether an operator session is persisted.
func (g *OperatorGate) Restore(ctx context.Context) (bool, error) {
	_, err := g.state.Get(ctx, operatorSessionKey)
	if errors.Is(err, clientstate.ErrNoValue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *OperatorGate) Login(ctx context.Context, username, password string) error {
	if username != g.username || password != g.password {
		return ErrInvalidCredentials
	}
	if err := g.state.Set(ctx, operatorSessionKey, "true"); err != nil {
		return err
	}
	g.log.Info("platform operator logged in")
	return nil
}

func (g *OperatorGate) Logout(ctx context.Context) error {
	return g.state.Delete(ctx, operatorSessionKey)
}
