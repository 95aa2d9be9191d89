package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/store/memstore"
	syncctx "github.com/surajmeruva0786/restosaas2/internal/sync"
)

func newAdminGate(t *testing.T) (*AdminGate, string, clientstate.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := memstore.New()
	state := clientstate.NewMemory()
	platform := syncctx.NewPlatformContext(gw, state, logger, metrics.New(prometheus.NewRegistry()))
	platform.Start()
	t.Cleanup(platform.Close)
	require.Eventually(t, platform.Loaded, time.Second, 5*time.Millisecond)

	id, err := platform.AddRestaurant(context.Background(), domain.Restaurant{
		Name: "Spice Garden", Slug: "spice-garden",
		AdminUsername: "owner", AdminPassword: "hunter2",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(platform.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	return NewAdminGate(state, platform, logger), id, state
}

func TestAdminGate_LoginPersistsSession(t *testing.T) {
	gate, restaurantID, _ := newAdminGate(t)
	ctx := context.Background()

	got, err := gate.Login(ctx, "spice-garden", "owner", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, restaurantID, got)

	restored, err := gate.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, restaurantID, restored)
}

func TestAdminGate_RejectionsAreIndistinguishable(t *testing.T) {
	gate, _, _ := newAdminGate(t)
	ctx := context.Background()

	_, badSlug := gate.Login(ctx, "no-such-place", "owner", "hunter2")
	_, badUser := gate.Login(ctx, "spice-garden", "nobody", "hunter2")
	_, badPass := gate.Login(ctx, "spice-garden", "owner", "wrong")

	require.ErrorIs(t, badSlug, ErrInvalidCredentials)
	require.ErrorIs(t, badUser, ErrInvalidCredentials)
	require.ErrorIs(t, badPass, ErrInvalidCredentials)
	assert.Equal(t, badSlug.Error(), badUser.Error())
	assert.Equal(t, badUser.Error(), badPass.Error())
}

func TestAdminGate_FailedLoginLeavesNoSession(t *testing.T) {
	gate, _, _ := newAdminGate(t)
	ctx := context.Background()

	_, err := gate.Login(ctx, "spice-garden", "owner", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	restored, err := gate.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestAdminGate_Logout(t *testing.T) {
	gate, _, _ := newAdminGate(t)
	ctx := context.Background()

	_, err := gate.Login(ctx, "spice-garden", "owner", "hunter2")
	require.NoError(t, err)
	require.NoError(t, gate.Logout(ctx))

	restored, err := gate.Restore(ctx)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestOperatorGate_LoginRestoreLogout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := NewOperatorGate(clientstate.NewMemory(), "superadmin", "s3cret", logger)
	ctx := context.Background()

	ok, err := gate.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, gate.Login(ctx, "superadmin", "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, gate.Login(ctx, "admin", "s3cret"), ErrInvalidCredentials)

	require.NoError(t, gate.Login(ctx, "superadmin", "s3cret"))
	ok, err = gate.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, gate.Logout(ctx))
	ok, err = gate.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
