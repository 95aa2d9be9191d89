package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/store"
	"github.com/surajmeruva0786/restosaas2/internal/store/memstore"
)

func newPlatform(t *testing.T) (*PlatformContext, *memstore.Store) {
	t.Helper()
	gw := memstore.New()
	p := NewPlatformContext(gw, clientstate.NewMemory(), testLogger(), testMetrics())
	p.Start()
	t.Cleanup(p.Close)
	require.Eventually(t, p.Loaded, time.Second, 5*time.Millisecond)
	return p, gw
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Spice Garden":        "spice-garden",
		"  Spice   Garden  ":  "spice-garden",
		"ALREADY-HYPHENATED":  "already-hyphenated",
		"Tabs\tand\nNewlines": "tabs-and-newlines",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestPlatformContext_AddRestaurant(t *testing.T) {
	p, gw := newPlatform(t)
	ctx := context.Background()

	id, err := p.AddRestaurant(ctx, domain.Restaurant{
		Name:          "Spice Garden",
		Slug:          "Spice Garden",
		AdminUsername: "owner",
		AdminPassword: "hunter2",
		IsActive:      true,
		DueAmount:     500, // ignored: accounts start with no dues
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)
	r := p.Restaurants()[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "spice-garden", r.Slug)
	assert.Equal(t, domain.SubscriptionTrial, r.Subscription)
	assert.Zero(t, r.DueAmount)

	// The stored password is a hash of the submitted one.
	assert.NotEqual(t, "hunter2", r.AdminPassword)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(r.AdminPassword), []byte("hunter2")))

	// A settings projection is written at create time.
	doc, err := gw.GetSettings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Spice Garden", doc["name"])
}

func TestPlatformContext_AddRestaurant_SlugTaken(t *testing.T) {
	p, _ := newPlatform(t)
	ctx := context.Background()

	base := domain.Restaurant{Name: "A", AdminUsername: "u", AdminPassword: "p"}

	first := base
	first.Slug = "spice garden"
	_, err := p.AddRestaurant(ctx, first)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	// Normalization collides with the existing slug.
	second := base
	second.Slug = "  SPICE   GARDEN "
	_, err = p.AddRestaurant(ctx, second)
	require.ErrorIs(t, err, ErrSlugTaken)
}

func TestPlatformContext_RestaurantBySlug_PendingVsMissing(t *testing.T) {
	gw := memstore.New()
	p := NewPlatformContext(gw, clientstate.NewMemory(), testLogger(), testMetrics())
	t.Cleanup(p.Close)

	// Before the first snapshot the directory is pending, not empty.
	_, err := p.RestaurantBySlug("anything")
	require.ErrorIs(t, err, ErrNotLoaded)

	p.Start()
	require.Eventually(t, p.Loaded, time.Second, 5*time.Millisecond)

	_, err = p.RestaurantBySlug("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlatformContext_UpdateRestaurant_RehashesPassword(t *testing.T) {
	p, _ := newPlatform(t)
	ctx := context.Background()

	id, err := p.AddRestaurant(ctx, domain.Restaurant{
		Name: "A", Slug: "a", AdminUsername: "u", AdminPassword: "old-pass",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	newPass := "new-pass"
	require.NoError(t, p.UpdateRestaurant(ctx, id, domain.RestaurantPatch{AdminPassword: &newPass}))

	require.Eventually(t, func() bool {
		r, err := p.RestaurantByID(id)
		return err == nil && bcrypt.CompareHashAndPassword([]byte(r.AdminPassword), []byte("new-pass")) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestPlatformContext_ToggleRestaurantStatus(t *testing.T) {
	p, _ := newPlatform(t)
	ctx := context.Background()

	id, err := p.AddRestaurant(ctx, domain.Restaurant{
		Name: "A", Slug: "a", AdminUsername: "u", AdminPassword: "p", IsActive: true,
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.ToggleRestaurantStatus(ctx, id))
	require.Eventually(t, func() bool {
		r, err := p.RestaurantByID(id)
		return err == nil && !r.IsActive
	}, time.Second, 5*time.Millisecond)
}

func TestPlatformContext_PaymentNotificationLifecycle(t *testing.T) {
	p, _ := newPlatform(t)
	ctx := context.Background()

	id, err := p.AddRestaurant(ctx, domain.Restaurant{
		Name: "Spice Garden", Slug: "spice-garden", AdminUsername: "u", AdminPassword: "p",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = p.SendPaymentNotification(ctx, id, -10, "", "")
	require.Error(t, err, "negative amounts are rejected")

	_, err = p.SendPaymentNotification(ctx, id, 100, "", "sometime soon")
	require.ErrorIs(t, err, domain.ErrBadTimestamp)

	nid, err := p.SendPaymentNotification(ctx, id, 1500, "Monthly subscription due", "2026-09-15")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(p.Notifications()) == 1 }, time.Second, 5*time.Millisecond)
	n := p.Notifications()[0]
	assert.Equal(t, nid, n.ID)
	assert.Equal(t, domain.NotificationPending, n.Status)
	assert.Equal(t, "Spice Garden", n.RestaurantName)
	assert.Nil(t, n.ReadAt)

	require.NoError(t, p.MarkNotificationRead(ctx, nid))
	require.Eventually(t, func() bool {
		ns := p.Notifications()
		return len(ns) == 1 && ns[0].Status == domain.NotificationRead && ns[0].ReadAt != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.MarkNotificationPaid(ctx, nid))
	require.Eventually(t, func() bool {
		ns := p.Notifications()
		return len(ns) == 1 && ns[0].Status == domain.NotificationPaid
	}, time.Second, 5*time.Millisecond)

	// The read timestamp survives the paid transition.
	assert.NotNil(t, p.Notifications()[0].ReadAt)

	// Scoped view only returns the tenant's own notifications.
	assert.Len(t, p.NotificationsForRestaurant(id), 1)
	assert.Empty(t, p.NotificationsForRestaurant("other"))
}

func TestPlatformContext_NotificationSnapshotsName(t *testing.T) {
	p, _ := newPlatform(t)
	ctx := context.Background()

	id, err := p.AddRestaurant(ctx, domain.Restaurant{
		Name: "Old Name", Slug: "old-name", AdminUsername: "u", AdminPassword: "p",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = p.SendPaymentNotification(ctx, id, 100, "due", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Notifications()) == 1 }, time.Second, 5*time.Millisecond)

	newName := "New Name"
	require.NoError(t, p.UpdateRestaurant(ctx, id, domain.RestaurantPatch{Name: &newName}))
	require.Eventually(t, func() bool {
		r, err := p.RestaurantByID(id)
		return err == nil && r.Name == "New Name"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Old Name", p.Notifications()[0].RestaurantName)
}

// countingGateway counts writes passing through to the wrapped gateway.
type countingGateway struct {
	store.Gateway
	adds atomic.Int64
	sets atomic.Int64
}

func (g *countingGateway) Add(ctx context.Context, collection string, doc store.Document) (string, error) {
	g.adds.Add(1)
	return g.Gateway.Add(ctx, collection, doc)
}

func (g *countingGateway) SetSettings(ctx context.Context, tenantID string, patch store.Document) error {
	g.sets.Add(1)
	return g.Gateway.SetSettings(ctx, tenantID, patch)
}

func TestPlatformContext_SeedDemoData_Idempotent(t *testing.T) {
	gw := &countingGateway{Gateway: memstore.New()}
	p := NewPlatformContext(gw, clientstate.NewMemory(), testLogger(), testMetrics())
	t.Cleanup(p.Close)
	ctx := context.Background()

	require.NoError(t, p.SeedDemoData(ctx))
	firstAdds := gw.adds.Load()
	// 1 restaurant + 4 categories + 6 menu items.
	assert.Equal(t, int64(11), firstAdds)
	assert.Equal(t, int64(1), gw.sets.Load())

	require.NoError(t, p.SeedDemoData(ctx))
	assert.Equal(t, firstAdds, gw.adds.Load(), "second run must write nothing")
	assert.Equal(t, int64(1), gw.sets.Load())

	docs, err := gw.GetAll(ctx, store.Query{Collection: store.ColRestaurants})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	slug, _ := docs[0]["slug"].(string)
	assert.Equal(t, DemoSlug, slug)
}

func TestPlatformContext_SyncSettings(t *testing.T) {
	gw := memstore.New()
	state := clientstate.NewMemory()
	p := NewPlatformContext(gw, state, testLogger(), testMetrics())
	t.Cleanup(p.Close)
	ctx := context.Background()

	// A restaurant written without a projection, as legacy data would be.
	legacy, err := store.Encode(domain.Restaurant{
		Name: "Legacy Diner", Slug: "legacy-diner",
		AdminUsername: "u", AdminPassword: "p", IsOpen: true,
	})
	require.NoError(t, err)
	id, err := gw.Add(ctx, store.ColRestaurants, legacy)
	require.NoError(t, err)

	// One with a projection already present; it must not be overwritten.
	existing, err := store.Encode(domain.Restaurant{
		Name: "Has Settings", Slug: "has-settings", AdminUsername: "u", AdminPassword: "p",
	})
	require.NoError(t, err)
	id2, err := gw.Add(ctx, store.ColRestaurants, existing)
	require.NoError(t, err)
	require.NoError(t, gw.SetSettings(ctx, id2, store.Document{"name": "Custom Name"}))

	require.NoError(t, p.SyncSettings(ctx))

	doc, err := gw.GetSettings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Legacy Diner", doc["name"])

	doc2, err := gw.GetSettings(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, "Custom Name", doc2["name"], "existing projections are never overwritten")

	// The marker makes later runs no-ops even for newly missing projections.
	legacy2, err := store.Encode(domain.Restaurant{
		Name: "Later Diner", Slug: "later-diner", AdminUsername: "u", AdminPassword: "p",
	})
	require.NoError(t, err)
	id3, err := gw.Add(ctx, store.ColRestaurants, legacy2)
	require.NoError(t, err)

	require.NoError(t, p.SyncSettings(ctx))
	_, err = gw.GetSettings(ctx, id3)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlatformContext_DeleteRestaurant_RetainsOwnedData(t *testing.T) {
	p, gw := newPlatform(t)
	ctx := context.Background()

	id, err := p.AddRestaurant(ctx, domain.Restaurant{
		Name: "A", Slug: "a", AdminUsername: "u", AdminPassword: "p",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 1 }, time.Second, 5*time.Millisecond)

	_, err = gw.Add(ctx, store.ColOrders, store.Document{"customerName": "X", store.TenantField: id})
	require.NoError(t, err)

	require.NoError(t, p.DeleteRestaurant(ctx, id))
	require.Eventually(t, func() bool { return len(p.Restaurants()) == 0 }, time.Second, 5*time.Millisecond)

	orders, err := gw.GetAll(ctx, store.Query{Collection: store.ColOrders, TenantID: id})
	require.NoError(t, err)
	assert.Len(t, orders, 1, "tenant-owned collections survive the tenant record")
}
