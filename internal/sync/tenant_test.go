package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/store"
	"github.com/surajmeruva0786/restosaas2/internal/store/memstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func seedTenant(t *testing.T, gw store.Gateway, tenantID, itemName string) {
	t.Helper()
	ctx := context.Background()
	_, err := gw.Add(ctx, store.ColMenuItems, store.Document{
		"name": itemName, "price": 100.0, "category": "c1",
		"isAvailable": true, store.TenantField: tenantID,
	})
	require.NoError(t, err)
	require.NoError(t, gw.SetSettings(ctx, tenantID, store.Document{"name": "Restaurant " + tenantID}))
}

func TestTenantContext_LoadsMirrors(t *testing.T) {
	gw := memstore.New()
	seedTenant(t, gw, "t1", "Masala Dosa")

	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	assert.True(t, c.Loading())

	c.SetTenant("t1")
	require.Eventually(t, func() bool { return !c.Loading() }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return len(c.MenuItems()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Masala Dosa", c.MenuItems()[0].Name)

	settings, ok := c.Settings()
	require.True(t, ok)
	assert.Equal(t, "Restaurant t1", settings.Name)
}

func TestTenantContext_SwitchClearsPreviousTenant(t *testing.T) {
	gw := memstore.New()
	seedTenant(t, gw, "t1", "Paneer Tikka")
	seedTenant(t, gw, "t2", "Chicken Wings")

	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()

	c.SetTenant("t1")
	require.Eventually(t, func() bool { return len(c.MenuItems()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "Paneer Tikka", c.MenuItems()[0].Name)

	c.SetTenant("t2")
	assert.Equal(t, "t2", c.TenantID())

	require.Eventually(t, func() bool {
		items := c.MenuItems()
		return len(items) == 1 && items[0].Name == "Chicken Wings"
	}, time.Second, 5*time.Millisecond)

	settings, ok := c.Settings()
	require.True(t, ok)
	assert.Equal(t, "Restaurant t2", settings.Name)
}

func TestTenantContext_SetTenant_SameIDIsNoop(t *testing.T) {
	gw := memstore.New()
	seedTenant(t, gw, "t1", "Idli")

	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()

	c.SetTenant("t1")
	require.Eventually(t, func() bool { return !c.Loading() }, time.Second, 5*time.Millisecond)

	c.SetTenant("t1")
	assert.False(t, c.Loading(), "re-setting the same tenant must not reset the loading flag")
}

func TestTenantContext_MutationsRequireTenant(t *testing.T) {
	c := NewTenantContext(memstore.New(), testLogger(), testMetrics())
	defer c.Close()
	ctx := context.Background()

	_, err := c.AddMenuItem(ctx, domain.MenuItem{Name: "X", Price: 10, Category: "c"})
	require.ErrorIs(t, err, ErrNoTenant)

	_, err = c.AddOrder(ctx, domain.Order{})
	require.ErrorIs(t, err, ErrNoTenant)

	require.ErrorIs(t, c.UpdateSettings(ctx, domain.SettingsPatch{}), ErrNoTenant)
}

func TestTenantContext_AddOrder_ForcesInitialStatus(t *testing.T) {
	gw := memstore.New()
	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	c.SetTenant("t1")
	ctx := context.Background()

	order := domain.Order{
		CustomerName: "Ravi",
		OrderType:    domain.OrderTypeDineIn,
		Items:        []domain.OrderItem{{ID: "m1", Name: "Butter Chicken", Quantity: 2, Price: 350}},
		Total:        700,
		Status:       domain.OrderCompleted, // client-supplied status is ignored
	}
	id, err := c.AddOrder(ctx, order)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.Orders()) == 1 }, time.Second, 5*time.Millisecond)
	got := c.Orders()[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, domain.OrderNew, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTenantContext_UpdateOrderStatus(t *testing.T) {
	gw := memstore.New()
	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	c.SetTenant("t1")
	ctx := context.Background()

	id, err := c.AddOrder(ctx, domain.Order{
		CustomerName: "Ravi",
		OrderType:    domain.OrderTypeTakeaway,
		Items:        []domain.OrderItem{{ID: "m1", Name: "Dal Makhani", Quantity: 1, Price: 200}},
		Total:        200,
	})
	require.NoError(t, err)

	require.ErrorIs(t, c.UpdateOrderStatus(ctx, id, domain.OrderStatus("shipped")), ErrInvalidStatus)

	require.NoError(t, c.UpdateOrderStatus(ctx, id, domain.OrderCompleted))
	require.Eventually(t, func() bool {
		orders := c.Orders()
		return len(orders) == 1 && orders[0].Status == domain.OrderCompleted
	}, time.Second, 5*time.Millisecond)

	// The status patch must leave the rest of the order untouched.
	got := c.Orders()[0]
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Dal Makhani", got.Items[0].Name)
	assert.Equal(t, 200.0, got.Total)
}

func TestTenantContext_AddReservation_ForcesPending(t *testing.T) {
	gw := memstore.New()
	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	c.SetTenant("t1")
	ctx := context.Background()

	_, err := c.AddReservation(ctx, domain.Reservation{
		CustomerName:   "Meera",
		Date:           "2026-09-10",
		Time:           "19:30",
		NumberOfPeople: 4,
		Status:         domain.ReservationConfirmed,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.Reservations()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.ReservationPending, c.Reservations()[0].Status)
}

func TestTenantContext_AddFeedback_ValidatesRating(t *testing.T) {
	gw := memstore.New()
	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	c.SetTenant("t1")
	ctx := context.Background()

	_, err := c.AddFeedback(ctx, domain.Feedback{Rating: 0})
	require.Error(t, err)
	_, err = c.AddFeedback(ctx, domain.Feedback{Rating: 6})
	require.Error(t, err)

	_, err = c.AddFeedback(ctx, domain.Feedback{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(c.Feedbacks()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestTenantContext_MenuLifecycle(t *testing.T) {
	gw := memstore.New()
	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	c.SetTenant("t1")
	ctx := context.Background()

	catID, err := c.AddCategory(ctx, domain.Category{Name: "Mains", Order: 1})
	require.NoError(t, err)

	itemID, err := c.AddMenuItem(ctx, domain.MenuItem{
		Name: "Margherita", Price: 299, Category: catID, IsVeg: true, IsAvailable: true,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.MenuItems()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 299.0, c.MenuItems()[0].Price)

	newPrice := 349.0
	require.NoError(t, c.UpdateMenuItem(ctx, itemID, domain.MenuItemPatch{Price: &newPrice}))
	require.Eventually(t, func() bool {
		items := c.MenuItems()
		return len(items) == 1 && items[0].Price == 349.0 && items[0].Name == "Margherita"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.DeleteMenuItem(ctx, itemID))
	require.Eventually(t, func() bool { return len(c.MenuItems()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestTenantContext_UpdateSettings(t *testing.T) {
	gw := memstore.New()
	require.NoError(t, gw.SetSettings(context.Background(), "t1", store.Document{"name": "Old Name", "isOpen": true}))

	c := NewTenantContext(gw, testLogger(), testMetrics())
	defer c.Close()
	c.SetTenant("t1")
	require.Eventually(t, func() bool { return !c.Loading() }, time.Second, 5*time.Millisecond)

	name := "New Name"
	require.NoError(t, c.UpdateSettings(context.Background(), domain.SettingsPatch{Name: &name}))

	require.Eventually(t, func() bool {
		s, ok := c.Settings()
		return ok && s.Name == "New Name"
	}, time.Second, 5*time.Millisecond)

	// Untouched fields survive the merge.
	s, _ := c.Settings()
	assert.True(t, s.IsOpen)
}
