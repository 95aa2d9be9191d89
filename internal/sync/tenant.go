// Package sync owns the live mirrors of store collections. A mirror is a
// local copy of a remote collection kept current by a push subscription;
// mutations go through the gateway and are only observable once the next
// snapshot arrives. Nothing here mutates mirrors speculatively.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/store"
)

var (
	// ErrNoTenant reports a mutation attempted before a tenant is resolved.
	ErrNoTenant = errors.New("sync: no tenant resolved")
	// ErrInvalidStatus reports an unknown status value.
	ErrInvalidStatus = errors.New("sync: invalid status")
)

// TenantContext mirrors one restaurant's operational collections and exposes
// its mutation operations. SetTenant retargets the context: old
// subscriptions are torn down before new ones open, and an epoch guard
// discards any delivery from a torn-down subscription, so a late snapshot
// from the previous tenant can never land in the new tenant's mirror.
type TenantContext struct {
	gw      store.Gateway
	log     *slog.Logger
	metrics *metrics.Metrics

	mu           sync.RWMutex
	tenantID     string
	epoch        uint64
	unsubs       []store.Unsubscribe
	loading      bool
	menuItems    []domain.MenuItem
	categories   []domain.Category
	orders       []domain.Order
	reservations []domain.Reservation
	feedbacks    []domain.Feedback
	settings     *domain.RestaurantSettings
}

func NewTenantContext(gw store.Gateway, logger *slog.Logger, m *metrics.Metrics) *TenantContext {
	return &TenantContext{gw: gw, log: logger, metrics: m, loading: true}
}

// SetTenant switches the context to a new tenant id. Passing the current id
// is a no-op; passing "" tears everything down and leaves the context idle.
func (c *TenantContext) SetTenant(tenantID string) {
	c.mu.Lock()
	if tenantID == c.tenantID && c.epoch > 0 {
		c.mu.Unlock()
		return
	}
	c.epoch++
	epoch := c.epoch
	old := c.unsubs
	c.unsubs = nil
	c.tenantID = tenantID
	c.menuItems = nil
	c.categories = nil
	c.orders = nil
	c.reservations = nil
	c.feedbacks = nil
	c.settings = nil
	c.loading = tenantID != ""
	c.mu.Unlock()

	for _, unsub := range old {
		unsub()
	}
	if c.metrics != nil {
		c.metrics.TenantSwitches.Inc()
		c.metrics.ActiveSubscriptions.Sub(float64(len(old)))
	}
	if tenantID == "" {
		return
	}

	unsubs := []store.Unsubscribe{
		c.gw.Subscribe(store.Query{Collection: store.ColMenuItems, TenantID: tenantID},
			applySnapshot(c, epoch, store.ColMenuItems, func(items []domain.MenuItem) { c.menuItems = items })),
		c.gw.Subscribe(store.Query{Collection: store.ColCategories, TenantID: tenantID, OrderBy: "order"},
			applySnapshot(c, epoch, store.ColCategories, func(cats []domain.Category) { c.categories = cats })),
		c.gw.Subscribe(store.Query{Collection: store.ColOrders, TenantID: tenantID, OrderBy: "createdAt", Desc: true},
			applySnapshot(c, epoch, store.ColOrders, func(orders []domain.Order) { c.orders = orders })),
		c.gw.Subscribe(store.Query{Collection: store.ColReservations, TenantID: tenantID, OrderBy: "createdAt", Desc: true},
			applySnapshot(c, epoch, store.ColReservations, func(res []domain.Reservation) { c.reservations = res })),
		c.gw.Subscribe(store.Query{Collection: store.ColFeedbacks, TenantID: tenantID, OrderBy: "createdAt", Desc: true},
			applySnapshot(c, epoch, store.ColFeedbacks, func(fb []domain.Feedback) { c.feedbacks = fb })),
		c.gw.SubscribeSettings(tenantID, c.applySettings(epoch)),
	}

	c.mu.Lock()
	if epoch == c.epoch {
		c.unsubs = unsubs
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.ActiveSubscriptions.Add(float64(len(unsubs)))
		}
		return
	}
	// A newer SetTenant raced us; these subscriptions are already stale.
	c.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// applySnapshot builds a snapshot callback that decodes the delivery and
// replaces the mirror, unless the subscription's epoch has been superseded.
func applySnapshot[T any](c *TenantContext, epoch uint64, collection string, assign func([]T)) store.Snapshot {
	return func(docs []store.Document) {
		items, err := store.DecodeAll[T](docs)
		if err != nil {
			c.log.Error("snapshot decode failed", "collection", collection, "err", err)
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if epoch != c.epoch {
			if c.metrics != nil {
				c.metrics.StaleDeliveries.Inc()
			}
			return
		}
		assign(items)
		if c.metrics != nil {
			c.metrics.SnapshotDeliveries.WithLabelValues(collection).Inc()
		}
	}
}

// applySettings also clears the loading flag: settings is the last-to-arrive
// signal because every tenant is guaranteed a settings projection.
func (c *TenantContext) applySettings(epoch uint64) store.SettingsSnapshot {
	return func(doc store.Document) {
		var settings *domain.RestaurantSettings
		if doc != nil {
			var s domain.RestaurantSettings
			if err := store.Decode(doc, &s); err != nil {
				c.log.Error("settings decode failed", "err", err)
				return
			}
			settings = &s
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if epoch != c.epoch {
			if c.metrics != nil {
				c.metrics.StaleDeliveries.Inc()
			}
			return
		}
		if settings != nil {
			c.settings = settings
		}
		c.loading = false
	}
}

// Close tears down all subscriptions.
func (c *TenantContext) Close() {
	c.SetTenant("")
}

func (c *TenantContext) TenantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenantID
}

// Loading is true from construction until the settings subscription has
// delivered its first value for the current tenant.
func (c *TenantContext) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *TenantContext) MenuItems() []domain.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.MenuItem(nil), c.menuItems...)
}

func (c *TenantContext) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Category(nil), c.categories...)
}

func (c *TenantContext) Orders() []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Order(nil), c.orders...)
}

func (c *TenantContext) Reservations() []domain.Reservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Reservation(nil), c.reservations...)
}

func (c *TenantContext) Feedbacks() []domain.Feedback {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Feedback(nil), c.feedbacks...)
}

// Settings returns the mirrored settings projection, or false while none has
// arrived.
func (c *TenantContext) Settings() (domain.RestaurantSettings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.settings == nil {
		return domain.RestaurantSettings{}, false
	}
	return *c.settings, true
}

// --- mutations ---
//
// Every mutation captures the tenant id at call time, validates before any
// remote call, and surfaces gateway failures to the caller unchanged. There
// is no retry and no optimistic local apply.

func (c *TenantContext) AddMenuItem(ctx context.Context, item domain.MenuItem) (string, error) {
	tenantID := c.TenantID()
	if tenantID == "" {
		return "", ErrNoTenant
	}
	if err := item.Validate(); err != nil {
		return "", err
	}
	item.ID = ""
	doc, err := store.Encode(item)
	if err != nil {
		return "", err
	}
	doc[store.TenantField] = tenantID
	id, err := c.gw.Add(ctx, store.ColMenuItems, doc)
	if err != nil {
		c.log.Error("add menu item failed", "tenant", tenantID, "err", err)
		return "", err
	}
	c.countWrite(store.ColMenuItems, "add")
	return id, nil
}

func (c *TenantContext) UpdateMenuItem(ctx context.Context, id string, patch domain.MenuItemPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	doc, err := store.Encode(patch)
	if err != nil {
		return err
	}
	if err := c.gw.Update(ctx, store.ColMenuItems, id, doc); err != nil {
		c.log.Error("update menu item failed", "id", id, "err", err)
		return err
	}
	c.countWrite(store.ColMenuItems, "update")
	return nil
}

func (c *TenantContext) DeleteMenuItem(ctx context.Context, id string) error {
	if err := c.gw.Delete(ctx, store.ColMenuItems, id); err != nil {
		c.log.Error("delete menu item failed", "id", id, "err", err)
		return err
	}
	c.countWrite(store.ColMenuItems, "delete")
	return nil
}

func (c *TenantContext) AddCategory(ctx context.Context, cat domain.Category) (string, error) {
	tenantID := c.TenantID()
	if tenantID == "" {
		return "", ErrNoTenant
	}
	if err := cat.Validate(); err != nil {
		return "", err
	}
	cat.ID = ""
	doc, err := store.Encode(cat)
	if err != nil {
		return "", err
	}
	doc[store.TenantField] = tenantID
	id, err := c.gw.Add(ctx, store.ColCategories, doc)
	if err != nil {
		c.log.Error("add category failed", "tenant", tenantID, "err", err)
		return "", err
	}
	c.countWrite(store.ColCategories, "add")
	return id, nil
}

func (c *TenantContext) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	doc, err := store.Encode(patch)
	if err != nil {
		return err
	}
	if err := c.gw.Update(ctx, store.ColCategories, id, doc); err != nil {
		c.log.Error("update category failed", "id", id, "err", err)
		return err
	}
	c.countWrite(store.ColCategories, "update")
	return nil
}

// DeleteCategory removes a category. Callers are expected to have checked
// that no menu item still references it.
func (c *TenantContext) DeleteCategory(ctx context.Context, id string) error {
	if err := c.gw.Delete(ctx, store.ColCategories, id); err != nil {
		c.log.Error("delete category failed", "id", id, "err", err)
		return err
	}
	c.countWrite(store.ColCategories, "delete")
	return nil
}

// AddOrder stores a new order. Status always initializes to "new" and the
// creation timestamp is assigned here; line items are snapshots, not live
// references.
func (c *TenantContext) AddOrder(ctx context.Context, order domain.Order) (string, error) {
	tenantID := c.TenantID()
	if tenantID == "" {
		return "", ErrNoTenant
	}
	order.Status = domain.OrderNew
	order.CreatedAt = time.Now().UTC()
	if err := order.Validate(); err != nil {
		return "", err
	}
	order.ID = ""
	doc, err := store.Encode(order)
	if err != nil {
		return "", err
	}
	doc[store.TenantField] = tenantID
	id, err := c.gw.Add(ctx, store.ColOrders, doc)
	if err != nil {
		c.log.Error("add order failed", "tenant", tenantID, "err", err)
		return "", err
	}
	c.countWrite(store.ColOrders, "add")
	return id, nil
}

// UpdateOrderStatus sets the order status. Transitions are deliberately
// permissive: any known status can be set from any other.
func (c *TenantContext) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := c.gw.Update(ctx, store.ColOrders, id, store.Document{"status": string(status)})
	if err != nil {
		c.log.Error("update order status failed", "id", id, "err", err)
		return err
	}
	c.countWrite(store.ColOrders, "update")
	return nil
}

// AddReservation stores a new reservation with status "pending".
func (c *TenantContext) AddReservation(ctx context.Context, res domain.Reservation) (string, error) {
	tenantID := c.TenantID()
	if tenantID == "" {
		return "", ErrNoTenant
	}
	res.Status = domain.ReservationPending
	res.CreatedAt = time.Now().UTC()
	if err := res.Validate(); err != nil {
		return "", err
	}
	res.ID = ""
	doc, err := store.Encode(res)
	if err != nil {
		return "", err
	}
	doc[store.TenantField] = tenantID
	id, err := c.gw.Add(ctx, store.ColReservations, doc)
	if err != nil {
		c.log.Error("add reservation failed", "tenant", tenantID, "err", err)
		return "", err
	}
	c.countWrite(store.ColReservations, "add")
	return id, nil
}

func (c *TenantContext) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := c.gw.Update(ctx, store.ColReservations, id, store.Document{"status": string(status)})
	if err != nil {
		c.log.Error("update reservation status failed", "id", id, "err", err)
		return err
	}
	c.countWrite(store.ColReservations, "update")
	return nil
}

// AddFeedback stores feedback. Feedback is immutable after creation; there
// is no update operation.
func (c *TenantContext) AddFeedback(ctx context.Context, fb domain.Feedback) (string, error) {
	tenantID := c.TenantID()
	if tenantID == "" {
		return "", ErrNoTenant
	}
	fb.CreatedAt = time.Now().UTC()
	if err := fb.Validate(); err != nil {
		return "", err
	}
	fb.ID = ""
	doc, err := store.Encode(fb)
	if err != nil {
		return "", err
	}
	doc[store.TenantField] = tenantID
	id, err := c.gw.Add(ctx, store.ColFeedbacks, doc)
	if err != nil {
		c.log.Error("add feedback failed", "tenant", tenantID, "err", err)
		return "", err
	}
	c.countWrite(store.ColFeedbacks, "add")
	return id, nil
}

// UpdateSettings merges a partial update into the settings projection.
func (c *TenantContext) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) error {
	tenantID := c.TenantID()
	if tenantID == "" {
		return ErrNoTenant
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	doc, err := store.Encode(patch)
	if err != nil {
		return err
	}
	if err := c.gw.SetSettings(ctx, tenantID, doc); err != nil {
		c.log.Error("update settings failed", "tenant", tenantID, "err", err)
		return err
	}
	c.countWrite("settings", "update")
	return nil
}

func (c *TenantContext) countWrite(collection, op string) {
	if c.metrics != nil {
		c.metrics.WritesTotal.WithLabelValues(collection, op).Inc()
	}
}
