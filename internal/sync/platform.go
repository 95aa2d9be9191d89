package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/metrics"
	"github.com/surajmeruva0786/restosaas2/internal/store"
)

var (
	// ErrNotLoaded reports a lookup issued before the restaurant mirror has
	// delivered its first snapshot. Callers must distinguish this from a
	// definitive miss.
	ErrNotLoaded = errors.New("sync: restaurant directory not loaded yet")
	// ErrNotFound reports a definitive lookup miss.
	ErrNotFound = errors.New("sync: restaurant not found")
	// ErrSlugTaken reports a slug collision on create or update.
	ErrSlugTaken = errors.New("sync: slug already in use")
)

// Key for the one-time settings migration marker.
const settingsSyncedKey = "settings_synced"

// PlatformContext mirrors the full restaurant set and all payment
// notifications. Its two subscriptions are established once and stay active
// for the lifetime of the process; they are never torn down per tenant.
type PlatformContext struct {
	gw      store.Gateway
	state   clientstate.Store
	log     *slog.Logger
	metrics *metrics.Metrics

	mu            sync.RWMutex
	restaurants   []domain.Restaurant
	notifications []domain.PaymentNotification
	loaded        bool
	unsubs        []store.Unsubscribe
}

func NewPlatformContext(gw store.Gateway, state clientstate.Store, logger *slog.Logger, m *metrics.Metrics) *PlatformContext {
	return &PlatformContext{gw: gw, state: state, log: logger, metrics: m}
}

// Start opens the global subscriptions.
func (p *PlatformContext) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubs != nil {
		return
	}
	p.unsubs = []store.Unsubscribe{
		p.gw.Subscribe(store.Query{Collection: store.ColRestaurants}, func(docs []store.Document) {
			restaurants, err := store.DecodeAll[domain.Restaurant](docs)
			if err != nil {
				p.log.Error("restaurant snapshot decode failed", "err", err)
				return
			}
			p.mu.Lock()
			p.restaurants = restaurants
			p.loaded = true
			p.mu.Unlock()
			if p.metrics != nil {
				p.metrics.SnapshotDeliveries.WithLabelValues(store.ColRestaurants).Inc()
			}
		}),
		p.gw.Subscribe(store.Query{Collection: store.ColPaymentNotifications, OrderBy: "sentAt", Desc: true}, func(docs []store.Document) {
			notifications, err := store.DecodeAll[domain.PaymentNotification](docs)
			if err != nil {
				p.log.Error("notification snapshot decode failed", "err", err)
				return
			}
			p.mu.Lock()
			p.notifications = notifications
			p.mu.Unlock()
			if p.metrics != nil {
				p.metrics.SnapshotDeliveries.WithLabelValues(store.ColPaymentNotifications).Inc()
			}
		}),
	}
	if p.metrics != nil {
		p.metrics.ActiveSubscriptions.Add(float64(len(p.unsubs)))
	}
}

func (p *PlatformContext) Close() {
	p.mu.Lock()
	unsubs := p.unsubs
	p.unsubs = nil
	p.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// Loaded reports whether the restaurant mirror has received its first
// snapshot.
func (p *PlatformContext) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

func (p *PlatformContext) Restaurants() []domain.Restaurant {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.Restaurant(nil), p.restaurants...)
}

func (p *PlatformContext) Notifications() []domain.PaymentNotification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.PaymentNotification(nil), p.notifications...)
}

// RestaurantBySlug resolves a slug from the in-memory mirror: resolution
// latency equals mirror-load latency, not a per-lookup round trip. The match
// is exact and case-sensitive.
func (p *PlatformContext) RestaurantBySlug(slug string) (domain.Restaurant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return domain.Restaurant{}, ErrNotLoaded
	}
	for _, r := range p.restaurants {
		if r.Slug == slug {
			return r, nil
		}
	}
	return domain.Restaurant{}, ErrNotFound
}

func (p *PlatformContext) RestaurantByID(id string) (domain.Restaurant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded {
		return domain.Restaurant{}, ErrNotLoaded
	}
	for _, r := range p.restaurants {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Restaurant{}, ErrNotFound
}

// NotificationsForRestaurant filters the notification mirror for one tenant.
func (p *PlatformContext) NotificationsForRestaurant(restaurantID string) []domain.PaymentNotification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.PaymentNotification, 0)
	for _, n := range p.notifications {
		if n.RestaurantID == restaurantID {
			out = append(out, n)
		}
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify normalizes a slug: lower-case, whitespace runs collapsed to single
// hyphens.
func Slugify(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// AddRestaurant creates a tenant. The slug is normalized and checked for
// uniqueness, the admin password is stored as a bcrypt hash, and the due
// amount starts at zero.
func (p *PlatformContext) AddRestaurant(ctx context.Context, r domain.Restaurant) (string, error) {
	r.Slug = Slugify(r.Slug)
	if err := r.Validate(); err != nil {
		return "", err
	}
	if err := p.checkSlugFree(r.Slug, ""); err != nil {
		return "", err
	}
	if r.Subscription == "" {
		r.Subscription = domain.SubscriptionTrial
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	r.AdminPassword = string(hash)
	r.DueAmount = 0
	r.CreatedAt = time.Now().UTC()
	r.ID = ""

	doc, err := store.Encode(r)
	if err != nil {
		return "", err
	}
	id, err := p.gw.Add(ctx, store.ColRestaurants, doc)
	if err != nil {
		p.log.Error("add restaurant failed", "slug", r.Slug, "err", err)
		return "", err
	}
	// Every tenant gets a settings projection immediately so storefront
	// screens have something to subscribe to.
	projection, err := store.Encode(domain.SettingsProjection(r))
	if err == nil {
		err = p.gw.SetSettings(ctx, id, projection)
	}
	if err != nil {
		p.log.Error("initial settings projection failed", "restaurant", id, "err", err)
	}
	p.countWrite(store.ColRestaurants, "add")
	return id, nil
}

// UpdateRestaurant applies a validated patch. A slug change is re-normalized
// and re-checked; a password change is re-hashed.
func (p *PlatformContext) UpdateRestaurant(ctx context.Context, id string, patch domain.RestaurantPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.Slug != nil {
		normalized := Slugify(*patch.Slug)
		if err := p.checkSlugFree(normalized, id); err != nil {
			return err
		}
		patch.Slug = &normalized
	}
	if patch.AdminPassword != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		hashed := string(hash)
		patch.AdminPassword = &hashed
	}
	doc, err := store.Encode(patch)
	if err != nil {
		return err
	}
	if len(doc) == 0 {
		return domain.ErrEmptyPatch
	}
	if err := p.gw.Update(ctx, store.ColRestaurants, id, doc); err != nil {
		p.log.Error("update restaurant failed", "id", id, "err", err)
		return err
	}
	p.countWrite(store.ColRestaurants, "update")
	return nil
}

// DeleteRestaurant removes the tenant record. Owned collections (menu,
// orders, reservations, feedback, settings) are intentionally left in place;
// see the data-retention note in DESIGN.md.
func (p *PlatformContext) DeleteRestaurant(ctx context.Context, id string) error {
	if err := p.gw.Delete(ctx, store.ColRestaurants, id); err != nil {
		p.log.Error("delete restaurant failed", "id", id, "err", err)
		return err
	}
	p.log.Warn("restaurant deleted; tenant-owned collections retained", "id", id)
	p.countWrite(store.ColRestaurants, "delete")
	return nil
}

// ToggleRestaurantStatus flips the active flag.
func (p *PlatformContext) ToggleRestaurantStatus(ctx context.Context, id string) error {
	r, err := p.RestaurantByID(id)
	if err != nil {
		return err
	}
	active := !r.IsActive
	return p.UpdateRestaurant(ctx, id, domain.RestaurantPatch{IsActive: &active})
}

// SendPaymentNotification creates a pending notification, snapshotting the
// restaurant's display name at send time so later renames do not alter
// historical notification text.
func (p *PlatformContext) SendPaymentNotification(ctx context.Context, restaurantID string, amount float64, message, dueDate string) (string, error) {
	if amount < 0 {
		return "", errors.New("amount cannot be negative")
	}
	if dueDate != "" {
		if _, err := domain.ParseTimestamp(dueDate); err != nil {
			return "", err
		}
	}
	r, err := p.RestaurantByID(restaurantID)
	if err != nil {
		return "", err
	}
	n := domain.PaymentNotification{
		RestaurantID:   restaurantID,
		RestaurantName: r.Name,
		Amount:         amount,
		Message:        message,
		DueDate:        dueDate,
		SentAt:         time.Now().UTC(),
		Status:         domain.NotificationPending,
	}
	doc, err := store.Encode(n)
	if err != nil {
		return "", err
	}
	delete(doc, "id")
	id, err := p.gw.Add(ctx, store.ColPaymentNotifications, doc)
	if err != nil {
		p.log.Error("send payment notification failed", "restaurant", restaurantID, "err", err)
		return "", err
	}
	p.countWrite(store.ColPaymentNotifications, "add")
	return id, nil
}

// MarkNotificationRead transitions pending→read and stamps the read time.
func (p *PlatformContext) MarkNotificationRead(ctx context.Context, id string) error {
	err := p.gw.Update(ctx, store.ColPaymentNotifications, id, store.Document{
		"status": string(domain.NotificationRead),
		"readAt": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		p.log.Error("mark notification read failed", "id", id, "err", err)
		return err
	}
	p.countWrite(store.ColPaymentNotifications, "update")
	return nil
}

// MarkNotificationPaid moves a notification to its terminal state.
func (p *PlatformContext) MarkNotificationPaid(ctx context.Context, id string) error {
	err := p.gw.Update(ctx, store.ColPaymentNotifications, id, store.Document{
		"status": string(domain.NotificationPaid),
	})
	if err != nil {
		p.log.Error("mark notification paid failed", "id", id, "err", err)
		return err
	}
	p.countWrite(store.ColPaymentNotifications, "update")
	return nil
}

// SyncSettings is the one-time migration: for every restaurant lacking a
// settings projection, synthesize one from the restaurant's public fields.
// The persisted marker makes re-runs a no-op, and an existing projection is
// never overwritten.
func (p *PlatformContext) SyncSettings(ctx context.Context) error {
	if _, err := p.state.Get(ctx, settingsSyncedKey); err == nil {
		return nil
	} else if !errors.Is(err, clientstate.ErrNoValue) {
		return err
	}

	docs, err := p.gw.GetAll(ctx, store.Query{Collection: store.ColRestaurants})
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}
	restaurants, err := store.DecodeAll[domain.Restaurant](docs)
	if err != nil {
		return err
	}
	for _, r := range restaurants {
		if _, err := p.gw.GetSettings(ctx, r.ID); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		projection, err := store.Encode(domain.SettingsProjection(r))
		if err != nil {
			return err
		}
		if err := p.gw.SetSettings(ctx, r.ID, projection); err != nil {
			return fmt.Errorf("initialize settings for %s: %w", r.ID, err)
		}
		p.log.Info("initialized settings projection", "restaurant", r.Name)
	}
	return p.state.Set(ctx, settingsSyncedKey, "true")
}

func (p *PlatformContext) checkSlugFree(slug, excludeID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.restaurants {
		if r.Slug == slug && r.ID != excludeID {
			return ErrSlugTaken
		}
	}
	return nil
}

func (p *PlatformContext) countWrite(collection, op string) {
	if p.metrics != nil {
		p.metrics.WritesTotal.WithLabelValues(collection, op).Inc()
	}
}
