// Package store defines the gateway to the real-time document store. All
// tenant state lives behind this interface; the sync layer never talks to a
// backend directly.
package store

import (
	"context"
	"errors"
)

// Logical collections.
const (
	ColRestaurants          = "restaurants"
	ColMenuItems            = "menuItems"
	ColCategories           = "categories"
	ColOrders               = "orders"
	ColReservations         = "reservations"
	ColFeedbacks            = "feedbacks"
	ColPaymentNotifications = "paymentNotifications"
)

// TenantField is the scoping field carried by every tenant-owned document.
const TenantField = "restaurantId"

var ErrNotFound = errors.New("store: document not found")

// Document is the wire shape of a stored record. Reads always carry the
// server-assigned "id" field.
type Document = map[string]any

// Query selects a collection, optionally scoped to one tenant, with an
// optional ordering field.
type Query struct {
	Collection string
	TenantID   string // empty means unscoped
	OrderBy    string
	Desc       bool
}

// Snapshot receives the full current contents of the subscribed collection.
// Semantics are replace, not merge: consumers drop their previous copy
// wholesale on every delivery.
type Snapshot func(docs []Document)

// SettingsSnapshot receives the current settings document, or nil when the
// tenant has no settings projection yet.
type SettingsSnapshot func(doc Document)

// Unsubscribe tears down a subscription. It is safe to open a replacement
// subscription immediately after it returns: no delivery for the old
// subscription will run once it has returned.
type Unsubscribe func()

// Gateway is the typed wrapper over the document store.
//
// Subscribe fires the callback once with the current contents, then again on
// every future change, until unsubscribed. Deliveries for one subscription
// are in order; there is no cross-collection ordering guarantee.
type Gateway interface {
	Add(ctx context.Context, collection string, doc Document) (string, error)
	Update(ctx context.Context, collection, id string, patch Document) error
	Delete(ctx context.Context, collection, id string) error
	GetAll(ctx context.Context, q Query) ([]Document, error)
	Subscribe(q Query, fn Snapshot) Unsubscribe

	// Per-tenant settings live in a dedicated single-document collection
	// addressed by tenant id. SetSettings has merge-style upsert semantics:
	// fields absent from the patch are left untouched.
	GetSettings(ctx context.Context, tenantID string) (Document, error)
	SetSettings(ctx context.Context, tenantID string, patch Document) error
	SubscribeSettings(tenantID string, fn SettingsSnapshot) Unsubscribe
}
