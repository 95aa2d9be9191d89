// Package cart keeps per-tenant shopping carts in persisted client state.
// Carts are keyed by tenant id so they never bleed across tenants and
// survive restarts.
package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/surajmeruva0786/restosaas2/internal/clientstate"
)

type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	IsVeg    bool    `json:"isVeg"`
}

type Service struct {
	State clientstate.Store
}

func cartKey(tenantID string) string {
	return "cart_" + tenantID
}

// Items returns the cart contents for a tenant; an absent cart is empty.
func (s Service) Items(ctx context.Context, tenantID string) ([]Item, error) {
	raw, err := s.State.Get(ctx, cartKey(tenantID))
	if errors.Is(err, clientstate.ErrNoValue) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem appends an item, or bumps its quantity when already present.
func (s Service) AddItem(ctx context.Context, tenantID string, item Item) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return err
	}
	found := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, item)
	}
	return s.save(ctx, tenantID, items)
}

// UpdateQuantity sets an item's quantity; zero or less removes it.
func (s Service) UpdateQuantity(ctx context.Context, tenantID, itemID string, quantity int) error {
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return err
	}
	out := items[:0]
	for _, it := range items {
		if it.ID == itemID {
			if quantity <= 0 {
				continue
			}
			it.Quantity = quantity
		}
		out = append(out, it)
	}
	return s.save(ctx, tenantID, out)
}

func (s Service) RemoveItem(ctx context.Context, tenantID, itemID string) error {
	return s.UpdateQuantity(ctx, tenantID, itemID, 0)
}

// Clear drops the tenant's cart.
func (s Service) Clear(ctx context.Context, tenantID string) error {
	return s.State.Delete(ctx, cartKey(tenantID))
}

// Totals returns the item count and price total.
func (s Service) Totals(ctx context.Context, tenantID string) (int, float64, error) {
	items, err := s.Items(ctx, tenantID)
	if err != nil {
		return 0, 0, err
	}
	count := 0
	total := 0.0
	for _, it := range items {
		count += it.Quantity
		total += it.Price * float64(it.Quantity)
	}
	return count, total, nil
}

func (s Service) save(ctx context.Context, tenantID string, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.State.Set(ctx, cartKey(tenantID), string(raw))
}
