package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/surajmeruva0786/restosaas2/internal/domain"
	"github.com/surajmeruva0786/restosaas2/internal/store"
)

// DemoSlug is the reserved slug of the seeded example restaurant. The root
// route redirects to its storefront.
const DemoSlug = "demo-restaurant"

// SeedDemoData creates one fully populated example restaurant so a fresh
// deployment is immediately explorable. The check reads the store directly
// (not the mirror, which may not have loaded yet) and the whole routine is a
// no-op when the demo restaurant already exists.
func (p *PlatformContext) SeedDemoData(ctx context.Context) error {
	docs, err := p.gw.GetAll(ctx, store.Query{Collection: store.ColRestaurants})
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}
	restaurants, err := store.DecodeAll[domain.Restaurant](docs)
	if err != nil {
		return err
	}
	for _, r := range restaurants {
		if r.Slug == DemoSlug {
			return nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	demo := domain.Restaurant{
		Slug:           DemoSlug,
		Name:           "Demo Restaurant",
		Address:        "123 Food Street, Gourmet City",
		Phone:          "+91 9876543210",
		Whatsapp:       "+91 9876543210",
		Email:          "demo@restaurant.com",
		OpeningHours:   "11:00 AM - 11:00 PM",
		IsOpen:         true,
		Cuisine:        []string{"Indian", "Chinese", "Continental"},
		Rating:         4.5,
		AdminUsername:  "admin",
		AdminPassword:  string(hash),
		IsActive:       true,
		Subscription:   domain.SubscriptionPremium,
		DueAmount:      0,
		LastPaymentAt:  now.Format(time.RFC3339),
		NextPaymentDue: now.Add(30 * 24 * time.Hour).Format(time.RFC3339),
		CreatedAt:      now,
	}
	doc, err := store.Encode(demo)
	if err != nil {
		return err
	}
	restaurantID, err := p.gw.Add(ctx, store.ColRestaurants, doc)
	if err != nil {
		return fmt.Errorf("seed restaurant: %w", err)
	}

	categories := []domain.Category{
		{Name: "Starters", Order: 1},
		{Name: "Main Course", Order: 2},
		{Name: "Beverages", Order: 3},
		{Name: "Desserts", Order: 4},
	}
	categoryIDs := make([]string, 0, len(categories))
	for _, cat := range categories {
		catDoc, err := store.Encode(cat)
		if err != nil {
			return err
		}
		catDoc[store.TenantField] = restaurantID
		id, err := p.gw.Add(ctx, store.ColCategories, catDoc)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", cat.Name, err)
		}
		categoryIDs = append(categoryIDs, id)
	}

	menuItems := []domain.MenuItem{
		{Name: "Paneer Tikka", Description: "Grilled cottage cheese with aromatic spices", Price: 250, Category: categoryIDs[0], IsVeg: true, IsAvailable: true},
		{Name: "Chicken Wings", Description: "Crispy fried wings with hot sauce", Price: 300, Category: categoryIDs[0], IsVeg: false, IsAvailable: true},
		{Name: "Butter Chicken", Description: "Tender chicken in rich tomato gravy", Price: 350, Category: categoryIDs[1], IsVeg: false, IsAvailable: true},
		{Name: "Dal Makhani", Description: "Creamy black lentils slow-cooked overnight", Price: 200, Category: categoryIDs[1], IsVeg: true, IsAvailable: true},
		{Name: "Fresh Lime Soda", Description: "Refreshing lime with soda", Price: 80, Category: categoryIDs[2], IsVeg: true, IsAvailable: true},
		{Name: "Gulab Jamun", Description: "Soft milk dumplings in sugar syrup", Price: 120, Category: categoryIDs[3], IsVeg: true, IsAvailable: true},
	}
	for _, item := range menuItems {
		itemDoc, err := store.Encode(item)
		if err != nil {
			return err
		}
		itemDoc[store.TenantField] = restaurantID
		if _, err := p.gw.Add(ctx, store.ColMenuItems, itemDoc); err != nil {
			return fmt.Errorf("seed menu item %s: %w", item.Name, err)
		}
	}

	projection, err := store.Encode(domain.SettingsProjection(demo))
	if err != nil {
		return err
	}
	if err := p.gw.SetSettings(ctx, restaurantID, projection); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	p.log.Info("seeded demo restaurant", "id", restaurantID)
	return nil
}

// Startup runs the boot sequence: subscriptions, seed, one-time settings
// migration. Seed and migration failures are logged, not fatal; the context
// stays usable with whatever state the store holds.
func (p *PlatformContext) Startup(ctx context.Context) {
	p.Start()
	if err := p.SeedDemoData(ctx); err != nil {
		p.log.Error("demo seed failed", "err", err)
	}
	if err := p.SyncSettings(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Error("settings migration failed", "err", err)
	}
}
