package domain

import (
	"errors"
	"fmt"
)

// Partial updates are expressed as explicit patch types: every field is
// optional, and only fields present in the patch reach the store. The JSON
// tags match the stored document fields, so a marshalled patch is exactly
// the merge payload for the write call.

var ErrEmptyPatch = errors.New("patch contains no fields")

type MenuItemPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	IsVeg       *bool    `json:"isVeg,omitempty"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
	Image       *string  `json:"image,omitempty"`
}

func (p MenuItemPatch) Validate() error {
	if p == (MenuItemPatch{}) {
		return ErrEmptyPatch
	}
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return errors.New("price cannot be negative")
	}
	return nil
}

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Order *int    `json:"order,omitempty"`
}

func (p CategoryPatch) Validate() error {
	if p == (CategoryPatch{}) {
		return ErrEmptyPatch
	}
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	return nil
}

type RestaurantPatch struct {
	Slug           *string           `json:"slug,omitempty"`
	Name           *string           `json:"name,omitempty"`
	Address        *string           `json:"address,omitempty"`
	Phone          *string           `json:"phone,omitempty"`
	Whatsapp       *string           `json:"whatsapp,omitempty"`
	Email          *string           `json:"email,omitempty"`
	OpeningHours   *string           `json:"openingHours,omitempty"`
	IsOpen         *bool             `json:"isOpen,omitempty"`
	Cuisine        []string          `json:"cuisine,omitempty"`
	Rating         *float64          `json:"rating,omitempty"`
	Logo           *string           `json:"logo,omitempty"`
	CoverImage     *string           `json:"coverImage,omitempty"`
	AdminUsername  *string           `json:"adminUsername,omitempty"`
	AdminPassword  *string           `json:"adminPassword,omitempty"`
	IsActive       *bool             `json:"isActive,omitempty"`
	Subscription   *SubscriptionTier `json:"subscription,omitempty"`
	DueAmount      *float64          `json:"dueAmount,omitempty"`
	LastPaymentAt  *string           `json:"lastPaymentDate,omitempty"`
	NextPaymentDue *string           `json:"nextPaymentDue,omitempty"`
}

func (p RestaurantPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	if p.Slug != nil && *p.Slug == "" {
		return errors.New("slug cannot be empty")
	}
	if p.Subscription != nil && !p.Subscription.Valid() {
		return fmt.Errorf("unknown subscription tier %q", *p.Subscription)
	}
	if p.DueAmount != nil && *p.DueAmount < 0 {
		return errors.New("due amount cannot be negative")
	}
	if p.AdminUsername != nil && *p.AdminUsername == "" {
		return errors.New("admin username cannot be empty")
	}
	if p.AdminPassword != nil && *p.AdminPassword == "" {
		return errors.New("admin password cannot be empty")
	}
	return nil
}

type SettingsPatch struct {
	Name         *string  `json:"name,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Whatsapp     *string  `json:"whatsapp,omitempty"`
	OpeningHours *string  `json:"openingHours,omitempty"`
	IsOpen       *bool    `json:"isOpen,omitempty"`
	Cuisine      []string `json:"cuisine,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
}

func (p SettingsPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return errors.New("name cannot be empty")
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return errors.New("rating must be between 0 and 5")
	}
	return nil
}

// FullSettingsPatch expresses a complete settings projection as a patch.
func FullSettingsPatch(s RestaurantSettings) SettingsPatch {
	return SettingsPatch{
		Name:         &s.Name,
		Address:      &s.Address,
		Phone:        &s.Phone,
		Whatsapp:     &s.Whatsapp,
		OpeningHours: &s.OpeningHours,
		IsOpen:       &s.IsOpen,
		Cuisine:      s.Cuisine,
		Rating:       &s.Rating,
	}
}
