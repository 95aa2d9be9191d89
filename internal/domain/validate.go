package domain

import "errors"

// Form-level validation, run before any remote call.

func (m MenuItem) Validate() error {
	if m.Name == "" {
		return errors.New("name is required")
	}
	if m.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if m.Category == "" {
		return errors.New("category is required")
	}
	return nil
}

func (c Category) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return errors.New("item quantity must be positive")
		}
		if it.Price < 0 {
			return errors.New("item price cannot be negative")
		}
	}
	if o.CustomerName == "" {
		return errors.New("customer name is required")
	}
	if !o.OrderType.Valid() {
		return errors.New("order type must be dine-in or takeaway")
	}
	if o.Total < 0 {
		return errors.New("total cannot be negative")
	}
	return nil
}

func (r Reservation) Validate() error {
	if r.CustomerName == "" {
		return errors.New("customer name is required")
	}
	if r.Date == "" || r.Time == "" {
		return errors.New("date and time are required")
	}
	if r.NumberOfPeople <= 0 {
		return errors.New("party size must be positive")
	}
	return nil
}

func (f Feedback) Validate() error {
	if f.Rating < 1 || f.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

func (r Restaurant) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Slug == "" {
		return errors.New("slug is required")
	}
	if r.AdminUsername == "" || r.AdminPassword == "" {
		return errors.New("admin credentials are required")
	}
	if r.Subscription != "" && !r.Subscription.Valid() {
		return errors.New("unknown subscription tier")
	}
	if r.DueAmount < 0 {
		return errors.New("due amount cannot be negative")
	}
	return nil
}
