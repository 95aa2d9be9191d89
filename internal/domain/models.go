package domain

import "time"

// Enumerations
const (
	OrderNew       OrderStatus = "new"
	OrderPreparing OrderStatus = "preparing"
	OrderCompleted OrderStatus = "completed"

	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeaway OrderType = "takeaway"

	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"

	NotificationPending NotificationStatus = "pending"
	NotificationRead    NotificationStatus = "read"
	NotificationPaid    NotificationStatus = "paid"

	SubscriptionTrial   SubscriptionTier = "trial"
	SubscriptionBasic   SubscriptionTier = "basic"
	SubscriptionPremium SubscriptionTier = "premium"
)

type OrderStatus string
type OrderType string
type ReservationStatus string
type NotificationStatus string
type SubscriptionTier string

func (s OrderStatus) Valid() bool {
	return s == OrderNew || s == OrderPreparing || s == OrderCompleted
}

func (t OrderType) Valid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway
}

func (s ReservationStatus) Valid() bool {
	return s == ReservationPending || s == ReservationConfirmed || s == ReservationCancelled
}

func (s NotificationStatus) Valid() bool {
	return s == NotificationPending || s == NotificationRead || s == NotificationPaid
}

func (t SubscriptionTier) Valid() bool {
	return t == SubscriptionTrial || t == SubscriptionBasic || t == SubscriptionPremium
}

// Restaurant is one tenant account. The slug is unique across all tenants
// and the id is immutable once created. AdminPassword holds a bcrypt hash.
type Restaurant struct {
	ID             string           `json:"id"`
	Slug           string           `json:"slug"`
	Name           string           `json:"name"`
	Address        string           `json:"address"`
	Phone          string           `json:"phone"`
	Whatsapp       string           `json:"whatsapp"`
	Email          string           `json:"email"`
	OpeningHours   string           `json:"openingHours"`
	IsOpen         bool             `json:"isOpen"`
	Cuisine        []string         `json:"cuisine"`
	Rating         float64          `json:"rating,omitempty"`
	Logo           string           `json:"logo,omitempty"`
	CoverImage     string           `json:"coverImage,omitempty"`
	AdminUsername  string           `json:"adminUsername"`
	AdminPassword  string           `json:"adminPassword"`
	IsActive       bool             `json:"isActive"`
	Subscription   SubscriptionTier `json:"subscription"`
	DueAmount      float64          `json:"dueAmount"`
	LastPaymentAt  string           `json:"lastPaymentDate,omitempty"`
	NextPaymentDue string           `json:"nextPaymentDue,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// MenuItem belongs to exactly one restaurant and one category.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	IsVeg       bool    `json:"isVeg"`
	IsAvailable bool    `json:"isAvailable"`
	Image       string  `json:"image,omitempty"`
}

// Category order defines the display sequence on the menu.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// OrderItem is a snapshot of the menu item at order time, so historical
// orders are immune to later menu edits.
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID            string      `json:"id"`
	Items         []OrderItem `json:"items"`
	CustomerName  string      `json:"customerName"`
	CustomerPhone string      `json:"customerPhone"`
	OrderType     OrderType   `json:"orderType"`
	TableNumber   string      `json:"tableNumber,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Total         float64     `json:"total"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type Reservation struct {
	ID             string            `json:"id"`
	CustomerName   string            `json:"customerName"`
	CustomerPhone  string            `json:"customerPhone"`
	Date           string            `json:"date"`
	Time           string            `json:"time"`
	NumberOfPeople int               `json:"numberOfPeople"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Feedback is immutable after creation.
type Feedback struct {
	ID           string    `json:"id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CustomerName string    `json:"customerName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RestaurantSettings is the public-facing projection of a restaurant, stored
// separately so storefront screens never read admin credentials or billing.
type RestaurantSettings struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	Whatsapp     string   `json:"whatsapp"`
	OpeningHours string   `json:"openingHours"`
	IsOpen       bool     `json:"isOpen"`
	Cuisine      []string `json:"cuisine"`
	Rating       float64  `json:"rating,omitempty"`
}

// PaymentNotification is created only by the platform operator. The
// restaurant name is snapshotted at send time.
type PaymentNotification struct {
	ID             string             `json:"id"`
	RestaurantID   string             `json:"restaurantId"`
	RestaurantName string             `json:"restaurantName"`
	Amount         float64            `json:"amount"`
	Message        string             `json:"message"`
	DueDate        string             `json:"dueDate,omitempty"`
	SentAt         time.Time          `json:"sentAt"`
	ReadAt         *time.Time         `json:"readAt,omitempty"`
	Status         NotificationStatus `json:"status"`
}

// SettingsProjection builds the public settings document for a restaurant.
func SettingsProjection(r Restaurant) RestaurantSettings {
	return RestaurantSettings{
		Name:         r.Name,
		Address:      r.Address,
		Phone:        r.Phone,
		Whatsapp:     r.Whatsapp,
		OpeningHours: r.OpeningHours,
		IsOpen:       r.IsOpen,
		Cuisine:      r.Cuisine,
		Rating:       r.Rating,
	}
}
