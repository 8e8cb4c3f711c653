package models

import "time"

type Session struct {
	UUID       string                 `json:"uuid"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	DeletedAt  *time.Time             `json:"deleted_at,omitempty"`
	SessionID  string                 `json:"session_id"`
	CustomerID string                 `json:"customer_id,omitempty"`
	Channel    string                 `json:"channel,omitempty"`
	DeviceType string                 `json:"device_type,omitempty"`
	EndedAt    *time.Time             `json:"ended_at,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type SessionEvent struct {
	UUID       string                 `json:"uuid"`
	CreatedAt  time.Time              `json:"created_at"`
	SessionID  string                 `json:"session_id"`
	EventType  string                 `json:"event_type"`
	ProductID  string                 `json:"product_id,omitempty"`
	SearchTerm string                 `json:"search_term,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Event types recorded against a session.
const (
	EventProductView = "product_view"
	EventSearch      = "search"
	EventAddToCart   = "add_to_cart"
	EventPurchase    = "purchase"
)

type ProductViewCount struct {
	ProductID string `bson:"_id" json:"product_id"`
	Views     int64  `bson:"views" json:"views"`
}

// PopularProduct joins a product's session view count with its catalog record.
type PopularProduct struct {
	ProductID string  `json:"product_id"`
	Views     int64   `json:"views"`
	Product   Product `json:"product"`
}

// SessionAnalytics aggregates event activity across sessions in a window.
type SessionAnalytics struct {
	TotalSessions   int64              `json:"total_sessions"`
	TotalEvents     int64              `json:"total_events"`
	EventsByType    map[string]int64   `json:"events_by_type"`
	TopViewed       []ProductViewCount `json:"top_viewed"`
	UniqueCustomers int64              `json:"unique_customers"`
}
