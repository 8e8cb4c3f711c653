package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	UUID          uuid.UUID `json:"uuid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CustomerID    string    `json:"customer_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Segment       string    `json:"segment,omitempty"`
	City          string    `json:"city,omitempty"`
	Country       string    `json:"country,omitempty"`
	LifetimeValue float64   `json:"lifetime_value"`
}

type Order struct {
	UUID        uuid.UUID   `json:"uuid"`
	CreatedAt   time.Time   `json:"created_at"`
	OrderID     string      `json:"order_id"`
	CustomerID  string      `json:"customer_id"`
	OrderDate   time.Time   `json:"order_date"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Items       []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	UUID      uuid.UUID `json:"uuid"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// CustomerInsights is the 360 view of a customer: profile, order aggregates
// and recent browsing sessions.
type CustomerInsights struct {
	Customer       Customer  `json:"customer"`
	OrderCount     int       `json:"order_count"`
	TotalSpent     float64   `json:"total_spent"`
	AverageOrder   float64   `json:"average_order"`
	LastOrderDate  time.Time `json:"last_order_date,omitempty"`
	RecentSessions []Session `json:"recent_sessions,omitempty"`
}
