package mongo

import (
	"time"
)

const (
	SessionCollection      = "session"
	SessionEventCollection = "session_event"
	ReviewCollection       = "review"
)

type sessionDoc struct {
	UUID       string                 `bson:"uuid"`
	CreatedAt  time.Time              `bson:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at"`
	DeletedAt  *time.Time             `bson:"deleted_at,omitempty"`
	SessionID  string                 `bson:"session_id"`
	CustomerID string                 `bson:"customer_id,omitempty"`
	Channel    string                 `bson:"channel,omitempty"`
	DeviceType string                 `bson:"device_type,omitempty"`
	EndedAt    *time.Time             `bson:"ended_at,omitempty"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty"`
}

type sessionEventDoc struct {
	UUID       string                 `bson:"uuid"`
	CreatedAt  time.Time              `bson:"created_at"`
	SessionID  string                 `bson:"session_id"`
	EventType  string                 `bson:"event_type"`
	ProductID  string                 `bson:"product_id,omitempty"`
	SearchTerm string                 `bson:"search_term,omitempty"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty"`
}

type reviewDoc struct {
	UUID             string     `bson:"uuid"`
	CreatedAt        time.Time  `bson:"created_at"`
	ReviewID         string     `bson:"review_id"`
	ProductID        string     `bson:"product_id"`
	CustomerID       string     `bson:"customer_id,omitempty"`
	CustomerName     string     `bson:"customer_name,omitempty"`
	Rating           int        `bson:"rating"`
	Title            string     `bson:"title,omitempty"`
	Content          string     `bson:"content"`
	VerifiedPurchase bool       `bson:"verified_purchase"`
	HelpfulCount     int        `bson:"helpful_count"`
	Embedding        []float32  `bson:"embedding,omitempty"`
	IsEmbedded       bool       `bson:"is_embedded"`
}
