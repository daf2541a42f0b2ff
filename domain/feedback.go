package domain

import "time"

// Behavioral event types accepted on the write side.
const (
	EventView     = "view"
	EventCartAdd  = "cart_add"
	EventFavorite = "favorite"
	EventPurchase = "purchase"
	EventSearch   = "search"
	EventClick    = "click"
)

// FeedbackEvent is one asynchronous click/purchase signal delivered by the
// feedback ingestion collaborator.
type FeedbackEvent struct {
	UserID    uint64    `json:"user_id"`
	SessionID string    `json:"session_id"`
	ItemID    uint64    `json:"item_id"`
	EventType string    `json:"event_type"`
	Clicked   bool      `json:"clicked"`
	CreatedAt time.Time `json:"created_at"`
}

// BehaviorEvent is one session-shaping event (view, cart add, favorite,
// purchase, search).
type BehaviorEvent struct {
	UserID      uint64  `json:"user_id"`
	SessionID   string  `json:"session_id"`
	ItemID      uint64  `json:"item_id"`
	EventType   string  `json:"event_type"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ViewSeconds int     `json:"view_seconds"`
	SearchQuery string  `json:"search_query"`
}
