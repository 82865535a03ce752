package model

import "time"

// PlayEvent is one counted play. Events are append-only.
type PlayEvent struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	ProductID  string    `json:"productId" gorm:"size:64;index"`
	TrackIndex int       `json:"trackIndex"`
	SessionID  string    `json:"sessionId" gorm:"size:128"`
	PlayedAt   time.Time `json:"playedAt" gorm:"index"`
}

// PlayCounts aggregates counted plays of a product.
type PlayCounts struct {
	ProductID string        `json:"productId"`
	Total     int64         `json:"total"`
	Tracks    map[int]int64 `json:"tracks"`
}
