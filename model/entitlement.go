package model

import "time"

// EntitlementRecord grants a requester full access to every track of a product.
type EntitlementRecord struct {
	ID          int64     `gorm:"primaryKey"`
	RequesterID string    `gorm:"size:128;uniqueIndex:idx_requester_product"`
	ProductID   string    `gorm:"size:64;uniqueIndex:idx_requester_product"`
	GrantedAt   time.Time `gorm:"not null"`
}

// TableName keeps the table name stable regardless of GORM's pluralisation.
func (EntitlementRecord) TableName() string { return "entitlements" }

// Entitlement is the per-request access decision threaded through the pipeline.
type Entitlement int

const (
	EntitlementPreview Entitlement = iota
	EntitlementFull
)

func (e Entitlement) String() string {
	if e == EntitlementFull {
		return "full"
	}
	return "preview"
}

// Requester identifies who is asking for a stream. An empty ID is anonymous.
type Requester struct {
	ID    string
	Admin bool
}
