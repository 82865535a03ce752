package model

import "time"

// SourceKind tells where the bytes of a track live.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// Source is the descriptor AssetLocator hands to ObjectCache: a file path for
// local assets or an object key for remote ones.
type Source struct {
	Kind    SourceKind `json:"kind"`
	Locator string     `json:"locator"`
}

// Track is one audio asset of a Product. Metadata is owned by the content host
// and read-only for the delivery engine.
type Track struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	ProductID   string     `json:"productId" gorm:"size:64;index:idx_product_position,unique"`
	Index       int        `json:"index" gorm:"column:position;index:idx_product_position,unique"`
	Title       string     `json:"title" gorm:"size:255"`
	SourceKind  SourceKind `json:"sourceKind" gorm:"size:16"`
	Locator     string     `json:"-" gorm:"size:767"`
	Duration    float64    `json:"duration"` // seconds
	Size        int64      `json:"size"`     // full byte size
	AlwaysFull  bool       `json:"alwaysFull"`
	Blocked     bool       `json:"blocked"`
	FrameBytes  int64      `json:"frameBytes"`  // fixed container frame size, 0 if unknown
	HeaderBytes int64      `json:"headerBytes"` // bytes before the first frame (e.g. ID3 tag)
	ContentType string     `json:"contentType" gorm:"size:64"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Source returns the track's source descriptor.
func (t *Track) Source() Source {
	return Source{Kind: t.SourceKind, Locator: t.Locator}
}
