package model

import "time"

// Product is a commerce product; its tracks are ordered by Index.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Title     string    `json:"title" gorm:"size:255"`
	Tracks    []Track   `json:"tracks" gorm:"foreignKey:ProductID;references:ID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
