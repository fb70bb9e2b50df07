// Package models defines GORM database models for transcast entities.
package models

import (
	"time"

	"gorm.io/gorm"
)

// BoolPtr returns a pointer to a bool value.
// Useful for setting *bool fields in structs.
func BoolPtr(b bool) *bool {
	return &b
}

// BoolVal returns the value of a bool pointer, defaulting to true if nil.
// This matches GORM's default:true behavior for optional bool fields.
func BoolVal(b *bool) bool {
	return b == nil || *b
}

// BoolValDefault returns the value of a bool pointer with a custom default.
func BoolValDefault(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// BaseModel provides common fields for all models. The identity is a
// server-assigned, monotonically increasing uint64 rather than a
// client-generatable key: Generics, FileVersions, Tasks and Workers are
// only ever minted by the server, so there is no need for a
// collision-resistant key a client could generate offline.
type BaseModel struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// IsZero reports whether the model has not yet been assigned an ID.
func (b *BaseModel) IsZero() bool {
	return b.ID == 0
}

// GetID returns the numeric identifier.
func (b *BaseModel) GetID() uint64 {
	return b.ID
}

// Time is an alias for time.Time used in models.
type Time = time.Time

// Now returns the current time.
func Now() Time {
	return time.Now()
}
