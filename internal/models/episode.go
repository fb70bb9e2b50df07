package models

import "gorm.io/gorm"

// Episode wraps exactly one Generic under a Season, keyed by episode
// number. Per the data model invariant, an Episode's Generic is never
// also listed among a Library's free generics.
type Episode struct {
	BaseModel
	SeasonID  uint64 `gorm:"not null;uniqueIndex:idx_episode_season_number" json:"season_id"`
	Number    int    `gorm:"not null;uniqueIndex:idx_episode_season_number" json:"number"`
	GenericID uint64 `gorm:"not null;uniqueIndex" json:"generic_id"`

	Generic *Generic `gorm:"foreignKey:GenericID" json:"generic,omitempty"`
}

// TableName overrides the default pluralized table name.
func (Episode) TableName() string {
	return "episodes"
}

// Validate checks Episode invariants independent of persisted state.
func (e *Episode) Validate() error {
	if e.SeasonID == 0 {
		return ErrSeasonIDRequired
	}
	if e.Number == 0 {
		return ErrEpisodeNumberRequired
	}
	if e.GenericID == 0 {
		return ErrGenericIDRequired
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	return e.Validate()
}
