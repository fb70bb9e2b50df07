package models

import "gorm.io/gorm"

// Season owns Episodes keyed by episode number, under one Show.
type Season struct {
	BaseModel
	ShowID uint64 `gorm:"not null;uniqueIndex:idx_season_show_number" json:"show_id"`
	Number int    `gorm:"not null;uniqueIndex:idx_season_show_number" json:"number"`

	Episodes []Episode `gorm:"foreignKey:SeasonID" json:"episodes,omitempty"`
}

// TableName overrides the default pluralized table name.
func (Season) TableName() string {
	return "seasons"
}

// Validate checks Season invariants independent of persisted state.
func (s *Season) Validate() error {
	if s.ShowID == 0 {
		return ErrShowIDRequired
	}
	if s.Number == 0 {
		return ErrSeasonNumberRequired
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (s *Season) BeforeCreate(tx *gorm.DB) error {
	return s.Validate()
}

// EpisodeByNumber returns the Episode with the given number, if loaded.
func (s *Season) EpisodeByNumber(number int) (*Episode, bool) {
	for i := range s.Episodes {
		if s.Episodes[i].Number == number {
			return &s.Episodes[i], true
		}
	}
	return nil, false
}
