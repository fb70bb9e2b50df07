package models

import "gorm.io/gorm"

// Show is the root of the hierarchical grouping for content whose
// filename matches the season/episode pattern. A Show owns Seasons
// keyed by season number.
type Show struct {
	BaseModel
	Title string `gorm:"not null;uniqueIndex" json:"title"`

	Seasons []Season `gorm:"foreignKey:ShowID" json:"seasons,omitempty"`
}

// TableName overrides the default pluralized table name.
func (Show) TableName() string {
	return "shows"
}

// Validate checks Show invariants independent of persisted state.
func (s *Show) Validate() error {
	if s.Title == "" {
		return ErrShowTitleRequired
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (s *Show) BeforeCreate(tx *gorm.DB) error {
	return s.Validate()
}

// SeasonByNumber returns the Season with the given number, if loaded.
func (s *Show) SeasonByNumber(number int) (*Season, bool) {
	for i := range s.Seasons {
		if s.Seasons[i].Number == number {
			return &s.Seasons[i], true
		}
	}
	return nil, false
}
