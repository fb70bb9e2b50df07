package models

import "gorm.io/gorm"

// Designation classifies what a Generic represents.
type Designation string

const (
	// DesignationGeneric is untyped tracked media with no show/episode structure.
	DesignationGeneric Designation = "generic"
	// DesignationEpisode is a Generic wrapped by exactly one Episode.
	DesignationEpisode Designation = "episode"
	// DesignationMovie is a standalone feature-length Generic.
	DesignationMovie Designation = "movie"
)

// Valid reports whether d is one of the recognized designations.
func (d Designation) Valid() bool {
	switch d {
	case DesignationGeneric, DesignationEpisode, DesignationMovie:
		return true
	default:
		return false
	}
}

// Generic is a unit of tracked media content: one or more physical
// FileVersions sharing a single identity, exactly one of them flagged
// master.
type Generic struct {
	BaseModel
	Designation Designation `gorm:"not null;index" json:"designation"`
	ProfileID   *uint64     `json:"profile_id,omitempty"`
	Profile     *Profile    `json:"profile,omitempty"`
	Hash        *string     `json:"hash,omitempty"`

	FileVersions []FileVersion `gorm:"foreignKey:GenericID" json:"file_versions,omitempty"`
}

// TableName overrides the default pluralized table name.
func (Generic) TableName() string {
	return "generics"
}

// Validate checks Generic invariants independent of persisted state.
func (g *Generic) Validate() error {
	if g.Designation == "" {
		return ErrDesignationRequired
	}
	if !g.Designation.Valid() {
		return ErrInvalidDesignation
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (g *Generic) BeforeCreate(tx *gorm.DB) error {
	return g.Validate()
}

// Master returns the FileVersion flagged master, and whether one was found.
// Per the data model invariant, a reconstructed Generic keeps its master at
// index 0, but Master does not rely on ordering.
func (g *Generic) Master() (*FileVersion, bool) {
	for i := range g.FileVersions {
		if g.FileVersions[i].Master {
			return &g.FileVersions[i], true
		}
	}
	return nil, false
}

// NonMasterVersions returns every FileVersion not flagged master.
func (g *Generic) NonMasterVersions() []FileVersion {
	var out []FileVersion
	for _, fv := range g.FileVersions {
		if !fv.Master {
			out = append(out, fv)
		}
	}
	return out
}
