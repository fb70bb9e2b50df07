package models

import "gorm.io/gorm"

// Profile is a Generic's derived resolution/container pairing. It is
// immutable once derived: a Generic whose master FileVersion changes
// resolution gets a new Profile row rather than a mutated one.
type Profile struct {
	BaseModel
	ResolutionClass ResolutionClass `gorm:"not null;uniqueIndex:idx_profile_class_container" json:"resolution_class"`
	Container       Container       `gorm:"not null;uniqueIndex:idx_profile_class_container" json:"container"`
}

// TableName overrides the default pluralized table name.
func (Profile) TableName() string {
	return "profiles"
}

// Validate checks Profile invariants independent of persisted state.
func (p *Profile) Validate() error {
	switch p.ResolutionClass {
	case ResolutionED, ResolutionSD, ResolutionHD, ResolutionFHD, ResolutionWQHD, ResolutionUHD:
	default:
		return ErrInvalidResolutionClass
	}
	switch p.Container {
	case ContainerMP4, ContainerMKV, ContainerWEBM:
	default:
		return ErrValidation{Field: "container", Message: "must be MP4, MKV or WEBM"}
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	return p.Validate()
}

// DeriveProfile builds an unpersisted Profile from a FileVersion's derived
// video fields. Returns false if the FileVersion has no resolution/
// container information yet.
func DeriveProfile(fv *FileVersion) (Profile, bool) {
	if fv.ResolutionClass == nil || fv.Container == nil {
		return Profile{}, false
	}
	return Profile{ResolutionClass: *fv.ResolutionClass, Container: *fv.Container}, true
}
