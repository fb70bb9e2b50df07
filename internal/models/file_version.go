package models

import "gorm.io/gorm"

// ResolutionClass buckets a FileVersion's width into a coarse tier.
type ResolutionClass string

const (
	ResolutionED   ResolutionClass = "ED"
	ResolutionSD   ResolutionClass = "SD"
	ResolutionHD   ResolutionClass = "HD"
	ResolutionFHD  ResolutionClass = "FHD"
	ResolutionWQHD ResolutionClass = "WQHD"
	ResolutionUHD  ResolutionClass = "UHD"
)

// ClassifyResolution derives a ResolutionClass from pixel width, matching
// the thresholds used by the Profile derivation step.
func ClassifyResolution(width int) ResolutionClass {
	switch {
	case width <= 0:
		return ""
	case width < 720:
		return ResolutionED
	case width < 1280:
		return ResolutionSD
	case width < 1920:
		return ResolutionHD
	case width < 2560:
		return ResolutionFHD
	case width < 3840:
		return ResolutionWQHD
	default:
		return ResolutionUHD
	}
}

// Container is the file container format of a FileVersion.
type Container string

const (
	ContainerMP4  Container = "MP4"
	ContainerMKV  Container = "MKV"
	ContainerWEBM Container = "WEBM"
)

// FileVersion is a physical file belonging to one Generic. It is created
// on ingestion (master) or on successful encode adoption (non-master) and
// is never mutated afterward except to fill in optional derived fields
// (hash, fast hash, video profile) as they become known.
type FileVersion struct {
	BaseModel
	GenericID uint64 `gorm:"not null;index" json:"generic_id"`
	Path      string `gorm:"not null;uniqueIndex" json:"path"`
	Master    bool   `gorm:"not null;default:false" json:"master"`

	// EncodeProfileID is set on non-master FileVersions to the EncodeProfile
	// that produced them, so encode_all can skip a Generic already holding
	// an encode of the requested profile. Master FileVersions leave it nil.
	EncodeProfileID *uint64 `json:"encode_profile_id,omitempty"`

	Hash     *string `json:"hash,omitempty"`
	FastHash *string `json:"fast_hash,omitempty"`

	Width           *int             `json:"width,omitempty"`
	Height          *int             `json:"height,omitempty"`
	FrameRate       *float64         `json:"frame_rate,omitempty"`
	DurationSeconds *float64         `json:"duration_seconds,omitempty"`
	ResolutionClass *ResolutionClass `json:"resolution_class,omitempty"`
	Container       *Container       `json:"container,omitempty"`
}

// TableName overrides the default pluralized table name.
func (FileVersion) TableName() string {
	return "file_versions"
}

// Validate checks FileVersion invariants independent of persisted state.
func (fv *FileVersion) Validate() error {
	if fv.GenericID == 0 {
		return ErrGenericIDRequired
	}
	if fv.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (fv *FileVersion) BeforeCreate(tx *gorm.DB) error {
	return fv.Validate()
}

// ApplyVideoProfile fills in the optional derived video profile fields and
// sets ResolutionClass/Container, matching the Profile immutable-after-
// derivation rule: once set, callers should not call this again.
func (fv *FileVersion) ApplyVideoProfile(width, height int, frameRate, durationSeconds float64, container Container) {
	fv.Width = &width
	fv.Height = &height
	fv.FrameRate = &frameRate
	fv.DurationSeconds = &durationSeconds
	class := ClassifyResolution(width)
	fv.ResolutionClass = &class
	fv.Container = &container
}
