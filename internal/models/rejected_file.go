package models

import "gorm.io/gorm"

// RejectReason explains why a candidate path was rejected during ingestion.
type RejectReason string

const (
	// RejectPathContainsIgnoredPath means some path component matched an ignored-path regex.
	RejectPathContainsIgnoredPath RejectReason = "path_contains_ignored_path"
	// RejectExtensionMissing means the path has no extension at all.
	RejectExtensionMissing RejectReason = "extension_missing"
	// RejectExtensionDisallowed means the path's extension is not in the allowed set.
	RejectExtensionDisallowed RejectReason = "extension_disallowed"
)

// Valid reports whether r is a recognized RejectReason.
func (r RejectReason) Valid() bool {
	switch r {
	case RejectPathContainsIgnoredPath, RejectExtensionMissing, RejectExtensionDisallowed:
		return true
	default:
		return false
	}
}

// RejectedFile records a path ingestion declined to track, keyed by path
// (set semantics: a path is rejected at most once, the latest reason wins).
type RejectedFile struct {
	BaseModel
	Path   string       `gorm:"not null;uniqueIndex" json:"path"`
	Reason RejectReason `gorm:"not null" json:"reason"`
}

// TableName overrides the default pluralized table name.
func (RejectedFile) TableName() string {
	return "rejected_files"
}

// Validate checks RejectedFile invariants independent of persisted state.
func (rf *RejectedFile) Validate() error {
	if rf.Path == "" {
		return ErrPathRequired
	}
	if rf.Reason == "" {
		return ErrRejectReasonRequired
	}
	if !rf.Reason.Valid() {
		return ErrValidation{Field: "reason", Message: "unrecognized reject reason"}
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (rf *RejectedFile) BeforeCreate(tx *gorm.DB) error {
	return rf.Validate()
}
