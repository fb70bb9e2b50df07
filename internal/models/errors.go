package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrDesignationRequired indicates a Generic was created without a designation.
	ErrDesignationRequired = errors.New("designation is required")

	// ErrInvalidDesignation indicates an unrecognized designation value.
	ErrInvalidDesignation = errors.New("invalid designation: must be 'generic', 'episode' or 'movie'")

	// ErrPathRequired indicates a required file path field is empty.
	ErrPathRequired = errors.New("path is required")

	// ErrGenericIDRequired indicates a FileVersion was created without a parent Generic.
	ErrGenericIDRequired = errors.New("generic_id is required")

	// ErrNoMasterFileVersion indicates a Generic has FileVersions but none marked master.
	ErrNoMasterFileVersion = errors.New("generic has file versions but no master")

	// ErrMultipleMasterFileVersions indicates a Generic has more than one master FileVersion.
	ErrMultipleMasterFileVersions = errors.New("generic has more than one master file version")

	// ErrShowTitleRequired indicates a Show was created without a title.
	ErrShowTitleRequired = errors.New("show title is required")

	// ErrSeasonNumberRequired indicates a Season was created without a number.
	ErrSeasonNumberRequired = errors.New("season number is required")

	// ErrEpisodeNumberRequired indicates an Episode was created without a number.
	ErrEpisodeNumberRequired = errors.New("episode number is required")

	// ErrShowIDRequired indicates a Season was created without a parent Show.
	ErrShowIDRequired = errors.New("show_id is required")

	// ErrSeasonIDRequired indicates an Episode was created without a parent Season.
	ErrSeasonIDRequired = errors.New("season_id is required")

	// ErrProfileNameRequired indicates a Profile was created without a name.
	ErrProfileNameRequired = errors.New("profile name is required")

	// ErrInvalidResolutionClass indicates an unrecognized resolution class.
	ErrInvalidResolutionClass = errors.New("invalid resolution class")

	// ErrEncodeProfileNameRequired indicates an EncodeProfile was created without a name.
	ErrEncodeProfileNameRequired = errors.New("encode profile name is required")

	// ErrInvalidTaskVariant indicates an unrecognized Task variant.
	ErrInvalidTaskVariant = errors.New("invalid task variant")

	// ErrWorkerAddressRequired indicates a Worker was registered without an address.
	ErrWorkerAddressRequired = errors.New("worker address is required")

	// ErrRejectReasonRequired indicates a RejectedFile was recorded without a reason.
	ErrRejectReasonRequired = errors.New("reject reason is required")
)
