package models

import "gorm.io/gorm"

// EncodeProfile is a target transcode recipe identifier, e.g. H265_1080p.
// It maps a FileVersion onto codec arguments, an optional scale filter,
// and an output container/extension, without specifying the ffmpeg
// invocation itself.
type EncodeProfile struct {
	BaseModel
	Name string `gorm:"not null;uniqueIndex" json:"name"`

	CodecArgs       []string  `gorm:"serializer:json" json:"codec_args"`
	ScaleFilter     *string   `json:"scale_filter,omitempty"`
	OutputContainer Container `gorm:"not null" json:"output_container"`
	OutputExtension string    `gorm:"not null" json:"output_extension"`
}

// TableName overrides the default pluralized table name.
func (EncodeProfile) TableName() string {
	return "encode_profiles"
}

// Validate checks EncodeProfile invariants independent of persisted state.
func (ep *EncodeProfile) Validate() error {
	if ep.Name == "" {
		return ErrEncodeProfileNameRequired
	}
	switch ep.OutputContainer {
	case ContainerMP4, ContainerMKV, ContainerWEBM:
	default:
		return ErrValidation{Field: "output_container", Message: "must be MP4, MKV or WEBM"}
	}
	if ep.OutputExtension == "" {
		return ErrValidation{Field: "output_extension", Message: "is required"}
	}
	return nil
}

// BeforeCreate runs GORM validation before insert.
func (ep *EncodeProfile) BeforeCreate(tx *gorm.DB) error {
	return ep.Validate()
}
