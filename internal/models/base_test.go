package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoolPtr(t *testing.T) {
	tests := []struct {
		name  string
		input bool
	}{
		{"true", true},
		{"false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ptr := BoolPtr(tt.input)
			assert.NotNil(t, ptr)
			assert.Equal(t, tt.input, *ptr)
		})
	}
}

func TestBoolVal(t *testing.T) {
	truth, falsehood := true, false
	tests := []struct {
		name     string
		input    *bool
		expected bool
	}{
		{"nil defaults to true", nil, true},
		{"true pointer", &truth, true},
		{"false pointer", &falsehood, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BoolVal(tt.input))
		})
	}
}

func TestBoolValDefault(t *testing.T) {
	truth := true
	tests := []struct {
		name       string
		input      *bool
		defaultVal bool
		expected   bool
	}{
		{"nil uses default true", nil, true, true},
		{"nil uses default false", nil, false, false},
		{"non-nil ignores default", &truth, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BoolValDefault(tt.input, tt.defaultVal))
		})
	}
}

func TestBaseModel_IsZero(t *testing.T) {
	t.Run("zero ID", func(t *testing.T) {
		m := &BaseModel{}
		assert.True(t, m.IsZero())
	})

	t.Run("non-zero ID", func(t *testing.T) {
		m := &BaseModel{ID: 42}
		assert.False(t, m.IsZero())
	})
}

func TestBaseModel_GetID(t *testing.T) {
	m := &BaseModel{ID: 7}
	assert.Equal(t, uint64(7), m.GetID())
}
