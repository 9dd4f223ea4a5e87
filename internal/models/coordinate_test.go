package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateValidate(t *testing.T) {
	valid := []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 90, Lng: 180},
		{Lat: -90, Lng: -180},
		DefaultCenter,
	}
	for _, c := range valid {
		assert.NoError(t, c.Validate(), c.String())
	}

	invalid := []Coordinate{
		{Lat: 90.0001, Lng: 0},
		{Lat: -91, Lng: 0},
		{Lat: 0, Lng: 180.5},
		{Lat: 0, Lng: -181},
	}
	for _, c := range invalid {
		require.ErrorIs(t, c.Validate(), ErrInvalidCoordinate, c.String())
	}
}

func TestCanonicalEventKey(t *testing.T) {
	assert.Equal(t, "CORK2025", CanonicalEventKey("cork2025"))
	assert.Equal(t, "CORK2025", CanonicalEventKey("  Cork2025\t"))
	assert.Equal(t, "", CanonicalEventKey("   "))
}

func TestCategoryIsValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.IsValid(), string(c))
	}
	assert.False(t, Category("🎉").IsValid())
	assert.False(t, Category("").IsValid())
	assert.True(t, DefaultCategory.IsValid())
}
