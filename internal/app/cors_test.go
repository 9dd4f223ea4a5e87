package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"spes.app", "*.spes.app", "localhost:*"}

	assert.True(t, originAllowed(patterns, "https://spes.app"))
	assert.True(t, originAllowed(patterns, "https://map.spes.app"))
	assert.True(t, originAllowed(patterns, "https://a.b.spes.app"))
	assert.True(t, originAllowed(patterns, "http://localhost:3000"))
	// a bare host is matched as-is
	assert.True(t, originAllowed(patterns, "spes.app"))

	assert.False(t, originAllowed(patterns, "https://evil.app"))
	assert.False(t, originAllowed(patterns, "https://spesXapp"))
	assert.False(t, originAllowed(patterns, "http://remotehost:3000"))
	assert.False(t, originAllowed(nil, "https://spes.app"))
}

func TestHostMatches(t *testing.T) {
	assert.True(t, hostMatches("spes.app", "spes.app"))
	assert.False(t, hostMatches("spes.app", "map.spes.app"))

	assert.True(t, hostMatches("*.spes.app", "map.spes.app"))
	assert.False(t, hostMatches("*.spes.app", "spes.app"))

	assert.True(t, hostMatches("localhost:*", "localhost:8080"))
	assert.False(t, hostMatches("localhost:*", "localhost"))
}
