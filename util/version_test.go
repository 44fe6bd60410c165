package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareInvalidVersions(t *testing.T) {
	c, err := VersionCompare("", "1.0")

	assert.Equal(t, -2, c)
	assert.NotNil(t, err)

	c, err = VersionCompare("1.0", "")

	assert.Equal(t, -2, c)
	assert.NotNil(t, err)
}

func TestCompare(t *testing.T) {
	c, _ := VersionCompare("1.0", "1.0")
	assert.Equal(t, 0, c)

	c, _ = VersionCompare("1.1", "1.0")
	assert.Equal(t, 1, c)

	c, _ = VersionCompare("2.1", "13.0")
	assert.Equal(t, -1, c)
}

func TestVersionOutdated(t *testing.T) {
	assert.False(t, VersionOutdated("0.1.0", ""))
	assert.False(t, VersionOutdated("0.2.0", "0.1.0"))
	assert.False(t, VersionOutdated("0.2.0", "0.2.0"))
	assert.True(t, VersionOutdated("0.1.0", "0.2.0"))

	// unparseable minimums never block the agent
	assert.False(t, VersionOutdated("0.1.0", "latest"))
}
