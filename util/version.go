package util

import (
	"heartbeat/logger"

	"github.com/hashicorp/go-version"
)

// VersionOutdated is true when current is older than minimum. An empty
// minimum means the api has no requirement.
func VersionOutdated(current string, minimum string) bool {
	if minimum == "" {
		return false
	}

	c, err := VersionCompare(current, minimum)
	if err != nil {
		logger.Warn("Unable to compare agent version", "current", current, "minimum", minimum, "err", err)
		return false
	}

	return c < 0
}

// returns -2 for invalid versions
func VersionCompare(v1 string, v2 string) (int, error) {
	version1, err := version.NewVersion(v1)
	if err != nil {
		return -2, err
	}

	version2, err := version.NewVersion(v2)
	if err != nil {
		return -2, err
	}

	return version1.Compare(version2), nil
}
