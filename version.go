// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
)

// Version returns the library version with the commit it was built from.
func Version() semver.Version {
	return version
}
