package synch

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version information for the synchronization layer.
const (
	// Version is the current version, in semver form.
	Version = "v0.3.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 3

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the synchronization layer.
type Info struct {
	// Version is the version string.
	Version string

	// Primitives lists the primitives provided.
	Primitives []string

	// Protocol names the blocking protocol shared by the primitives.
	Protocol string
}

// GetInfo returns information about the synchronization layer.
//
// Example:
//
//	info := synch.GetInfo()
//	fmt.Printf("synch %s (%s)\n", info.Version, info.Protocol)
func GetInfo() Info {
	return Info{
		Version:    Version,
		Primitives: []string{"semaphore", "lock", "cv"},
		Protocol:   "wchan lock -> release -> sleep",
	}
}

// CheckVersion reports an error unless this package is at least version
// minimum, which must be a valid semantic version such as "v0.2.0".
func CheckVersion(minimum string) error {
	if !semver.IsValid(minimum) {
		return fmt.Errorf("invalid version %q", minimum)
	}
	if semver.Compare(Version, minimum) < 0 {
		return fmt.Errorf("synch %s is older than required %s", Version, minimum)
	}
	return nil
}
