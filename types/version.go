package types

import "fmt"

// Version is the canonical project version.
// The CLI, the archive layout, and the parquet schemas share this version.
const Version = "0.3.0"

// FormatVersion is the Slippi format version declared by a replay's Game
// Start event. It governs which fields later events are permitted to
// contain: a field introduced in version (a,b,c) is never decoded from a
// stream whose declared version is lower.
type FormatVersion struct {
	Major    uint8 `json:"major"`
	Minor    uint8 `json:"minor"`
	Revision uint8 `json:"revision"`
}

// AtLeast reports whether v is at or above the given version.
func (v FormatVersion) AtLeast(major, minor, revision uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Revision >= revision
}

// String renders the version in dotted form, e.g. "3.9.0".
func (v FormatVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}
