// Package version holds build version information.
package version

import "fmt"

// Version is the current ShotGrab release.
const Version = "0.3.1"

// ShowVersion prints the version banner.
func ShowVersion() {
	fmt.Printf("shotgrab v%s\n", Version)
}
