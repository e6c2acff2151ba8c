// Package platform maps an operating system identifier to the ffmpeg dialect
// used to capture from and enumerate microphones on that system.
//
// The mapping is a static table: every other package consumes a CommandSet
// instead of branching on runtime.GOOS itself.
package platform
