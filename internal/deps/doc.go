// Package deps locates the ffmpeg binary micrec drives.
//
// CheckEncoder tries an explicit path first, then PATH, then the install
// directories package managers use on each platform, and confirms the
// candidate runs its -version probe. Failures carry captureerr markers so
// callers can tell a missing binary from one that cannot execute.
package deps
