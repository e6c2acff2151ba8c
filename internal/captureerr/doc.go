// Package captureerr defines the failure taxonomy shared by the capture
// packages.
//
// Every failure surfaced to a host is tagged with exactly one sentinel marker
// so callers can branch with errors.Is, while the wrapped message stays
// readable enough to tell "no microphone", "binary missing", "permission
// denied", and "nothing captured" apart without interpreting codes.
package captureerr
