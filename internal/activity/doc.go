// Package activity classifies lines of ffmpeg diagnostic output.
//
// ffmpeg writes its banner, device negotiation, progress counters, and device
// failures to stderr as free text. The recorder feeds each line through a
// Classifier to decide whether the line proves audio is flowing (and should
// reset the silence timer), is harmless startup chatter, or reports a device
// or permission failure.
//
// The pattern table is not a stable contract of ffmpeg; keep every pattern in
// Rules so new ffmpeg releases only require changes here.
package activity
