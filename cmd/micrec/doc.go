// Command micrec records audio from a microphone through ffmpeg.
//
// Subcommands:
//   - record: capture until Ctrl-C, silence, or the configured maximum length
//   - devices: list input devices, optionally watching for hotplug on Linux
//   - doctor: report encoder, platform, device, and directory readiness
//   - history: show or prune finished sessions
//   - config: create or validate the configuration file
package main
