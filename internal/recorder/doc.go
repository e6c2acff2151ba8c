// Package recorder supervises a single ffmpeg capture session.
//
// A Recorder moves through Idle, Starting, Recording, and Stopping. Start
// resolves the platform commands, locates the encoder, picks a device, and
// spawns the process; a single session goroutine then consumes the encoder's
// diagnostic lines, the silence and max-duration guards, stop requests, and
// process exit. Every path ends in the same cleanup, which reads and removes
// the temp capture file and reports exactly one listener outcome.
package recorder
