package captureerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBinaryNotFound            = errors.New("encoder binary not found")
	ErrBinaryNotExecutable       = errors.New("encoder binary not executable")
	ErrDeviceNotFound            = errors.New("no microphone found")
	ErrPermissionDenied          = errors.New("microphone permission denied")
	ErrProcessSpawnFailure       = errors.New("encoder failed to start")
	ErrProcessExitedUnexpectedly = errors.New("encoder exited unexpectedly")
	ErrNoAudioCaptured           = errors.New("nothing was captured")
	ErrAlreadyRecording          = errors.New("already recording")
	ErrUnsupportedPlatform       = errors.New("unsupported platform")
	ErrTempFileError             = errors.New("temporary file error")
)

var markers = []error{
	ErrBinaryNotFound,
	ErrBinaryNotExecutable,
	ErrDeviceNotFound,
	ErrPermissionDenied,
	ErrProcessSpawnFailure,
	ErrProcessExitedUnexpectedly,
	ErrNoAudioCaptured,
	ErrAlreadyRecording,
	ErrUnsupportedPlatform,
	ErrTempFileError,
}

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrProcessSpawnFailure
	}
	if err != nil {
		if detail == "" {
			return fmt.Errorf("%w: %w", marker, err)
		}
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	if detail == "" {
		return marker
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the sentinel marker carried by err, or nil when err is not one
// of the capture failures.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// KindName returns a stable snake_case identifier for the marker carried by err.
func KindName(err error) string {
	switch Kind(err) {
	case ErrBinaryNotFound:
		return "binary_not_found"
	case ErrBinaryNotExecutable:
		return "binary_not_executable"
	case ErrDeviceNotFound:
		return "device_not_found"
	case ErrPermissionDenied:
		return "permission_denied"
	case ErrProcessSpawnFailure:
		return "process_spawn_failure"
	case ErrProcessExitedUnexpectedly:
		return "process_exited_unexpectedly"
	case ErrNoAudioCaptured:
		return "no_audio_captured"
	case ErrAlreadyRecording:
		return "already_recording"
	case ErrUnsupportedPlatform:
		return "unsupported_platform"
	case ErrTempFileError:
		return "temp_file_error"
	case nil:
		if err == nil {
			return ""
		}
		return "unknown"
	default:
		return "unknown"
	}
}

// Hint returns a next step the user can take to resolve err.
func Hint(err error) string {
	switch Kind(err) {
	case ErrBinaryNotFound:
		return "install ffmpeg (brew install ffmpeg, apt install ffmpeg, winget install ffmpeg) or set encoder.path"
	case ErrBinaryNotExecutable:
		return "check that the configured ffmpeg binary has execute permission and runs with -version"
	case ErrDeviceNotFound:
		return "connect a microphone or pick another device with 'micrec devices'"
	case ErrPermissionDenied:
		return "grant microphone access to your terminal in the system privacy settings"
	case ErrProcessSpawnFailure:
		return "run 'micrec doctor' to verify the encoder installation"
	case ErrProcessExitedUnexpectedly:
		return "inspect the encoder output above; the device may have been disconnected"
	case ErrNoAudioCaptured:
		return "speak closer to the microphone or check the input level"
	case ErrAlreadyRecording:
		return "stop the current recording first"
	case ErrUnsupportedPlatform:
		return "micrec supports macOS, Windows, and Linux"
	case ErrTempFileError:
		return "check free space and permissions of the temporary directory"
	default:
		return "check logs for details"
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	return strings.Join(parts, ": ")
}
