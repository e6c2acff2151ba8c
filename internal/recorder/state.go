package recorder

// State is the lifecycle position of the recorder.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
	// StateError is held while a failed session runs the shared cleanup path.
	StateError
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// StopReason records which path ended a session.
type StopReason string

const (
	StopManual      StopReason = "manual"
	StopSilence     StopReason = "silence"
	StopMaxDuration StopReason = "max_duration"
	StopCanceled    StopReason = "canceled"
	StopDeviceError StopReason = "device_error"
	StopProcessExit StopReason = "process_exit"
)
