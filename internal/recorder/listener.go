package recorder

// Listener receives session notifications. Every started session produces
// OnRecordingStart followed by exactly one of OnRecordingStop or OnError.
// Callbacks run on the session goroutine after the recorder returned to Idle,
// so they may call Start again. Wait returns only after the stop or error
// callback has returned, so calling Wait from inside one deadlocks.
type Listener interface {
	OnRecordingStart(info SessionInfo)
	OnRecordingStop(artifact Artifact)
	OnError(err error)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Start func(SessionInfo)
	Stop  func(Artifact)
	Error func(error)
}

func (f ListenerFuncs) OnRecordingStart(info SessionInfo) {
	if f.Start != nil {
		f.Start(info)
	}
}

func (f ListenerFuncs) OnRecordingStop(artifact Artifact) {
	if f.Stop != nil {
		f.Stop(artifact)
	}
}

func (f ListenerFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

type nopListener struct{}

func (nopListener) OnRecordingStart(SessionInfo) {}
func (nopListener) OnRecordingStop(Artifact)     {}
func (nopListener) OnError(error)                {}
