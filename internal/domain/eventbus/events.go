package eventbus

// Event topics.
const (
	// Reconnect policy events.
	EventReconnectAttempt = "reconnect:attempt"
	EventReconnectSuccess = "reconnect:success"
	EventReconnectFailure = "reconnect:failure"
	EventReconnectAbort   = "reconnect:abort"

	// Synthesis events.
	EventSynthesisStarted   = "synthesis:started"
	EventSynthesisCompleted = "synthesis:completed"
	EventSynthesisError     = "synthesis:error"
)

// ReconnectEventData describes one reconnect policy transition.
type ReconnectEventData struct {
	Attempt     int    `json:"attempt"`
	DelayMs     int64  `json:"delay_ms"`
	ElapsedMs   int64  `json:"elapsed_ms"`
	Error       string `json:"error,omitempty"`
	AbortReason string `json:"abort_reason,omitempty"`
}

// SynthesisEventData describes the progress of one synthesis job.
type SynthesisEventData struct {
	Voice      string `json:"voice"`
	Chunks     int    `json:"chunks"`
	AudioBytes int    `json:"audio_bytes,omitempty"`
	Error      string `json:"error,omitempty"`
}
