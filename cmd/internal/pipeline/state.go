package pipeline

// State tracks where a message is in the translation flow. Transitions are
// strictly forward; a fatal error leaves the message in StateFailed.
type State string

const (
	StateReceived    State = "received"
	StateConverted   State = "converted"
	StateTranscribed State = "transcribed"
	StateSingle      State = "single_speaker"
	StateMulti       State = "multi_speaker"
	StatePerLanguage State = "per_language"
	StateAssembled   State = "assembled"
	StateDelivered   State = "delivered"
	StateFailed      State = "failed"
)
