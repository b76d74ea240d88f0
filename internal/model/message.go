package model

// RenderedMessage is a fully personalized message ready for the
// transport. Ephemeral: it is never persisted except as the snapshot
// fields of a ScheduledJob.
type RenderedMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
