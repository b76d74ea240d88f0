package model

import (
	"encoding/json"
	"time"
)

// Scheduled job statuses. Transitions are monotonic: pending moves to
// sent or failed exactly once and never back. There is no retry status.
const (
	JobStatusPending = "pending"
	JobStatusSent    = "sent"
	JobStatusFailed  = "failed"
)

// ScheduledJob is one durable unit of future delivery work, one row per
// recipient. Variables is the rendering-input snapshot frozen at schedule
// time. When TemplateID is set, subject/body are resolved from the live
// template at fire time; otherwise Subject/Body hold the inline snapshot.
// Jobs are never deleted: failed rows keep ErrorText as an audit trail.
type ScheduledJob struct {
	ID         int             `db:"id" json:"id"`
	ToEmail    string          `db:"to_email" json:"to_email"`
	TemplateID *int            `db:"template_id" json:"template_id,omitempty"`
	Subject    string          `db:"subject" json:"subject"`
	Body       string          `db:"body" json:"body"`
	Variables  json.RawMessage `db:"variables" json:"variables,omitempty"`
	SendAt     time.Time       `db:"send_at" json:"send_at"`
	Status     string          `db:"status" json:"status"`
	ErrorText  *string         `db:"error_text" json:"error_text,omitempty"`
	CreatedBy  int             `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
