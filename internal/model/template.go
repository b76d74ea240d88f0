package model

import (
	"encoding/json"
	"time"
)

// Template is a reusable subject/body pair. Subject and body may contain
// {{placeholder}} tokens; Variables and Schema are opaque JSON blobs kept
// for filter-builder UIs and never interpreted by the mailer.
type Template struct {
	ID        int             `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Subject   string          `db:"subject" json:"subject"`
	Body      string          `db:"body" json:"body"`
	Variables json.RawMessage `db:"variables" json:"variables,omitempty"`
	Schema    json.RawMessage `db:"schema" json:"schema,omitempty"`
	CreatedBy int             `db:"created_by" json:"created_by"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}
