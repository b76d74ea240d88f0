package model

import "time"

// Lead is a CRM contact record. It is read-only from the mailer's point
// of view: it supplies the recipient address and the personalization
// variables, nothing here writes leads.
type Lead struct {
	ID            int        `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	Company       string     `db:"company" json:"company"`
	Services      []string   `db:"services" json:"services"`
	BudgetRange   string     `db:"budget_range" json:"budget_range"`
	Message       string     `db:"message" json:"message"`
	Status        string     `db:"status" json:"status"`
	AssignedTo    string     `db:"assigned_to" json:"assigned_to"`
	Tags          []string   `db:"tags" json:"tags"`
	Note          string     `db:"note" json:"note"`
	LastContactAt *time.Time `db:"last_contact_at" json:"last_contact_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
