package service

import (
	"strings"
	"time"

	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/render"
)

// LeadVars flattens a lead into the variable bag under its JSON wire
// names. Slices join with ", "; timestamps render RFC3339; a nil
// last_contact_at becomes null (empty string on substitution).
func LeadVars(l *model.Lead) *render.Vars {
	vars := render.NewVars()
	vars.Set("id", render.Number(float64(l.ID)))
	vars.Set("name", render.String(l.Name))
	vars.Set("email", render.String(l.Email))
	vars.Set("phone", render.String(l.Phone))
	vars.Set("company", render.String(l.Company))
	vars.Set("services", render.String(strings.Join(l.Services, ", ")))
	vars.Set("budget_range", render.String(l.BudgetRange))
	vars.Set("message", render.String(l.Message))
	vars.Set("status", render.String(l.Status))
	vars.Set("assigned_to", render.String(l.AssignedTo))
	vars.Set("tags", render.String(strings.Join(l.Tags, ", ")))
	vars.Set("note", render.String(l.Note))
	if l.LastContactAt != nil {
		vars.Set("last_contact_at", render.String(l.LastContactAt.Format(time.RFC3339)))
	} else {
		vars.Set("last_contact_at", render.Null())
	}
	return vars
}

// MergeVars layers explicit overrides onto the lead bag in their own
// insertion order; overrides win on key collision. lead may be nil
// (explicit-to dispatch with no CRM record behind it).
func MergeVars(lead *model.Lead, overrides *render.Vars) *render.Vars {
	var vars *render.Vars
	if lead != nil {
		vars = LeadVars(lead)
	} else {
		vars = render.NewVars()
	}
	if overrides != nil {
		for _, key := range overrides.Keys() {
			val, _ := overrides.Get(key)
			vars.Set(key, val)
		}
	}
	return vars
}

// RenderMessage resolves subject and body independently against the
// bag. Pure apart from its inputs; tokens without a matching key stay
// literal.
func RenderMessage(to, subject, body string, vars *render.Vars) model.RenderedMessage {
	return model.RenderedMessage{
		To:      to,
		Subject: render.Resolve(subject, vars),
		Body:    render.Resolve(body, vars),
	}
}
