package service

import (
	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/repository"
)

// DefaultRecipientCap bounds how many leads a single dispatch may
// target. Exceeding it is an error, never a silent truncation.
const DefaultRecipientCap = 500

// RecipientFilter is the declarative recipient spec accepted on the
// wire. An empty filter matches every lead, bounded by the cap.
type RecipientFilter struct {
	Status     string   `json:"status,omitempty"`
	AssignedTo string   `json:"assigned_to,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IDs        []int    `json:"ids,omitempty"`
}

// Predicate translates the filter into the repository's predicate
// vocabulary. IDs restrict the candidate set first; status and assignee
// are exact matches; tags narrow by superset. Returns nil for the empty
// filter.
func (f RecipientFilter) Predicate() repository.Predicate {
	preds := []repository.Predicate{}
	if len(f.IDs) > 0 {
		preds = append(preds, repository.ByIDs(f.IDs))
	}
	if f.Status != "" {
		preds = append(preds, repository.ByStatus(f.Status))
	}
	if f.AssignedTo != "" {
		preds = append(preds, repository.ByAssignee(f.AssignedTo))
	}
	if len(f.Tags) > 0 {
		preds = append(preds, repository.ByTags(f.Tags))
	}
	if len(preds) == 0 {
		return nil
	}
	return repository.And(preds...)
}

// RecipientResolver expands a filter into concrete leads, most recently
// created first, enforcing the hard cap before the list leaves here.
type RecipientResolver struct {
	Leads repository.LeadRepositoryInterface
	Cap   int
}

func (r *RecipientResolver) Resolve(filter RecipientFilter) ([]model.Lead, error) {
	limit := r.Cap
	if limit <= 0 {
		limit = DefaultRecipientCap
	}
	// Fetch one past the cap so overflow is detectable without a count
	// round trip.
	leads, err := r.Leads.Query(filter.Predicate(), limit+1)
	if err != nil {
		return nil, err
	}
	if len(leads) > limit {
		return nil, apperrors.NewPayloadTooLarge(len(leads), limit)
	}
	return leads, nil
}
