package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/crm-mailer/internal/auth"
	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/render"
	"github.com/leadpilot/crm-mailer/internal/repository"
	"github.com/leadpilot/crm-mailer/internal/service"
)

type DispatchController struct {
	Dispatch *service.DispatchService
	Jobs     repository.JobRepositoryInterface
	Leads    repository.LeadRepositoryInterface
}

type dispatchPayload struct {
	To         string                   `json:"to"`
	TemplateID *int                     `json:"template_id"`
	LeadFilter *service.RecipientFilter `json:"lead_filter"`
	Subject    string                   `json:"subject"`
	Body       string                   `json:"body"`
	Variables  *render.Vars             `json:"variables"`
	Preview    bool                     `json:"preview"`
	PreviewCap int                      `json:"preview_cap"`
	SendAt     string                   `json:"send_at"`
}

func (p dispatchPayload) request() service.DispatchRequest {
	return service.DispatchRequest{
		To:         p.To,
		TemplateID: p.TemplateID,
		Filter:     p.LeadFilter,
		Subject:    p.Subject,
		Body:       p.Body,
		Variables:  p.Variables,
	}
}

type resultJSON struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	OK      *bool  `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Send handles POST /send: an immediate batch dispatch, or a
// non-committing preview when preview=true.
func (c *DispatchController) Send(w http.ResponseWriter, r *http.Request) {
	var payload dispatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.NewValidation("invalid body: %v", err))
		return
	}

	if payload.Preview {
		previews, err := c.Dispatch.Preview(payload.request(), payload.PreviewCap)
		if err != nil {
			writeError(w, err)
			return
		}
		results := make([]resultJSON, 0, len(previews))
		for _, p := range previews {
			results = append(results, resultJSON{To: p.To, Subject: p.Subject, Body: p.Body})
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
		return
	}

	sent, err := c.Dispatch.SendNow(payload.request())
	if err != nil {
		writeError(w, err)
		return
	}
	results := make([]resultJSON, 0, len(sent))
	for _, s := range sent {
		ok := s.OK
		results = append(results, resultJSON{To: s.To, Subject: s.Subject, Body: s.Body, OK: &ok, Error: s.Error})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Schedule handles POST /schedule: durable future-dated jobs, one per
// recipient.
func (c *DispatchController) Schedule(w http.ResponseWriter, r *http.Request) {
	var payload dispatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.NewValidation("invalid body: %v", err))
		return
	}

	identity := auth.FromContext(r.Context())
	jobs, err := c.Dispatch.Schedule(payload.request(), payload.SendAt, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": jobs})
}

// Filters handles GET /filters: distinct lead field values for
// filter-builder UIs.
func (c *DispatchController) Filters(w http.ResponseWriter, r *http.Request) {
	statuses, err := c.Leads.DistinctValues("status")
	if err != nil {
		writeError(w, err)
		return
	}
	assignees, err := c.Leads.DistinctValues("assigned_to")
	if err != nil {
		writeError(w, err)
		return
	}
	tags, err := c.Leads.DistinctTags()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses":    statuses,
		"assigned_to": assignees,
		"tags":        tags,
	})
}

// ListJobs handles GET /jobs: the scheduled-job audit trail, newest
// first, optionally filtered by status.
func (c *DispatchController) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := c.Jobs.List(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": jobs})
}

func (c *DispatchController) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("invalid job id"))
		return
	}
	job, err := c.Jobs.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
