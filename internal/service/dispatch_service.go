package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/events"
	"github.com/leadpilot/crm-mailer/internal/mailer"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/render"
	"github.com/leadpilot/crm-mailer/internal/repository"
)

// DefaultPreviewCap bounds preview output size; requests may raise it up
// to the recipient cap.
const DefaultPreviewCap = 10

// DispatchService composes recipient resolution, rendering and the
// delivery transport behind three entry points: Preview, SendNow and
// Schedule.
type DispatchService struct {
	Templates repository.TemplateRepositoryInterface
	Jobs      repository.JobRepositoryInterface
	Resolver  *RecipientResolver
	Sender    mailer.Sender
	Events    events.Publisher
	Log       zerolog.Logger
}

// DispatchRequest is the shared input of the three entry points. Either
// To (explicit recipient) or Filter (lead set) selects recipients;
// either TemplateID or inline Subject/Body supplies the message.
type DispatchRequest struct {
	To         string
	TemplateID *int
	Filter     *RecipientFilter
	Subject    string
	Body       string
	Variables  *render.Vars
}

// SendResult is the per-recipient outcome of a SendNow batch.
type SendResult struct {
	To      string
	Subject string
	Body    string
	OK      bool
	Error   string
}

// recipient pairs an address with the lead backing it, if any.
type recipient struct {
	email string
	lead  *model.Lead
}

func (s *DispatchService) resolveRecipients(req DispatchRequest) ([]recipient, error) {
	if strings.TrimSpace(req.To) != "" {
		return []recipient{{email: strings.TrimSpace(req.To)}}, nil
	}
	if req.Filter == nil {
		return nil, apperrors.NewValidation("recipient required: provide to or lead_filter")
	}
	leads, err := s.Resolver.Resolve(*req.Filter)
	if err != nil {
		return nil, err
	}
	recipients := make([]recipient, 0, len(leads))
	for i := range leads {
		recipients = append(recipients, recipient{email: leads[i].Email, lead: &leads[i]})
	}
	return recipients, nil
}

// messageSource picks the subject/body pair: the referenced template, or
// the inline fields when no template id is given.
func (s *DispatchService) messageSource(req DispatchRequest) (subject, body string, err error) {
	if req.TemplateID != nil {
		t, err := s.Templates.GetByID(*req.TemplateID)
		if err != nil {
			return "", "", err
		}
		return t.Subject, t.Body, nil
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return "", "", apperrors.NewValidation("subject and body are required without template_id")
	}
	return req.Subject, req.Body, nil
}

// Preview renders the batch without touching the transport or the job
// store. The recipient list is capped at previewCap for response size.
func (s *DispatchService) Preview(req DispatchRequest, previewCap int) ([]model.RenderedMessage, error) {
	if previewCap <= 0 || previewCap > DefaultRecipientCap {
		previewCap = DefaultPreviewCap
	}
	subject, body, err := s.messageSource(req)
	if err != nil {
		return nil, err
	}
	recipients, err := s.resolveRecipients(req)
	if err != nil {
		return nil, err
	}
	if len(recipients) > previewCap {
		recipients = recipients[:previewCap]
	}

	previews := make([]model.RenderedMessage, 0, len(recipients))
	for _, rcpt := range recipients {
		vars := MergeVars(rcpt.lead, req.Variables)
		previews = append(previews, RenderMessage(rcpt.email, subject, body, vars))
	}
	return previews, nil
}

// SendNow renders and delivers the batch synchronously. A failed
// delivery to one recipient is reported in its result entry and never
// aborts the rest of the batch.
func (s *DispatchService) SendNow(req DispatchRequest) ([]SendResult, error) {
	subject, body, err := s.messageSource(req)
	if err != nil {
		return nil, err
	}
	recipients, err := s.resolveRecipients(req)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	results := make([]SendResult, 0, len(recipients))
	for _, rcpt := range recipients {
		vars := MergeVars(rcpt.lead, req.Variables)
		msg := RenderMessage(rcpt.email, subject, body, vars)
		result := SendResult{To: msg.To, Subject: msg.Subject, Body: msg.Body, OK: true}

		if sendErr := s.Sender.Send(msg.To, msg.Subject, msg.Body); sendErr != nil {
			terr := apperrors.NewTransport(msg.To, sendErr)
			result.OK = false
			result.Error = terr.Error()
			s.Log.Warn().Str("batch_id", batchID).Str("to", msg.To).Err(sendErr).Msg("delivery failed")
		}
		s.publishOutcome(batchID, nil, result.To, result.OK, result.Error)
		results = append(results, result)
	}
	return results, nil
}

// Schedule expands the recipient set eagerly and persists one pending
// job per recipient with a frozen variable snapshot. Template-linked
// jobs re-resolve the live template at fire time; inline jobs keep the
// raw subject/body as their snapshot.
func (s *DispatchService) Schedule(req DispatchRequest, sendAtRaw string, createdBy int) ([]model.ScheduledJob, error) {
	sendAt, err := time.Parse(time.RFC3339, sendAtRaw)
	if err != nil {
		return nil, apperrors.NewValidation("invalid send_at %q: expected RFC3339 timestamp", sendAtRaw)
	}

	var snapSubject, snapBody string
	if req.TemplateID != nil {
		// Existence check only: the subject/body are re-read at fire time.
		if _, err := s.Templates.GetByID(*req.TemplateID); err != nil {
			return nil, err
		}
	} else {
		snapSubject, snapBody, err = s.messageSource(req)
		if err != nil {
			return nil, err
		}
	}

	recipients, err := s.resolveRecipients(req)
	if err != nil {
		return nil, err
	}

	jobs := make([]model.ScheduledJob, 0, len(recipients))
	for _, rcpt := range recipients {
		vars := MergeVars(rcpt.lead, req.Variables)
		snapshot, err := json.Marshal(vars)
		if err != nil {
			return nil, err
		}
		job := model.ScheduledJob{
			ToEmail:    rcpt.email,
			TemplateID: req.TemplateID,
			Subject:    snapSubject,
			Body:       snapBody,
			Variables:  snapshot,
			SendAt:     sendAt,
			Status:     model.JobStatusPending,
			CreatedBy:  createdBy,
		}
		if err := s.Jobs.Create(&job); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	s.Log.Info().Int("jobs", len(jobs)).Time("send_at", sendAt).Msg("scheduled dispatch")
	return jobs, nil
}

func (s *DispatchService) publishOutcome(batchID string, jobID *int, to string, ok bool, errText string) {
	if s.Events == nil {
		return
	}
	status := model.JobStatusSent
	if !ok {
		status = model.JobStatusFailed
	}
	s.Events.DispatchAttempted(events.DispatchEvent{
		BatchID: batchID,
		JobID:   jobID,
		To:      to,
		Status:  status,
		Error:   errText,
		At:      time.Now(),
	})
}
