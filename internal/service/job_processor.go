package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leadpilot/crm-mailer/internal/events"
	"github.com/leadpilot/crm-mailer/internal/mailer"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/render"
	"github.com/leadpilot/crm-mailer/internal/repository"
)

// JobProcessor drives pending scheduled jobs to a terminal state. One
// instance per deployment: the claim is read-then-write, not atomic.
// It owns its timer explicitly via Start/Stop instead of a package-level
// handle.
type JobProcessor struct {
	Jobs      repository.JobRepositoryInterface
	Templates repository.TemplateRepositoryInterface
	Sender    mailer.Sender
	Events    events.Publisher
	Interval  time.Duration
	BatchSize int
	Log       zerolog.Logger

	stop chan struct{}
	done chan struct{}
}

const defaultBatchSize = 25

// Start launches the polling loop. Call Stop to shut it down; Start may
// not be called twice without an intervening Stop.
func (p *JobProcessor) Start() {
	if p.Interval <= 0 {
		p.Interval = 30 * time.Second
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case now := <-ticker.C:
				p.Tick(now)
			}
		}
	}()
	p.Log.Info().Dur("interval", p.Interval).Int("batch_size", p.batchSize()).Msg("job processor started")
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (p *JobProcessor) Stop() {
	close(p.stop)
	<-p.done
	p.Log.Info().Msg("job processor stopped")
}

// Tick claims up to BatchSize due pending jobs, oldest send_at first,
// and processes them sequentially. A tick with nothing due performs no
// store writes. Sequential processing bounds transport usage to one
// connection; BatchSize is the backpressure control.
func (p *JobProcessor) Tick(now time.Time) {
	due, err := p.Jobs.ListDue(now, p.batchSize())
	if err != nil {
		p.Log.Error().Err(err).Msg("failed to list due jobs")
		return
	}
	if len(due) == 0 {
		return
	}
	batchID := uuid.NewString()
	p.Log.Debug().Str("batch_id", batchID).Int("due", len(due)).Msg("processing due jobs")
	for i := range due {
		p.processJob(batchID, &due[i])
	}
}

// processJob resolves the job's message and attempts delivery, then
// persists exactly one terminal status. Template-linked jobs re-read the
// live template, picking up edits made after scheduling; inline jobs use
// their frozen subject/body snapshot. Both use the frozen variable
// snapshot. These stay two distinct paths on purpose.
func (p *JobProcessor) processJob(batchID string, job *model.ScheduledJob) {
	subject, body := job.Subject, job.Body
	if job.TemplateID != nil {
		t, err := p.Templates.GetByID(*job.TemplateID)
		if err != nil {
			p.fail(batchID, job, "template lookup failed: "+err.Error())
			return
		}
		subject, body = t.Subject, t.Body
	}

	vars := render.NewVars()
	if len(job.Variables) > 0 {
		if err := vars.UnmarshalJSON(job.Variables); err != nil {
			p.fail(batchID, job, "corrupt variables snapshot: "+err.Error())
			return
		}
	}

	msg := RenderMessage(job.ToEmail, subject, body, vars)
	if err := p.Sender.Send(msg.To, msg.Subject, msg.Body); err != nil {
		p.fail(batchID, job, err.Error())
		return
	}

	if err := p.Jobs.MarkSent(job.ID); err != nil {
		p.Log.Error().Err(err).Int("job_id", job.ID).Msg("failed to mark job sent")
		return
	}
	p.publishOutcome(batchID, job, true, "")
	p.Log.Info().Int("job_id", job.ID).Str("to", job.ToEmail).Msg("scheduled job sent")
}

// fail records the terminal failed status. No retry: the error text is
// kept for operator follow-up.
func (p *JobProcessor) fail(batchID string, job *model.ScheduledJob, errText string) {
	if err := p.Jobs.MarkFailed(job.ID, errText); err != nil {
		p.Log.Error().Err(err).Int("job_id", job.ID).Msg("failed to mark job failed")
		return
	}
	p.publishOutcome(batchID, job, false, errText)
	p.Log.Warn().Int("job_id", job.ID).Str("to", job.ToEmail).Str("error", errText).Msg("scheduled job failed")
}

func (p *JobProcessor) publishOutcome(batchID string, job *model.ScheduledJob, ok bool, errText string) {
	if p.Events == nil {
		return
	}
	status := model.JobStatusSent
	if !ok {
		status = model.JobStatusFailed
	}
	id := job.ID
	p.Events.DispatchAttempted(events.DispatchEvent{
		BatchID: batchID,
		JobID:   &id,
		To:      job.ToEmail,
		Status:  status,
		Error:   errText,
		At:      time.Now(),
	})
}

func (p *JobProcessor) batchSize() int {
	if p.BatchSize <= 0 {
		return defaultBatchSize
	}
	return p.BatchSize
}
