package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/events"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/repository"
)

// fakeLeadRepo evaluates predicates in memory. Leads are returned in
// stored order, which tests arrange newest-first like the real store.
type fakeLeadRepo struct {
	leads []model.Lead
}

func (f *fakeLeadRepo) Query(pred repository.Predicate, limit int) ([]model.Lead, error) {
	out := []model.Lead{}
	for i := range f.leads {
		if pred == nil || pred.Match(&f.leads[i]) {
			out = append(out, f.leads[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) DistinctValues(field string) ([]string, error) {
	seen := map[string]bool{}
	values := []string{}
	for _, l := range f.leads {
		v := l.Status
		if field == "assigned_to" {
			v = l.AssignedTo
		}
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (f *fakeLeadRepo) DistinctTags() ([]string, error) {
	seen := map[string]bool{}
	tags := []string{}
	for _, l := range f.leads {
		for _, tag := range l.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

type fakeTemplateRepo struct {
	templates map[int]*model.Template
	nextID    int
}

func newFakeTemplateRepo(templates ...*model.Template) *fakeTemplateRepo {
	f := &fakeTemplateRepo{templates: map[int]*model.Template{}, nextID: 1}
	for _, t := range templates {
		if t.ID == 0 {
			t.ID = f.nextID
		}
		f.templates[t.ID] = t
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
	}
	return f
}

func (f *fakeTemplateRepo) Create(t *model.Template) error {
	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = time.Now()
	f.templates[t.ID] = t
	return nil
}

func (f *fakeTemplateRepo) Update(t *model.Template) error {
	if _, ok := f.templates[t.ID]; !ok {
		return apperrors.NewNotFound("template", t.ID)
	}
	f.templates[t.ID] = t
	return nil
}

func (f *fakeTemplateRepo) Delete(id int) error {
	if _, ok := f.templates[id]; !ok {
		return apperrors.NewNotFound("template", id)
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeTemplateRepo) GetByID(id int) (*model.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, apperrors.NewNotFound("template", id)
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTemplateRepo) List() ([]model.Template, error) {
	out := []model.Template{}
	for _, t := range f.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// fakeJobRepo keeps jobs in memory and counts writes so tests can assert
// that idle ticks touch nothing.
type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   []*model.ScheduledJob
	nextID int
	writes int
}

func newFakeJobRepo() *fakeJobRepo { return &fakeJobRepo{nextID: 1} }

func (f *fakeJobRepo) Create(job *model.ScheduledJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = f.nextID
	f.nextID++
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	job.CreatedAt = time.Now()
	copied := *job
	f.jobs = append(f.jobs, &copied)
	f.writes++
	return nil
}

func (f *fakeJobRepo) GetByID(id int) (*model.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			copied := *j
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFound("scheduled job", id)
}

func (f *fakeJobRepo) List(status string) ([]model.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ScheduledJob{}
	for _, j := range f.jobs {
		if status == "" || j.Status == status {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (f *fakeJobRepo) ListDue(now time.Time, limit int) ([]model.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := []model.ScheduledJob{}
	for _, j := range f.jobs {
		if j.Status == model.JobStatusPending && !j.SendAt.After(now) {
			due = append(due, *j)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if due[i].SendAt.Equal(due[k].SendAt) {
			return due[i].ID < due[k].ID
		}
		return due[i].SendAt.Before(due[k].SendAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeJobRepo) MarkSent(id int) error {
	return f.markTerminal(id, model.JobStatusSent, nil)
}

func (f *fakeJobRepo) MarkFailed(id int, errText string) error {
	return f.markTerminal(id, model.JobStatusFailed, &errText)
}

func (f *fakeJobRepo) markTerminal(id int, status string, errText *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id && j.Status == model.JobStatusPending {
			j.Status = status
			j.ErrorText = errText
			f.writes++
			return nil
		}
	}
	return apperrors.NewNotFound("pending scheduled job", id)
}

func (f *fakeJobRepo) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeSender records deliveries and fails for addresses listed in
// failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []model.RenderedMessage
	failFor map[string]bool
}

func newFakeSender(failFor ...string) *fakeSender {
	f := &fakeSender{failFor: map[string]bool{}}
	for _, addr := range failFor {
		f.failFor[addr] = true
	}
	return f
}

func (f *fakeSender) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to] {
		return fmt.Errorf("smtp: recipient rejected")
	}
	f.sent = append(f.sent, model.RenderedMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeSender) deliveries() []model.RenderedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.RenderedMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeEvents struct {
	mu        sync.Mutex
	published []events.DispatchEvent
}

func (f *fakeEvents) DispatchAttempted(ev events.DispatchEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
}

func (f *fakeEvents) Close() {}
