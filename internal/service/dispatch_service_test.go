package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/logger"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/render"
)

func testLeads() []model.Lead {
	return []model.Lead{
		{ID: 3, Name: "Carla Ruiz", Email: "carla@veltex.co", Company: "Veltex", Status: "Nuevo", AssignedTo: "msalas", Tags: []string{"newsletter"}},
		{ID: 2, Name: "Luis Herrera", Email: "luis@nortec.io", Company: "Nortec", Status: "Contactado", AssignedTo: "dturner", Tags: []string{"vip", "priority"}},
		{ID: 1, Name: "Ana Morales", Email: "ana@solaria.mx", Company: "Solaria", Status: "Nuevo", AssignedTo: "dturner", Tags: []string{"vip"}},
	}
}

type dispatchFixture struct {
	svc       *DispatchService
	leads     *fakeLeadRepo
	templates *fakeTemplateRepo
	jobs      *fakeJobRepo
	sender    *fakeSender
	events    *fakeEvents
}

func newDispatchFixture(sender *fakeSender, templates ...*model.Template) *dispatchFixture {
	f := &dispatchFixture{
		leads:     &fakeLeadRepo{leads: testLeads()},
		templates: newFakeTemplateRepo(templates...),
		jobs:      newFakeJobRepo(),
		sender:    sender,
		events:    &fakeEvents{},
	}
	f.svc = &DispatchService{
		Templates: f.templates,
		Jobs:      f.jobs,
		Resolver:  &RecipientResolver{Leads: f.leads, Cap: DefaultRecipientCap},
		Sender:    f.sender,
		Events:    f.events,
		Log:       logger.Nop(),
	}
	return f
}

func inlineRequest(filter *RecipientFilter) DispatchRequest {
	return DispatchRequest{
		Filter:  filter,
		Subject: "Hola {{name}}",
		Body:    "Saludos desde {{company}}",
	}
}

func TestSendNowIsolatesPerRecipientFailure(t *testing.T) {
	f := newDispatchFixture(newFakeSender("luis@nortec.io"))

	results, err := f.svc.SendNow(inlineRequest(&RecipientFilter{}))
	require.NoError(t, err, "one bad recipient must not fail the batch")
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, "luis@nortec.io", results[1].To)
	assert.True(t, results[2].OK)

	assert.Len(t, f.sender.deliveries(), 2)
	assert.Len(t, f.events.published, 3)
}

func TestSendNowRendersPerLeadWithOverridesWinning(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	overrides := render.NewVars()
	overrides.Set("company", render.String("Acme"))
	req := inlineRequest(&RecipientFilter{IDs: []int{1}})
	req.Variables = overrides

	results, err := f.svc.SendNow(req)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hola Ana Morales", results[0].Subject)
	assert.Equal(t, "Saludos desde Acme", results[0].Body, "override must win over the lead field")
}

func TestSendNowLeavesUnknownPlaceholdersVisible(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	req := DispatchRequest{
		Filter:  &RecipientFilter{IDs: []int{1}},
		Subject: "Hola {{name}}",
		Body:    "Tu código {{promo_code}}",
	}
	results, err := f.svc.SendNow(req)
	require.NoError(t, err)
	assert.Equal(t, "Tu código {{promo_code}}", results[0].Body)
}

func TestSendNowExplicitRecipient(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	overrides := render.NewVars()
	overrides.Set("name", render.String("Cliente"))
	req := DispatchRequest{To: "cliente@example.com", Subject: "Hola {{name}}", Body: "Cuerpo", Variables: overrides}

	results, err := f.svc.SendNow(req)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cliente@example.com", results[0].To)
	assert.Equal(t, "Hola Cliente", results[0].Subject)
}

func TestSendNowWithoutRecipientIsValidationError(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	_, err := f.svc.SendNow(DispatchRequest{Subject: "s", Body: "b"})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, f.sender.deliveries())
}

func TestSendNowInlineRequiresSubjectAndBody(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	_, err := f.svc.SendNow(DispatchRequest{Filter: &RecipientFilter{}, Subject: "solo asunto"})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, f.sender.deliveries(), "fail fast: nothing may be sent")
}

func TestSendNowUnknownTemplateAbortsBeforeDelivery(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	missing := 42
	_, err := f.svc.SendNow(DispatchRequest{Filter: &RecipientFilter{}, TemplateID: &missing})
	var nerr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nerr)
	assert.Empty(t, f.sender.deliveries())
}

func TestSendNowRecipientCapAbortsWholeBatch(t *testing.T) {
	f := newDispatchFixture(newFakeSender())
	f.svc.Resolver.Cap = 2

	_, err := f.svc.SendNow(inlineRequest(&RecipientFilter{}))
	var perr *apperrors.PayloadTooLargeError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Cap)
	assert.Empty(t, f.sender.deliveries(), "nothing partially sent")
}

func TestFilterSemanticsThroughDispatch(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	// tags narrow by superset: only Luis holds both vip and priority
	results, err := f.svc.SendNow(inlineRequest(&RecipientFilter{Tags: []string{"vip", "priority"}}))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "luis@nortec.io", results[0].To)

	// ids AND status returns only the subset with that status
	results, err = f.svc.SendNow(inlineRequest(&RecipientFilter{IDs: []int{1, 2, 3}, Status: "Nuevo"}))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "carla@veltex.co", results[0].To)
	assert.Equal(t, "ana@solaria.mx", results[1].To)
}

func TestPreviewNeverTouchesTransportOrJobStore(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	previews, err := f.svc.Preview(inlineRequest(&RecipientFilter{}), 0)
	require.NoError(t, err)
	require.Len(t, previews, 3)
	assert.Equal(t, "Hola Carla Ruiz", previews[0].Subject)

	assert.Empty(t, f.sender.deliveries())
	assert.Zero(t, f.jobs.writeCount())
	assert.Empty(t, f.events.published)
}

func TestPreviewRespectsCap(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	previews, err := f.svc.Preview(inlineRequest(&RecipientFilter{}), 2)
	require.NoError(t, err)
	assert.Len(t, previews, 2)
}

func TestScheduleFreezesInlineSnapshot(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	sendAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	jobs, err := f.svc.Schedule(inlineRequest(&RecipientFilter{IDs: []int{1}}), sendAt, 7)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "ana@solaria.mx", job.ToEmail)
	assert.Nil(t, job.TemplateID)
	assert.Equal(t, "Hola {{name}}", job.Subject, "inline snapshot stays unrendered")
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, 7, job.CreatedBy)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(job.Variables, &snapshot))
	assert.Equal(t, "Ana Morales", snapshot["name"])
	assert.Equal(t, "Solaria", snapshot["company"])

	// nothing delivered at schedule time
	assert.Empty(t, f.sender.deliveries())
}

func TestScheduleTemplateJobKeepsOnlyReference(t *testing.T) {
	tmpl := &model.Template{ID: 5, Name: "Bienvenida", Subject: "Hola {{name}}", Body: "Cuerpo"}
	f := newDispatchFixture(newFakeSender(), tmpl)

	sendAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	id := 5
	jobs, err := f.svc.Schedule(DispatchRequest{Filter: &RecipientFilter{IDs: []int{2}}, TemplateID: &id}, sendAt, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NotNil(t, jobs[0].TemplateID)
	assert.Equal(t, 5, *jobs[0].TemplateID)
	assert.Empty(t, jobs[0].Subject, "template jobs re-resolve subject at fire time")
	assert.Empty(t, jobs[0].Body)
}

func TestScheduleExpandsRecipientsEagerly(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	sendAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	jobs, err := f.svc.Schedule(inlineRequest(&RecipientFilter{Status: "Nuevo"}), sendAt, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 2, "one job per matched lead, resolved at schedule time")
}

func TestSchedulePastSendAtIsAccepted(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	jobs, err := f.svc.Schedule(inlineRequest(&RecipientFilter{IDs: []int{1}}), past, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStatusPending, jobs[0].Status)
}

func TestScheduleUnparsableSendAtCreatesNothing(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	_, err := f.svc.Schedule(inlineRequest(&RecipientFilter{}), "mañana a las tres", 1)
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, f.jobs.writeCount())
}

func TestScheduleUnknownTemplateCreatesNothing(t *testing.T) {
	f := newDispatchFixture(newFakeSender())

	missing := 42
	sendAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	_, err := f.svc.Schedule(DispatchRequest{Filter: &RecipientFilter{}, TemplateID: &missing}, sendAt, 1)
	var nerr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nerr)
	assert.Zero(t, f.jobs.writeCount())
}
