package repository

import (
	"database/sql"
	"time"

	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/model"
)

// JobRepositoryInterface is the scheduled-job store. Rows only ever move
// pending -> sent or pending -> failed; nothing deletes them, so failed
// jobs keep their error text as an audit trail.
//
// The read-then-write claim in ListDue/Mark* is not atomic. Two
// processors polling the same store could claim the same row; running a
// single active processor is the deployment invariant.
type JobRepositoryInterface interface {
	Create(job *model.ScheduledJob) error
	GetByID(id int) (*model.ScheduledJob, error)
	List(status string) ([]model.ScheduledJob, error)
	ListDue(now time.Time, limit int) ([]model.ScheduledJob, error)
	MarkSent(id int) error
	MarkFailed(id int, errorText string) error
}

type JobRepository struct {
	DB *sql.DB
}

var _ JobRepositoryInterface = (*JobRepository)(nil)

const jobColumns = `id, to_email, template_id, subject, body, variables, send_at, status, error_text, created_by, created_at`

func (r *JobRepository) Create(job *model.ScheduledJob) error {
	job.CreatedAt = time.Now()
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	query := `
        INSERT INTO scheduled_jobs (to_email, template_id, subject, body, variables, send_at, status, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		job.ToEmail, job.TemplateID, job.Subject, job.Body, nullableJSON(job.Variables),
		job.SendAt, job.Status, job.CreatedBy, job.CreatedAt,
	).Scan(&job.ID)
}

func (r *JobRepository) GetByID(id int) (*model.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE id=$1`
	var job model.ScheduledJob
	err := r.DB.QueryRow(query, id).Scan(
		&job.ID, &job.ToEmail, &job.TemplateID, &job.Subject, &job.Body,
		&job.Variables, &job.SendAt, &job.Status, &job.ErrorText,
		&job.CreatedBy, &job.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("scheduled job", id)
		}
		return nil, err
	}
	return &job, nil
}

// List returns jobs newest first, optionally filtered by status.
func (r *JobRepository) List(status string) ([]model.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// ListDue returns up to limit pending jobs whose send_at has elapsed,
// oldest send_at first.
func (r *JobRepository) ListDue(now time.Time, limit int) ([]model.ScheduledJob, error) {
	query := `
        SELECT ` + jobColumns + `
        FROM scheduled_jobs
        WHERE status=$1 AND send_at <= $2
        ORDER BY send_at ASC, id ASC
        LIMIT $3
    `
	rows, err := r.DB.Query(query, model.JobStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *JobRepository) MarkSent(id int) error {
	return r.markTerminal(id, model.JobStatusSent, nil)
}

func (r *JobRepository) MarkFailed(id int, errorText string) error {
	return r.markTerminal(id, model.JobStatusFailed, &errorText)
}

// markTerminal flips a pending job to its terminal status. The status
// guard in the WHERE clause keeps already-terminal rows untouched.
func (r *JobRepository) markTerminal(id int, status string, errorText *string) error {
	query := `UPDATE scheduled_jobs SET status=$1, error_text=$2 WHERE id=$3 AND status=$4`
	res, err := r.DB.Exec(query, status, errorText, id, model.JobStatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("pending scheduled job", id)
	}
	return nil
}

func scanJobs(rows *sql.Rows) ([]model.ScheduledJob, error) {
	jobs := []model.ScheduledJob{}
	for rows.Next() {
		var job model.ScheduledJob
		if err := rows.Scan(
			&job.ID, &job.ToEmail, &job.TemplateID, &job.Subject, &job.Body,
			&job.Variables, &job.SendAt, &job.Status, &job.ErrorText,
			&job.CreatedBy, &job.CreatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
