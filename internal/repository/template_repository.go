package repository

import (
	"database/sql"
	"time"

	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.Template) error
	Update(t *model.Template) error
	Delete(id int) error
	GetByID(id int) (*model.Template, error)
	List() ([]model.Template, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)

const templateColumns = `id, name, subject, body, variables, schema, created_by, created_at, updated_at`

func (r *TemplateRepository) Create(t *model.Template) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO templates (name, subject, body, variables, schema, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		t.Name, t.Subject, t.Body, nullableJSON(t.Variables), nullableJSON(t.Schema),
		t.CreatedBy, t.CreatedAt,
	).Scan(&t.ID)
}

func (r *TemplateRepository) Update(t *model.Template) error {
	query := `
        UPDATE templates
        SET name=$1, subject=$2, body=$3, variables=$4, schema=$5, updated_at=NOW()
        WHERE id=$6
    `
	res, err := r.DB.Exec(query,
		t.Name, t.Subject, t.Body, nullableJSON(t.Variables), nullableJSON(t.Schema), t.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("template", t.ID)
	}
	return nil
}

func (r *TemplateRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("template", id)
	}
	return nil
}

func (r *TemplateRepository) GetByID(id int) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id=$1`
	var t model.Template
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body, &t.Variables, &t.Schema,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFound("template", id)
		}
		return nil, err
	}
	return &t, nil
}

// List returns all templates, newest first.
func (r *TemplateRepository) List() ([]model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Subject, &t.Body, &t.Variables, &t.Schema,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// nullableJSON maps an absent blob to SQL NULL instead of the empty string.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
