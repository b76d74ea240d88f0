package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/leadpilot/crm-mailer/internal/model"
)

// LeadRepositoryInterface is the read-only view of the CRM lead store
// consumed by the recipient resolver. Lead CRUD lives in another service.
type LeadRepositoryInterface interface {
	Query(pred Predicate, limit int) ([]model.Lead, error)
	DistinctValues(field string) ([]string, error)
	DistinctTags() ([]string, error)
}

type LeadRepository struct {
	DB *sql.DB
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)

const leadColumns = `id, name, email, phone, company, services, budget_range, message, status, assigned_to, tags, note, last_contact_at, created_at, updated_at`

// Query returns leads matching pred, most recently created first. A nil
// predicate matches all leads. limit <= 0 means no limit.
func (r *LeadRepository) Query(pred Predicate, limit int) ([]model.Lead, error) {
	b := &clauseBuilder{}
	if pred != nil {
		pred.appendClause(b)
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(b.clauses) > 0 {
		query += " WHERE " + strings.Join(b.clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		b.args = append(b.args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}

	rows, err := r.DB.Query(query, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company,
			pq.Array(&l.Services), &l.BudgetRange, &l.Message,
			&l.Status, &l.AssignedTo, pq.Array(&l.Tags), &l.Note,
			&l.LastContactAt, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// DistinctValues aggregates the distinct non-empty values of a scalar
// lead column, for filter-builder UIs. Only whitelisted columns are
// queryable.
func (r *LeadRepository) DistinctValues(field string) ([]string, error) {
	switch field {
	case "status", "assigned_to":
	default:
		return nil, fmt.Errorf("distinct values not supported for field %q", field)
	}

	query := fmt.Sprintf(`SELECT DISTINCT %s FROM leads WHERE %s <> '' ORDER BY %s`, field, field, field)
	return r.collectStrings(query)
}

// DistinctTags flattens the tags arrays into one distinct sorted list.
func (r *LeadRepository) DistinctTags() ([]string, error) {
	query := `SELECT DISTINCT unnest(tags) AS tag FROM leads ORDER BY tag`
	return r.collectStrings(query)
}

func (r *LeadRepository) collectStrings(query string) ([]string, error) {
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
