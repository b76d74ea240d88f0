package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "company", "services", "budget_range",
		"message", "status", "assigned_to", "tags", "note", "last_contact_at",
		"created_at", "updated_at",
	}).AddRow(
		2, "Luis Herrera", "luis@nortec.io", "", "Nortec", "{branding}", "10k-20k",
		"", "Contactado", "dturner", "{vip,priority}", "", nil, now, nil,
	)
}

func TestLeadQueryWithoutPredicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC, id DESC LIMIT $1`,
	)).WithArgs(501).WillReturnRows(leadRows(t))

	repo := &LeadRepository{DB: db}
	leads, err := repo.Query(nil, 501)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "luis@nortec.io", leads[0].Email)
	assert.Equal(t, []string{"vip", "priority"}, leads[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadQueryTranslatesPredicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT `+leadColumns+` FROM leads WHERE id = ANY($1) AND status = $2 AND tags @> $3 ORDER BY created_at DESC, id DESC LIMIT $4`,
	)).WithArgs(
		pq.Array([]int64{1, 2, 3}),
		"Contactado",
		pq.Array([]string{"vip", "priority"}),
		10,
	).WillReturnRows(leadRows(t))

	repo := &LeadRepository{DB: db}
	pred := And(ByIDs{1, 2, 3}, ByStatus("Contactado"), ByTags{"vip", "priority"})
	leads, err := repo.Query(pred, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctValuesWhitelistsColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT DISTINCT status FROM leads WHERE status <> '' ORDER BY status`,
	)).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Contactado").AddRow("Nuevo"))

	repo := &LeadRepository{DB: db}

	statuses, err := repo.DistinctValues("status")
	require.NoError(t, err)
	assert.Equal(t, []string{"Contactado", "Nuevo"}, statuses)

	_, err = repo.DistinctValues("email; DROP TABLE leads")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctTagsUnnestsArrays(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT DISTINCT unnest(tags) AS tag FROM leads ORDER BY tag`,
	)).WillReturnRows(sqlmock.NewRows([]string{"tag"}).AddRow("priority").AddRow("vip"))

	repo := &LeadRepository{DB: db}
	tags, err := repo.DistinctTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"priority", "vip"}, tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}
