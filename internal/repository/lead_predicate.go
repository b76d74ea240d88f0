package repository

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/leadpilot/crm-mailer/internal/model"
)

// Predicate narrows the lead candidate set. The variants form a closed
// set combined with logical AND. Each variant both contributes a WHERE
// clause for the postgres store and matches a lead in memory, so fakes
// and the real repository evaluate the same filter semantics.
type Predicate interface {
	appendClause(b *clauseBuilder)
	Match(l *model.Lead) bool
}

// ByStatus matches leads with exactly this status.
type ByStatus string

// ByAssignee matches leads assigned to exactly this team member.
type ByAssignee string

// ByTags matches leads whose tag set is a superset of these tags.
// Narrowing, not any-match: a lead missing one requested tag is out.
type ByTags []string

// ByIDs restricts the candidate set to these lead ids.
type ByIDs []int

type and []Predicate

// And combines predicates; every one must match.
func And(ps ...Predicate) Predicate { return and(ps) }

type clauseBuilder struct {
	clauses []string
	args    []any
}

func (b *clauseBuilder) add(format string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf(format, len(b.args)))
}

func (p ByStatus) appendClause(b *clauseBuilder) {
	b.add("status = $%d", string(p))
}

func (p ByStatus) Match(l *model.Lead) bool { return l.Status == string(p) }

func (p ByAssignee) appendClause(b *clauseBuilder) {
	b.add("assigned_to = $%d", string(p))
}

func (p ByAssignee) Match(l *model.Lead) bool { return l.AssignedTo == string(p) }

func (p ByTags) appendClause(b *clauseBuilder) {
	b.add("tags @> $%d", pq.Array([]string(p)))
}

func (p ByTags) Match(l *model.Lead) bool {
	have := make(map[string]bool, len(l.Tags))
	for _, t := range l.Tags {
		have[t] = true
	}
	for _, want := range p {
		if !have[want] {
			return false
		}
	}
	return true
}

func (p ByIDs) appendClause(b *clauseBuilder) {
	ids := make([]int64, len(p))
	for i, id := range p {
		ids[i] = int64(id)
	}
	b.add("id = ANY($%d)", pq.Array(ids))
}

func (p ByIDs) Match(l *model.Lead) bool {
	for _, id := range p {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (p and) appendClause(b *clauseBuilder) {
	for _, child := range p {
		child.appendClause(b)
	}
}

func (p and) Match(l *model.Lead) bool {
	for _, child := range p {
		if !child.Match(l) {
			return false
		}
	}
	return true
}
