package filters

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
)

// Predicate is a conjunction of clauses plus at most one flattened OR group.
// The OR group, when non-empty, is one more conjunct.
type Predicate struct {
	Conditions []Clause
	Or         []Clause
}

// NewPredicate returns a predicate seeded with the given conditions.
func NewPredicate(conditions ...Clause) *Predicate {
	return &Predicate{Conditions: append([]Clause(nil), conditions...)}
}

// Where adds a conjunctive clause.
func (p *Predicate) Where(c Clause) *Predicate {
	p.Conditions = append(p.Conditions, c)
	return p
}

// AnyOf appends clauses to the OR group. Existing alternatives are kept.
func (p *Predicate) AnyOf(cs ...Clause) *Predicate {
	p.Or = append(p.Or, cs...)
	return p
}

// Expression renders the predicate for goqu datasets.
func (p *Predicate) Expression() exp.ExpressionList {
	exprs := make([]exp.Expression, 0, len(p.Conditions)+1)
	for _, c := range p.Conditions {
		exprs = append(exprs, c.Expression())
	}
	if len(p.Or) > 0 {
		alternatives := make([]exp.Expression, 0, len(p.Or))
		for _, c := range p.Or {
			alternatives = append(alternatives, c.Expression())
		}
		exprs = append(exprs, goqu.Or(alternatives...))
	}
	return goqu.And(exprs...)
}

// Matches evaluates the predicate against a single record.
func (p *Predicate) Matches(t *entities.Therapist) bool {
	for _, c := range p.Conditions {
		if !c.Matches(t) {
			return false
		}
	}
	if len(p.Or) == 0 {
		return true
	}
	for _, c := range p.Or {
		if c.Matches(t) {
			return true
		}
	}
	return false
}

// OrColumns lists the columns referenced by the OR group, in order.
func (p *Predicate) OrColumns() []string {
	cols := make([]string, 0, len(p.Or))
	for _, c := range p.Or {
		cols = append(cols, c.Column())
	}
	return cols
}

func (p *Predicate) String() string {
	parts := make([]string, 0, len(p.Conditions)+1)
	for _, c := range p.Conditions {
		parts = append(parts, c.String())
	}
	if len(p.Or) > 0 {
		alts := make([]string, 0, len(p.Or))
		for _, c := range p.Or {
			alts = append(alts, c.String())
		}
		parts = append(parts, "("+strings.Join(alts, " OR ")+")")
	}
	return strings.Join(parts, " AND ")
}
