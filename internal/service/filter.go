package service

import (
	"strings"

	"github.com/quillblog/internal/db"
	"gorm.io/gorm"
)

const dialectPostgres = "postgres"

// PredicateKind enumerates the comparisons a Filter understands.
type PredicateKind int

const (
	// PredicateContainsFold is a case-insensitive substring match.
	PredicateContainsFold PredicateKind = iota
	// PredicateEquals is an exact match.
	PredicateEquals
	// PredicateIn restricts the column to a fixed set of values.
	PredicateIn
)

// Predicate is one typed condition on one column.
type Predicate struct {
	Kind   PredicateKind
	Column string
	Value  any
}

// Filter accumulates predicates that are combined with AND.
// Filters are values; every builder method returns a new Filter.
type Filter struct {
	predicates []Predicate
}

// ContainsFold adds a case-insensitive substring match. Blank terms are ignored.
func (f Filter) ContainsFold(column, term string) Filter {
	term = strings.TrimSpace(term)
	if term == "" {
		return f
	}
	return f.with(Predicate{Kind: PredicateContainsFold, Column: column, Value: term})
}

// Equals adds an exact match.
func (f Filter) Equals(column string, value any) Filter {
	return f.with(Predicate{Kind: PredicateEquals, Column: column, Value: value})
}

// In restricts column to values. An empty set matches nothing.
func (f Filter) In(column string, values []string) Filter {
	return f.with(Predicate{Kind: PredicateIn, Column: column, Value: values})
}

// Predicates returns a copy of the accumulated predicates.
func (f Filter) Predicates() []Predicate {
	return append([]Predicate(nil), f.predicates...)
}

// Build folds the predicates into a single WHERE clause and its arguments for
// the named gorm dialect. An empty filter builds to an empty clause.
// Case-insensitive matches use ILIKE on PostgreSQL and the registered Unicode
// fold function on both sides of LIKE on SQLite.
func (f Filter) Build(dialect string) (string, []any) {
	if len(f.predicates) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(f.predicates))
	args := make([]any, 0, len(f.predicates))
	for _, p := range f.predicates {
		switch p.Kind {
		case PredicateContainsFold:
			clauses = append(clauses, containsFoldClause(dialect, p.Column))
			args = append(args, "%"+escapeLike(p.Value.(string))+"%")
		case PredicateEquals:
			clauses = append(clauses, p.Column+" = ?")
			args = append(args, p.Value)
		case PredicateIn:
			values, _ := p.Value.([]string)
			if len(values) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			clauses = append(clauses, p.Column+" IN ?")
			args = append(args, values)
		}
	}
	return strings.Join(clauses, " AND "), args
}

// Scope applies the filter to a gorm query.
func (f Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		clause, args := f.Build(tx.Dialector.Name())
		if clause == "" {
			return tx
		}
		return tx.Where(clause, args...)
	}
}

func (f Filter) with(p Predicate) Filter {
	next := make([]Predicate, len(f.predicates), len(f.predicates)+1)
	copy(next, f.predicates)
	return Filter{predicates: append(next, p)}
}

func containsFoldClause(dialect, column string) string {
	if dialect == dialectPostgres {
		return column + " ILIKE ? ESCAPE '\\'"
	}
	return db.FoldFunction + "(" + column + ") LIKE " + db.FoldFunction + "(?) ESCAPE '\\'"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
