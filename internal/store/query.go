package store

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// query composes a SELECT out of predicates instead of splicing text
// fragments per filter combination. Each predicate binds its own
// placeholder, so the argument list always matches the statement.
type query struct {
	base   string
	joins  []string
	wheres []string
	order  string
	args   []any
}

func newQuery(base string) *query {
	return &query{base: base}
}

func (q *query) join(clause string) *query {
	q.joins = append(q.joins, clause)
	return q
}

// latestPer joins the latest-row-per-key view for a table: only rows whose
// id is the maximum for their logical key survive. This is the one shared
// implementation of the latest-row-wins read pattern.
func (q *query) latestPer(alias, table, idCol, keyCol string) *query {
	return q.join(fmt.Sprintf(
		"INNER JOIN (SELECT max(%s) id FROM %s GROUP BY %s) latest ON latest.id = %s.%s",
		idCol, table, keyCol, alias, idCol,
	))
}

func (q *query) where(cond string, args ...any) *query {
	for range args {
		q.args = append(q.args, nil)
	}
	n := len(q.args) - len(args)
	for i, a := range args {
		q.args[n+i] = a
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", n+i+1), 1)
	}
	q.wheres = append(q.wheres, cond)
	return q
}

// whereInInt64 adds a set-membership predicate, skipped when the set is empty.
func (q *query) whereInInt64(col string, vals []int64) *query {
	if len(vals) == 0 {
		return q
	}
	return q.where(col+" = ANY(?)", pq.Array(vals))
}

// whereInString is whereInInt64 for text columns.
func (q *query) whereInString(col string, vals []string) *query {
	if len(vals) == 0 {
		return q
	}
	return q.where(col+" = ANY(?)", pq.Array(vals))
}

// whereMin adds an inclusive lower bound, skipped when nil.
func (q *query) whereMin(col string, v *int64) *query {
	if v == nil {
		return q
	}
	return q.where(col+" >= ?", *v)
}

// whereMax adds an inclusive upper bound, skipped when nil.
func (q *query) whereMax(col string, v *int64) *query {
	if v == nil {
		return q
	}
	return q.where(col+" <= ?", *v)
}

// whereEq adds an equality predicate, skipped when v is nil.
func (q *query) whereEq(col string, v any) *query {
	switch t := v.(type) {
	case *bool:
		if t == nil {
			return q
		}
		return q.where(col+" = ?", *t)
	case *int64:
		if t == nil {
			return q
		}
		return q.where(col+" = ?", *t)
	case *string:
		if t == nil {
			return q
		}
		return q.where(col+" = ?", *t)
	default:
		return q.where(col+" = ?", v)
	}
}

func (q *query) orderBy(col string) *query {
	q.order = col
	return q
}

func (q *query) sql() string {
	var sb strings.Builder
	sb.WriteString(q.base)
	for _, j := range q.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	if len(q.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.wheres, " AND "))
	}
	if q.order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.order)
	}
	return sb.String()
}
