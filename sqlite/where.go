package sqlite

import (
	"fmt"
	"strings"
)

// Where builds a WHERE clause of conditions joined with AND.
// Columns and operators are written in the statement as they are,
// so they should never come from user input. Values are bound.
type Where struct {
	conds []string
	vals  []any
}

func NewWhere() *Where {
	return &Where{}
}

// Add adds a condition that column k equals v.
func (w *Where) Add(k string, v any) {
	w.Cmp(k, "=", v)
}

// Cmp adds a condition comparing column k with v by op, like ">" or "<=".
func (w *Where) Cmp(k, op string, v any) {
	w.conds = append(w.conds, fmt.Sprintf("%s %s ?", k, op))
	w.vals = append(w.vals, v)
}

// Stmt returns the clause with a leading space, or empty string without a condition.
func (w *Where) Stmt() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Vals() []any {
	return w.vals
}
