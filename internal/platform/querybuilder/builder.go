package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// statement accumulates SQL text and its positional arguments. Every value
// bound through it becomes the next $n placeholder.
type statement struct {
	sql  strings.Builder
	args []any
}

func (s *statement) write(parts ...string) {
	for _, p := range parts {
		s.sql.WriteString(p)
	}
}

func (s *statement) bind(value any) {
	s.args = append(s.args, value)
	s.sql.WriteString("$")
	s.sql.WriteString(strconv.Itoa(len(s.args)))
}

func (s *statement) list(items []string) {
	s.write(strings.Join(items, ", "))
}

func (s *statement) result() (string, []any, error) {
	return s.sql.String(), s.args, nil
}

// Condition is one predicate of a WHERE clause. Conditions are joined with AND.
type Condition interface {
	render(s *statement)
}

type comparison struct {
	column string
	op     string
	value  any
	fold   bool
}

func (c comparison) render(s *statement) {
	if c.fold {
		s.write("lower(", c.column, ") ", c.op, " lower(")
		s.bind(c.value)
		s.write(")")
		return
	}
	s.write(c.column, " ", c.op, " ")
	s.bind(c.value)
}

func Eq(column string, value any) Condition {
	return comparison{column: column, op: "=", value: value}
}

func Gte(column string, value any) Condition {
	return comparison{column: column, op: ">=", value: value}
}

// EqFold compares column to value case-insensitively.
func EqFold(column, value string) Condition {
	return comparison{column: column, op: "=", value: value, fold: true}
}

type nullCheck string

func (c nullCheck) render(s *statement) {
	s.write(string(c), " IS NULL")
}

func IsNull(column string) Condition {
	return nullCheck(column)
}

func renderWhere(s *statement, conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			s.write(" WHERE ")
		} else {
			s.write(" AND ")
		}
		c.render(s)
	}
}

func renderReturning(s *statement, columns []string) {
	if len(columns) == 0 {
		return
	}
	s.write(" RETURNING ")
	s.list(columns)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

// Select starts a query. A column argument may itself be a comma separated
// list, which lets repositories share one column constant.
func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var s statement
	s.write("SELECT ")
	s.list(b.columns)
	s.write(" FROM ", b.table)
	renderWhere(&s, b.where)
	if len(b.orderBy) > 0 {
		s.write(" ORDER BY ")
		s.list(b.orderBy)
	}
	if b.limit > 0 {
		s.write(" LIMIT ")
		s.bind(b.limit)
	}
	return s.result()
}

type assignment struct {
	column string
	value  any
	// raw is rendered verbatim when set; value is then ignored unless
	// increment is true, in which case the value is bound as the step.
	raw       string
	increment bool
}

func (a assignment) render(s *statement) {
	s.write(a.column, " = ")
	switch {
	case a.increment:
		s.write(a.column, " + ")
		s.bind(a.value)
	case a.raw != "":
		s.write(a.raw)
	default:
		s.bind(a.value)
	}
}

type InsertBuilder struct {
	table     string
	columns   []string
	values    []any
	conflict  []string
	onUpdate  []assignment
	returning []string
	err       error
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Value appends one column and its bound value.
func (b *InsertBuilder) Value(column string, value any) *InsertBuilder {
	b.columns = append(b.columns, column)
	b.values = append(b.values, value)
	return b
}

// OnConflict turns the insert into an upsert keyed by the given columns.
func (b *InsertBuilder) OnConflict(columns ...string) *InsertBuilder {
	b.conflict = append(b.conflict, columns...)
	return b
}

// UpdateExcluded copies the proposed row's value into each column on conflict.
func (b *InsertBuilder) UpdateExcluded(columns ...string) *InsertBuilder {
	for _, c := range columns {
		b.onUpdate = append(b.onUpdate, assignment{column: c, raw: "EXCLUDED." + c})
	}
	return b
}

// UpdateRaw assigns a literal SQL expression to column on conflict.
func (b *InsertBuilder) UpdateRaw(column, expr string) *InsertBuilder {
	b.onUpdate = append(b.onUpdate, assignment{column: column, raw: expr})
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = append(b.returning, columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.onUpdate) > 0 && len(b.conflict) == 0 {
		return "", nil, fmt.Errorf("conflict update on %s needs a conflict target", b.table)
	}

	var s statement
	s.write("INSERT INTO ", b.table, " (")
	s.list(b.columns)
	s.write(") VALUES (")
	for i, v := range b.values {
		if i > 0 {
			s.write(", ")
		}
		s.bind(v)
	}
	s.write(")")

	if len(b.conflict) > 0 {
		s.write(" ON CONFLICT (")
		s.list(b.conflict)
		s.write(")")
		if len(b.onUpdate) == 0 {
			s.write(" DO NOTHING")
		} else {
			s.write(" DO UPDATE SET ")
			for i, a := range b.onUpdate {
				if i > 0 {
					s.write(", ")
				}
				a.render(&s)
			}
		}
	}
	renderReturning(&s, b.returning)
	return s.result()
}

type UpdateBuilder struct {
	table     string
	sets      []assignment
	where     []Condition
	returning []string
	err       error
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

// Increment renders column = column + step.
func (b *UpdateBuilder) Increment(column string, step int64) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: step, increment: true})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	b.returning = append(b.returning, columns...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update of %s without conditions is not allowed", b.table)
	}

	var s statement
	s.write("UPDATE ", b.table, " SET ")
	for i, a := range b.sets {
		if i > 0 {
			s.write(", ")
		}
		a.render(&s)
	}
	renderWhere(&s, b.where)
	renderReturning(&s, b.returning)
	return s.result()
}
