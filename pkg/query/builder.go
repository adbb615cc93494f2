// Package query builds paginated, sorted and searchable list queries with a total count.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrPaginationRequired is returned by Execute when no pagination was supplied.
var ErrPaginationRequired = errors.New("query: pagination must be set before execution")

// Observer receives query timings.
type Observer interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// Table describes the relation a Builder selects from.
type Table struct {
	Name    string
	Columns []string
	// CreatedAt names the creation timestamp column, empty when the table has none.
	CreatedAt string
}

func (t Table) hasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// Result is one page of rows plus the total number of matching rows.
type Result[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// Builder composes a list query. Conditions use ? placeholders and are rebound
// for the driver at execution time.
type Builder[T any] struct {
	db       sqlx.ExtContext
	table    Table
	observer Observer

	pagination        *Pagination
	sorting           *Sort
	sortColumns       map[string]string
	defaultSortColumn string

	conditions []string
	args       []interface{}
}

// New starts a builder over table.
func New[T any](db sqlx.ExtContext, table Table) *Builder[T] {
	return &Builder[T]{db: db, table: table, sortColumns: map[string]string{}}
}

// WithObserver attaches a timing observer.
func (b *Builder[T]) WithObserver(o Observer) *Builder[T] {
	b.observer = o
	return b
}

// Paginate sets the offset window.
func (b *Builder[T]) Paginate(p Pagination) *Builder[T] {
	b.pagination = &p
	return b
}

// Sort sets the requested ordering. columns maps public sort names to SQL columns;
// defaultColumn is used when the requested field is not in columns.
func (b *Builder[T]) Sort(s Sort, columns map[string]string, defaultColumn string) *Builder[T] {
	b.sorting = &s
	b.defaultSortColumn = defaultColumn
	b.sortColumns = make(map[string]string, len(columns))
	for name, column := range columns {
		b.sortColumns[name] = column
	}
	return b
}

// SortBy is Sort with an allow-list of table columns sortable under their own names.
// Names that are not columns of the table are ignored.
func (b *Builder[T]) SortBy(s Sort, columns ...string) *Builder[T] {
	allowed := make(map[string]string, len(columns))
	for _, column := range columns {
		if b.table.hasColumn(column) {
			allowed[column] = column
		}
	}
	return b.Sort(s, allowed, "")
}

// Filter adds a predicate ANDed with all others.
func (b *Builder[T]) Filter(condition string, args ...interface{}) *Builder[T] {
	b.conditions = append(b.conditions, condition)
	b.args = append(b.args, args...)
	return b
}

// In restricts column to values. An empty set matches nothing.
func (b *Builder[T]) In(column string, values []string) *Builder[T] {
	if len(values) == 0 {
		return b.Filter("1=0")
	}
	return b.Filter(column+" IN (?)", values)
}

// Search matches term case-insensitively as a substring of any of columns. The
// term is used verbatim, so a run of spaces matches values containing it.
func (b *Builder[T]) Search(term string, columns ...string) *Builder[T] {
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE ?", column)
		args[i] = pattern
	}
	return b.Filter("("+strings.Join(parts, " OR ")+")", args...)
}

// resolveSort walks allow-list, caller default, any table column (only when no
// allow-list was declared) and finally the creation timestamp. An empty column
// means the result is left unordered.
func (b *Builder[T]) resolveSort() (string, Direction) {
	if b.sorting == nil {
		return "", ""
	}
	column, ok := b.sortColumns[b.sorting.Field]
	if !ok {
		column = b.defaultSortColumn
	}
	if column == "" && len(b.sortColumns) == 0 && b.table.hasColumn(b.sorting.Field) {
		column = b.sorting.Field
	}
	if column == "" {
		column = b.table.CreatedAt
	}
	return column, b.sorting.Direction
}

func (b *Builder[T]) whereClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

func (b *Builder[T]) bind(raw string) (string, []interface{}, error) {
	expanded, args, err := sqlx.In(raw, b.args...)
	if err != nil {
		return "", nil, fmt.Errorf("expand %s query: %w", b.table.Name, err)
	}
	return b.db.Rebind(expanded), args, nil
}

func (b *Builder[T]) observe(label string, start time.Time) {
	if b.observer != nil {
		b.observer.ObserveDBQuery(b.table.Name+"."+label, time.Since(start))
	}
}

// Execute counts the filtered set, then fetches the requested page of it.
func (b *Builder[T]) Execute(ctx context.Context) (*Result[T], error) {
	if b.pagination == nil {
		return nil, ErrPaginationRequired
	}
	if err := b.pagination.Validate(); err != nil {
		return nil, err
	}

	where := b.whereClause()

	countSQL, countArgs, err := b.bind(fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.table.Name, where))
	if err != nil {
		return nil, err
	}
	start := time.Now()
	var count int
	if err := sqlx.GetContext(ctx, b.db, &count, countSQL, countArgs...); err != nil {
		return nil, fmt.Errorf("count %s: %w", b.table.Name, err)
	}
	b.observe("count", start)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s", strings.Join(b.table.Columns, ", "), b.table.Name, where)
	if column, direction := b.resolveSort(); column != "" {
		fmt.Fprintf(&sb, " ORDER BY %s %s", column, direction)
	}
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", b.pagination.Limit, b.pagination.Skip)

	pageSQL, pageArgs, err := b.bind(sb.String())
	if err != nil {
		return nil, err
	}
	start = time.Now()
	data := make([]T, 0)
	if err := sqlx.SelectContext(ctx, b.db, &data, pageSQL, pageArgs...); err != nil {
		return nil, fmt.Errorf("list %s: %w", b.table.Name, err)
	}
	b.observe("page", start)

	return &Result[T]{Data: data, Count: count}, nil
}
