// Package database provides a small SQL list-query builder with sanitized
// identifiers and positional parameters, shared by the listing repositories.
package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	Like               ConditionType = "LIKE"
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	Custom             ConditionType = "CUSTOM"

	defaultLimit  = -1
	defaultOffset = -1
)

type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery *string
}

// WhereCond builds a standard field/operator/value condition.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		panic("use WhereRawCond for Custom conditions")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond builds a raw SQL condition. Placeholders $1..$n refer to params
// positionally; they are renumbered when the query is assembled.
func WhereRawCond(rawQuery string, params ...any) Condition {
	var value any = params
	if len(params) == 0 {
		value = nil
	} else if len(params) == 1 {
		value = params[0]
	}
	return Condition{Type: Custom, rawQuery: &rawQuery, Value: value}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  defaultLimit,
		Offset: defaultOffset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly switches the query to SELECT COUNT(*).
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// BuildListQuery constructs a SQL query string and args from options,
// sanitizing every identifier through pgx.Identifier.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString(buildSelectClause(options))
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	whereClause, whereArgs, nextParam := buildWhereClause(options.Conditions, 1)
	if whereClause != "" {
		query.WriteString(" ")
		query.WriteString(whereClause)
	}

	if options.CountOnly {
		return query.String(), whereArgs
	}

	tail, finalArgs := buildPaginationAndOrderClause(options, nextParam, whereArgs)
	query.WriteString(tail)
	return query.String(), finalArgs
}

func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func buildSelectClause(options *ListQueryOptions) string {
	if options.CountOnly {
		return "SELECT COUNT(*) "
	}
	if len(options.Columns) == 0 {
		return "SELECT * "
	}
	cols := make([]string, len(options.Columns))
	for i, col := range options.Columns {
		cols[i] = sanitizeIdentifier(col)
	}
	return fmt.Sprintf("SELECT %s ", strings.Join(cols, ", "))
}

func buildPaginationAndOrderClause(
	options *ListQueryOptions,
	startParamIndex int,
	initialArgs []any,
) (string, []any) {
	var clause strings.Builder
	args := initialArgs
	paramCount := startParamIndex

	if options.OrderBy != "" {
		clause.WriteString(" ORDER BY ")
		clause.WriteString(sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			clause.WriteString(" ")
			clause.WriteString(dir)
		}
	}
	if options.Limit != defaultLimit {
		clause.WriteString(fmt.Sprintf(" LIMIT $%d", paramCount))
		args = append(args, options.Limit)
		paramCount++
	}
	if options.Offset != defaultOffset {
		clause.WriteString(fmt.Sprintf(" OFFSET $%d", paramCount))
		args = append(args, options.Offset)
	}
	return clause.String(), args
}

func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any, int) {
	conditions := make([]string, 0, len(inputConditions))
	args := []any{}
	paramCount := startParamIndex

	for _, cond := range inputConditions {
		conditionStr, newArgs, nextParam := processCondition(cond, paramCount)
		if conditionStr != "" {
			conditions = append(conditions, conditionStr)
			args = append(args, newArgs...)
			paramCount = nextParam
		}
	}
	if len(conditions) == 0 {
		return "", args, paramCount
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, paramCount
}

func processCondition(cond Condition, paramCount int) (string, []any, int) {
	switch cond.Type {
	case Custom:
		return handleCustomCondition(cond, paramCount)
	case In:
		return handleInCondition(cond, paramCount)
	case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual, Like, ILike:
		if cond.Field == "" {
			return "", nil, paramCount
		}
		conditionStr := fmt.Sprintf("%s %s $%d", sanitizeIdentifier(cond.Field), cond.Type, paramCount)
		return conditionStr, []any{cond.Value}, paramCount + 1
	}
	return "", nil, paramCount
}

func handleInCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.Field == "" {
		return "", nil, paramCount
	}
	rv := reflect.ValueOf(cond.Value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", nil, paramCount
	}

	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	current := paramCount
	for i := range rv.Len() {
		placeholders[i] = fmt.Sprintf("$%d", current)
		args[i] = rv.Index(i).Interface()
		current++
	}
	conditionStr := fmt.Sprintf(
		"%s IN (%s)",
		sanitizeIdentifier(cond.Field),
		strings.Join(placeholders, ", "),
	)
	return conditionStr, args, current
}

func handleCustomCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.rawQuery == nil || *cond.rawQuery == "" {
		return "", nil, paramCount
	}
	conditionStr := *cond.rawQuery
	if cond.Value == nil {
		return conditionStr, nil, paramCount
	}

	var params []any
	if slice, ok := cond.Value.([]any); ok {
		params = slice
	} else {
		params = []any{cond.Value}
	}

	// Renumber $n placeholders into the assembled query's parameter space.
	// Repeated placeholders share one renumbered parameter.
	args := make([]any, 0, len(params))
	idxMap := make(map[int]int)
	var out strings.Builder
	current := paramCount
	i := 0
	for i < len(conditionStr) {
		if conditionStr[i] == '$' {
			j := i + 1
			for j < len(conditionStr) && conditionStr[j] >= '0' && conditionStr[j] <= '9' {
				j++
			}
			if j > i+1 {
				idx := 0
				for _, c := range conditionStr[i+1 : j] {
					idx = idx*10 + int(c-'0')
				}
				if idx >= 1 && idx <= len(params) {
					mapped, seen := idxMap[idx]
					if !seen {
						mapped = current
						idxMap[idx] = mapped
						args = append(args, params[idx-1])
						current++
					}
					out.WriteString(fmt.Sprintf("$%d", mapped))
					i = j
					continue
				}
			}
		}
		out.WriteByte(conditionStr[i])
		i++
	}
	return out.String(), args, current
}
