package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// column maps one db-tagged struct field.
type column struct {
	name  string
	index []int
}

var columnPlans sync.Map // reflect.Type -> []column

// InsertModel inserts every db-tagged field of model.
func InsertModel(table string, model any) *InsertBuilder {
	b := InsertInto(table)
	value, cols, err := modelColumns(model)
	if err != nil {
		b.err = fmt.Errorf("insert into %s: %w", table, err)
		return b
	}
	for _, c := range cols {
		b.Value(c.name, value.FieldByIndex(c.index).Interface())
	}
	return b
}

// UpdateModel sets every db-tagged field of model except the excluded
// columns, which typically hold the row key and server-managed values.
func UpdateModel(table string, model any, exclude ...string) *UpdateBuilder {
	b := Update(table)
	value, cols, err := modelColumns(model)
	if err != nil {
		b.err = fmt.Errorf("update %s: %w", table, err)
		return b
	}
	for _, c := range cols {
		if slices.Contains(exclude, c.name) {
			continue
		}
		b.Set(c.name, value.FieldByIndex(c.index).Interface())
	}
	return b
}

func modelColumns(model any) (reflect.Value, []column, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("model must be a struct, got %s", value.Kind())
	}

	typ := value.Type()
	if cached, ok := columnPlans.Load(typ); ok {
		return value, cached.([]column), nil
	}

	var cols []column
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, column{name: name, index: field.Index})
	}
	if len(cols) == 0 {
		return reflect.Value{}, nil, fmt.Errorf("%s has no db columns", typ.Name())
	}

	columnPlans.Store(typ, cols)
	return value, cols, nil
}
