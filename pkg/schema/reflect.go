package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// fieldIndex caches positions of `db` tagged fields per type.
var fieldIndex sync.Map // reflect.Type -> []colField

type colField struct {
	name  string
	index int
}

func fieldsOf(t reflect.Type) []colField {
	if v, ok := fieldIndex.Load(t); ok {
		return v.([]colField)
	}
	var res []colField
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("db"); tag != "" {
			res = append(res, colField{name: tag, index: i})
		}
	}
	fieldIndex.Store(t, res)
	return res
}

func indirect(model any) reflect.Value {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// Columns returns column names of a model in field order.
func Columns(model any) []string {
	fields := fieldsOf(indirect(model).Type())
	res := make([]string, len(fields))
	for i, f := range fields {
		res[i] = f.name
	}
	return res
}

// Values returns values of the `db` tagged fields of a model.
func Values(model any) []any {
	v := indirect(model)
	fields := fieldsOf(v.Type())
	res := make([]any, len(fields))
	for i, f := range fields {
		res[i] = v.Field(f.index).Interface()
	}
	return res
}

// Pointers returns addresses of the `db` tagged fields of a model,
// suitable for sql.Rows.Scan. Model has to be a pointer to a struct.
func Pointers(model any) []any {
	v := indirect(model)
	fields := fieldsOf(v.Type())
	res := make([]any, len(fields))
	for i, f := range fields {
		res[i] = v.Field(f.index).Addr().Interface()
	}
	return res
}

// InsertSQL returns a parametrized INSERT statement for a table model.
func InsertSQL(g DDLGenerator) string {
	cols := Columns(g)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		g.TableName(), strings.Join(cols, ", "), marks)
}

// SelectSQL returns a SELECT statement of all model columns.
func SelectSQL(g DDLGenerator) string {
	return fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(Columns(g), ", "), g.TableName())
}
