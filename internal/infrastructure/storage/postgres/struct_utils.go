package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// ExtractDBColumns returns the column names declared by "db" tags of T,
// descending into embedded structs. Fields tagged "-" are skipped.
//
//	columns := ExtractDBColumns[orders.Order]()
//	// ["id", "deletion_mark", "version", "created_at", ..., "number", "date", "label", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataFor(reflect.TypeOf(zero))
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		cols = append(cols, f.column)
	}
	return cols
}

type columnField struct {
	column string
	index  []int
}

type typeMetadata struct {
	fields []columnField
}

var typeCache sync.Map // reflect.Type -> *typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, columnField{column: tag, index: index})
	}
}

// StructToMap converts a struct to a column map using its "db" tags.
// Type metadata is computed once per type.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// Pick returns the entries of data whose keys are in cols, minus skip.
func Pick(data map[string]any, cols []string, skip ...string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, col := range cols {
		if slices.Contains(skip, col) {
			continue
		}
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}
