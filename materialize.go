package dbcontext

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// MappingError reports a column/field type mismatch during materialization.
// It is not recovered: operations propagate it to the caller instead of
// converting it into a Response.
type MappingError struct {
	Column string
	Field  string
	Err    error
}

func (e *MappingError) Error() string {
	return "dbcontext: column " + e.Column + " into field " + e.Field + ": " + e.Err.Error()
}

func (e *MappingError) Unwrap() error { return e.Err }

// scanInto materializes the current cursor row into a struct instance.
// Columns match fields by exact name; unmatched columns are dropped and
// unmatched fields keep their zero value. SQL NULL coerces to the field's
// absent representation. A type mismatch is a mapping error and propagates;
// materialization assumes compatible types and does not validate them.
func (d *DB) scanInto(rows *sql.Rows, dest reflect.Value) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	sch := d.schemas.of(dest.Type())

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return err
	}

	for i, c := range cols {
		f, ok := sch.Field(normalizeCol(c))
		if !ok {
			continue
		}
		fv := fieldByPathAlloc(dest, f.Index)
		if err := assign(fv, raw[i]); err != nil {
			return &MappingError{Column: c, Field: fmt.Sprintf("%s.%s", dest.Type(), f.Name), Err: err}
		}
	}
	return nil
}

func scanModel[T any](d *DB, rows *sql.Rows) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	if rv.Kind() != reflect.Struct {
		return out, ErrNotStruct
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return out, err
		}
		return out, ErrEmptyResult
	}
	if err := d.scanInto(rows, rv); err != nil {
		return out, err
	}
	return out, nil
}

func scanModels[T any](d *DB, rows *sql.Rows) ([]T, error) {
	var out []T
	for rows.Next() {
		var v T
		rv := reflect.ValueOf(&v).Elem()
		if rv.Kind() != reflect.Struct {
			return nil, ErrNotStruct
		}
		if err := d.scanInto(rows, rv); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Table is the generic tabular result: ordered column names inferred from
// cursor metadata and raw row values. When an allow-list restricts columns,
// it applies identically to the column declaration and to per-row extraction,
// so column count and value count always agree.
type Table struct {
	Columns []string
	Rows    [][]any
}

func readTable(rows *sql.Rows, allow nameSet) (Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return Table{}, err
	}

	var t Table
	keep := make([]int, 0, len(cols))
	for i, c := range cols {
		name := normalizeCol(c)
		if allow != nil && !allow.has(name) {
			continue
		}
		keep = append(keep, i)
		t.Columns = append(t.Columns, name)
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, err
		}
		row := make([]any, 0, len(keep))
		for _, i := range keep {
			row = append(row, cellValue(raw[i]))
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// cellValue copies driver bytes to string so cells stay valid after the next
// Scan reuses the buffer.
func cellValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// fieldByPathAlloc walks an index path, allocating nil pointers so the final
// field is addressable.
func fieldByPathAlloc(root reflect.Value, fpath []int) reflect.Value {
	v := root
	for _, i := range fpath {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// assign coerces one driver value into a destination field.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.CanAddr() {
		if sc, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(v)
		}
	}
	for dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
		if sc, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(v)
		}
	}

	switch src := v.(type) {
	case int64:
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetInt(src)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			dst.SetUint(uint64(src))
			return nil
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(float64(src))
			return nil
		case reflect.Bool:
			dst.SetBool(src != 0)
			return nil
		case reflect.String:
			dst.SetString(strconv.FormatInt(src, 10))
			return nil
		}
	case float64:
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(src)
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetInt(int64(src))
			return nil
		case reflect.String:
			dst.SetString(strconv.FormatFloat(src, 'f', -1, 64))
			return nil
		}
	case bool:
		switch dst.Kind() {
		case reflect.Bool:
			dst.SetBool(src)
			return nil
		case reflect.String:
			dst.SetString(strconv.FormatBool(src))
			return nil
		}
	case []byte:
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(string(src))
			return nil
		case reflect.Slice:
			if dst.Type().Elem().Kind() == reflect.Uint8 {
				dst.SetBytes(append([]byte(nil), src...))
				return nil
			}
		}
	case string:
		if dst.Kind() == reflect.String {
			dst.SetString(src)
			return nil
		}
	case time.Time:
		if dst.Type() == timeType {
			dst.Set(reflect.ValueOf(src))
			return nil
		}
		if dst.Kind() == reflect.String {
			dst.SetString(src.Format(time.RFC3339))
			return nil
		}
	}

	sv := reflect.ValueOf(v)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

// toInt64 reads an integer cell regardless of how the driver typed it.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// toBool reads a boolean cell; bit, tinyint, and textual forms all occur
// across the supported backends.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case []byte:
		s := string(b)
		return s == "1" || toLowerAscii(s) == "true"
	case string:
		return b == "1" || toLowerAscii(b) == "true"
	}
	return false
}
