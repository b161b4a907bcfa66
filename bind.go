package dbcontext

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Param is one execution-ready bound parameter. Name is the descriptor name
// reported by the catalog, prefix included. A nil Value is the explicit null
// marker. Params are built fresh per call and never cached.
type Param struct {
	Name  string
	Value any
}

// nameSet is a caller-supplied exclusion list of field names, matched ignoring
// ASCII case.
type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	if len(names) == 0 {
		return nil
	}
	s := make(nameSet, len(names))
	for _, n := range names {
		s[toLowerAscii(n)] = struct{}{}
	}
	return s
}

func (s nameSet) has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s[toLowerAscii(name)]
	return ok
}

// leaf is one flattened model field: its bindable name, current value, and
// whether the value is absent (nil pointer or nil interface).
type leaf struct {
	name   string
	value  any
	absent bool
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// isComposite reports whether a field type gets flattened rather than bound
// directly. Primitives, enumerations (named primitive kinds), strings, and
// scalar structs the driver understands (time.Time, decimal.Decimal, any
// driver.Valuer) all bind as-is.
func isComposite(t reflect.Type) bool {
	t = derefPtr(t)
	if t.Kind() != reflect.Struct {
		return false
	}
	return !isScalarStruct(t)
}

func isScalarStruct(t reflect.Type) bool {
	if t == timeType || t == decimalType {
		return true
	}
	return t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType)
}

// structValue unwraps a model argument to its struct value.
func structValue(model any) (reflect.Value, error) {
	if model == nil {
		return reflect.Value{}, ErrNilModel
	}
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, ErrNilModel
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, ErrNotStruct
	}
	return rv, nil
}

// flattenModel walks a model depth-first in declaration order and returns its
// bindable leaves. Composite fields recurse; when two branches expose the same
// leaf name, the later-visited branch's value overwrites the earlier one.
// A visited set of struct types per branch terminates self-referential
// composite graphs instead of recursing forever.
func flattenModel(ss *schemaSet, model any, exclude nameSet) ([]leaf, error) {
	root, err := structValue(model)
	if err != nil {
		return nil, err
	}

	var out []leaf
	pos := make(map[string]int)

	var walk func(v reflect.Value, visited map[reflect.Type]bool)
	walk = func(v reflect.Value, visited map[reflect.Type]bool) {
		sch := ss.of(v.Type())
		for _, f := range sch.Fields {
			if exclude.has(f.Name) {
				continue
			}
			fv, ok := f.value(v)

			if isComposite(f.Type) {
				if !ok {
					continue // nil composite: no leaves to contribute
				}
				cv := fv
				for cv.Kind() == reflect.Pointer {
					if cv.IsNil() {
						ok = false
						break
					}
					cv = cv.Elem()
				}
				if !ok {
					continue
				}
				ct := cv.Type()
				if visited[ct] {
					continue
				}
				visited[ct] = true
				walk(cv, visited)
				delete(visited, ct)
				continue
			}

			l := leaf{name: f.Name}
			if !ok {
				l.absent = true
			} else {
				l.value, l.absent = concrete(fv)
			}
			key := toLowerAscii(f.Name)
			if i, seen := pos[key]; seen {
				out[i] = l // last write wins
			} else {
				pos[key] = len(out)
				out = append(out, l)
			}
		}
	}
	walk(root, make(map[reflect.Type]bool))
	return out, nil
}

// concrete unwraps pointers and interfaces to the underlying value. The
// second return reports absence: a nil pointer or nil interface has no value
// to bind.
func concrete(v reflect.Value) (any, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, true
	}
	return v.Interface(), false
}

// bindModel matches a model's flattened leaves against a procedure's
// descriptors and produces the ordered parameter set. Leaves with no matching
// descriptor are skipped; descriptors with no matching leaf are left unbound.
// An absent value binds the null marker when the descriptor is nullable and
// omits the parameter entirely when it is not.
func bindModel(ss *schemaSet, model any, descs []Parameter, prefix string, exclude nameSet) ([]Param, error) {
	leaves, err := flattenModel(ss, model, exclude)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]leaf, len(leaves))
	for _, l := range leaves {
		byName[toLowerAscii(prefix+l.name)] = l
	}

	out := make([]Param, 0, len(descs))
	for _, d := range descs {
		l, ok := byName[toLowerAscii(d.Name)]
		if !ok {
			continue
		}
		if l.absent {
			if !d.Nullable {
				continue
			}
			out = append(out, Param{Name: d.Name, Value: nil})
			continue
		}
		out = append(out, Param{Name: d.Name, Value: l.value})
	}
	return out, nil
}

// ParamsOf builds an ad-hoc parameter list from a subset of a model's fields.
// Field names match ignoring case; a field whose value is absent binds the
// null marker. Unknown names are an error.
func ParamsOf(d *DB, model any, names ...string) ([]Param, error) {
	return AppendParams(d, nil, model, names...)
}

// AppendParams appends field-derived params to an existing list, for callers
// mixing hand-built pairs with model fields.
func AppendParams(d *DB, params []Param, model any, names ...string) ([]Param, error) {
	rv, err := structValue(model)
	if err != nil {
		return nil, err
	}
	sch := d.schemas.of(rv.Type())
	prefix := d.dialect.Prefix()
	for _, n := range names {
		f, ok := sch.FieldFold(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, n)
		}
		var val any
		if fv, ok := f.value(rv); ok {
			if v, absent := concrete(fv); !absent {
				val = v
			}
		}
		params = append(params, Param{Name: prefix + f.Name, Value: val})
	}
	return params, nil
}

// missingParams returns the descriptor names with no corresponding supplied
// parameter, in declaration order. Used by the strict-binding path.
func missingParams(descs []Parameter, params []Param) []string {
	supplied := make(map[string]struct{}, len(params))
	for _, p := range params {
		supplied[toLowerAscii(p.Name)] = struct{}{}
	}
	var missing []string
	for _, d := range descs {
		if _, ok := supplied[toLowerAscii(d.Name)]; !ok {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

// orderByCatalog drops supplied params that match no descriptor and puts the
// rest in declaration order, so positional dialects see the backend's order.
func orderByCatalog(descs []Parameter, params []Param) []Param {
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[toLowerAscii(p.Name)] = p
	}
	out := make([]Param, 0, len(params))
	for _, d := range descs {
		if p, ok := byName[toLowerAscii(d.Name)]; ok {
			out = append(out, Param{Name: d.Name, Value: p.Value})
		}
	}
	return out
}
