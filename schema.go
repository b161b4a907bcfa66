package dbcontext

import (
	"reflect"
	"strings"
)

// Field describes one accessible field of a model type: its bindable name,
// declared type, and index path from the root struct. The path may traverse
// anonymous embedded structs; named struct fields are kept whole and left to
// the binder's composite flattening.
type Field struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// value walks the field's index path on an instance. The second return is
// false when a nil pointer is encountered on the path, which the binder
// treats as an absent value.
func (f Field) value(root reflect.Value) (reflect.Value, bool) {
	v := root
	for _, i := range f.Index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}

// Schema is the immutable field-descriptor table of one model type. It is
// built once per type and cached for the process lifetime.
type Schema struct {
	Fields []Field
	exact  map[string]int
	folded map[string]int
}

// Field looks a field up by exact name. Materialization uses this: column to
// field matching is case-sensitive.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.exact[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// FieldFold looks a field up ignoring ASCII case. Binding uses this: the
// parameter convention matches prefix+field case-insensitively.
func (s *Schema) FieldFold(name string) (Field, bool) {
	i, ok := s.folded[toLowerAscii(name)]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// schemaSet memoizes Schemas in an injected Cache keyed by fully-qualified
// type name.
type schemaSet struct {
	cache Cache
}

func (ss *schemaSet) of(t reflect.Type) *Schema {
	t = derefPtr(t)
	key := typeKey(t)
	if v, ok := ss.cache.Get(key); ok {
		return v.(*Schema)
	}
	s := buildSchema(t)
	ss.cache.Set(key, s)
	return s
}

func typeKey(t reflect.Type) string {
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func buildSchema(rt reflect.Type) *Schema {
	s := &Schema{
		exact:  make(map[string]int),
		folded: make(map[string]int),
	}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		t = derefPtr(t)
		if t.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("db")
			if tag == "-" {
				continue
			}
			path := append(append([]int(nil), base...), i)

			// Anonymous embedded structs flatten into the parent schema.
			if sf.Anonymous && tag == "" {
				ft := derefPtr(sf.Type)
				if ft.Kind() == reflect.Struct && !isScalarStruct(ft) {
					walk(sf.Type, path)
					continue
				}
			}

			name := tag
			if name == "" {
				name = sf.Name
			}
			lc := toLowerAscii(name)
			if _, dup := s.folded[lc]; dup {
				continue // first declaration wins within one type
			}
			s.folded[lc] = len(s.Fields)
			s.exact[name] = len(s.Fields)
			s.Fields = append(s.Fields, Field{Name: name, Type: sf.Type, Index: path})
		}
	}
	walk(rt, nil)
	return s
}

func derefPtr(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// normalizeCol strips one layer of identifier quoting. Case is preserved;
// column-to-field matching is exact.
func normalizeCol(s string) string {
	if l := len(s); l >= 2 {
		switch s[0] {
		case '"':
			if s[l-1] == '"' {
				return s[1 : l-1]
			}
		case '`':
			if s[l-1] == '`' {
				return s[1 : l-1]
			}
		case '[':
			if s[l-1] == ']' {
				return s[1 : l-1]
			}
		}
	}
	return s
}

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b.WriteByte(c)
	}
	return b.String()
}
