// Package safeclone normalizes arbitrary host-application values into
// cycle-free, JSON-transmissible representations. Queue payloads are
// authored by third-party code the capture side does not control: values may
// be self-referential, hold live document-node handles, or panic when
// touched. Clone never fails; anything it cannot represent degrades in
// place to a descriptive placeholder string.
package safeclone

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Placeholder strings substituted for values that cannot travel.
const (
	MarkerCircular     = "[Circular]"
	MarkerNonCloneable = "[Non-cloneable]"
	MarkerWindow       = "[Window/Document]"
)

// Element is a reference to a host-document node. Cloning produces a
// compact description instead of carrying the live node across contexts.
type Element struct {
	Tag     string
	ID      string
	Classes []string
}

// Describe renders the compact element form, e.g. "<div#main.nav.active>".
func (e Element) Describe() string {
	var b strings.Builder
	b.WriteByte('<')
	if e.Tag != "" {
		b.WriteString(strings.ToLower(e.Tag))
	} else {
		b.WriteString("element")
	}
	if e.ID != "" {
		b.WriteByte('#')
		b.WriteString(e.ID)
	}
	for _, c := range e.Classes {
		if c != "" {
			b.WriteByte('.')
			b.WriteString(c)
		}
	}
	b.WriteByte('>')
	return b.String()
}

// Window and Document are references to the host globals. They never cross
// the bridge as live values.
type Window struct{}
type Document struct{}

// Clone returns a structurally-safe copy of v. It is total: it never
// panics, never hangs on cyclic structures, and never leaks Element,
// Window, or Document references into the result. Per-field failures
// degrade to MarkerNonCloneable without aborting sibling fields.
func Clone(v interface{}) interface{} {
	return cloneValue(v, make(map[uintptr]bool))
}

func cloneValue(v interface{}, seen map[uintptr]bool) (out interface{}) {
	defer func() {
		if r := recover(); r != nil {
			out = MarkerNonCloneable
		}
	}()

	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case Window, *Window, Document, *Document:
		return MarkerWindow
	case Element:
		return t.Describe()
	case *Element:
		if t == nil {
			return nil
		}
		return t.Describe()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v

	case reflect.Func:
		return describeFunc(rv)

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		return cloneList(rv, seen, rv.Pointer())

	case reflect.Array:
		return cloneList(rv, seen, 0)

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		return cloneMap(rv, seen)

	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return MarkerCircular
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		return cloneValue(rv.Elem().Interface(), seen)

	case reflect.Struct:
		return cloneStruct(rv, seen)

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return cloneValue(rv.Elem().Interface(), seen)

	default:
		// Channels, unsafe pointers, complex numbers and anything else
		// with no JSON analog.
		return MarkerNonCloneable
	}
}

// cloneList copies slices and arrays element-wise, preserving order and
// length. ptr is nonzero for slices and enables the cycle guard.
func cloneList(rv reflect.Value, seen map[uintptr]bool, ptr uintptr) interface{} {
	if ptr != 0 {
		if seen[ptr] {
			return MarkerCircular
		}
		seen[ptr] = true
		defer delete(seen, ptr)
	}

	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = cloneValue(rv.Index(i).Interface(), seen)
	}
	return out
}

func cloneMap(rv reflect.Value, seen map[uintptr]bool) interface{} {
	ptr := rv.Pointer()
	if seen[ptr] {
		return MarkerCircular
	}
	seen[ptr] = true
	defer delete(seen, ptr)

	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		var ks string
		if key.Kind() == reflect.String {
			ks = key.String()
		} else {
			ks = fmt.Sprint(key.Interface())
		}
		out[ks] = cloneValue(iter.Value().Interface(), seen)
	}
	return out
}

// cloneStruct flattens exported fields into a map in declaration order,
// matching object key enumeration on the page side.
func cloneStruct(rv reflect.Value, seen map[uintptr]bool) interface{} {
	t := rv.Type()
	out := make(map[string]interface{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		out[field.Name] = cloneValue(rv.Field(i).Interface(), seen)
	}
	return out
}

func describeFunc(rv reflect.Value) string {
	name := "anonymous"
	if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
		full := fn.Name()
		if idx := strings.LastIndex(full, "."); idx >= 0 {
			full = full[idx+1:]
		}
		// Compiler-generated closure names carry no useful identity.
		if full != "" && !strings.HasPrefix(full, "func") {
			name = full
		}
	}
	return fmt.Sprintf("[Function: %s]", name)
}
