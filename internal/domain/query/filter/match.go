package filter

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// MatchesAll reports whether doc satisfies every constraint.
// Used by backends that evaluate queries in process.
func MatchesAll(doc map[string]any, constraints []Constraint) bool {
	for _, c := range constraints {
		if !Matches(doc, c) {
			return false
		}
	}
	return true
}

// Matches evaluates a single constraint against doc.
// A document that lacks the field never matches, including for != and not-in.
func Matches(doc map[string]any, c Constraint) bool {
	actual, ok := Lookup(doc, c.Field)
	if !ok {
		return false
	}
	if c.Comparator.IsArray() {
		elems, ok := asList(actual)
		return ok && matchesArray(elems, c)
	}

	switch c.Comparator {
	case Equal:
		return equal(actual, c.Value)
	case NotEqual:
		return actual != nil && !equal(actual, c.Value)
	case Less, LessOrEqual, Greater, GreaterOrEqual:
		cmp, ok := compare(actual, c.Value)
		if !ok {
			return false
		}
		switch c.Comparator {
		case Less:
			return cmp < 0
		case LessOrEqual:
			return cmp <= 0
		case Greater:
			return cmp > 0
		default:
			return cmp >= 0
		}
	case In:
		values, ok := asList(c.Value)
		return ok && containsEqual(values, actual)
	case NotIn:
		values, ok := asList(c.Value)
		return ok && actual != nil && !containsEqual(values, actual)
	}
	return false
}

// matchesArray evaluates an array comparator against the elements of an array field.
func matchesArray(elems []any, c Constraint) bool {
	if c.Comparator == ArrayContains {
		return containsEqual(elems, c.Value)
	}
	values, ok := asList(c.Value)
	if !ok {
		return false
	}
	for _, v := range values {
		if containsEqual(elems, v) {
			return true
		}
	}
	return false
}

// Lookup resolves a dot-separated field path in a nested document.
func Lookup(doc map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func containsEqual(values []any, v any) bool {
	for _, candidate := range values {
		if equal(candidate, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if la, ok := asList(a); ok {
		lb, ok := asList(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if ma, ok := a.(map[string]any); ok {
		mb, ok := b.(map[string]any)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !equal(va, vb) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of the same kind. ok is false across kinds.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		}
		return 1, true
	case time.Time:
		vb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return va.Compare(vb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// asList converts slices and arrays of any element type to []any.
func asList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		// raw bytes are a scalar
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ListLen returns the number of elements of a list value, or -1 if v is not a list.
func ListLen(v any) int {
	l, ok := asList(v)
	if !ok {
		return -1
	}
	return len(l)
}
