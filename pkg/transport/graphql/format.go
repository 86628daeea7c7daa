package graphql

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Arg is a named argument. Arguments keep the order they were added in.
type Arg struct {
	Name  string
	Value interface{}
}

// Object is an input object whose fields render in the given order.
type Object []Arg

// Enum is an enum value; it renders without quotes.
type Enum string

// Variable references an operation variable, e.g. Variable("id") renders $id.
type Variable string

// formatValue renders v as a GraphQL input value literal.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case json.Number:
		return t.String()
	case Enum:
		return string(t)
	case Variable:
		return "$" + string(t)
	case Object:
		parts := make([]string, 0, len(t))
		for _, a := range t {
			parts = append(parts, a.Name+": "+formatValue(a.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+formatValue(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []interface{}:
		return formatList(len(t), func(i int) interface{} { return t[i] })
	}

	// Named scalar types render by kind: type userID int is still an Int.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.String:
		return quote(rv.String())
	case reflect.Slice, reflect.Array:
		return formatList(rv.Len(), func(i int) interface{} { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]interface{}, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			return formatValue(m)
		}
	case reflect.Ptr:
		if rv.IsNil() {
			return "null"
		}
		return formatValue(rv.Elem().Interface())
	}

	return quote(fmt.Sprint(v))
}

func formatList(n int, at func(int) interface{}) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, formatValue(at(i)))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// quote produces a GraphQL string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// validName reports whether s is a GraphQL Name: /[_A-Za-z][_0-9A-Za-z]*/.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
