package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrSchemaMismatch indicates parsed data carries none of the schema fields.
var ErrSchemaMismatch = errors.New("no schema fields present")

// Kind is the declared type of a schema field.
type Kind int

const (
	KindInt Kind = iota
	KindString
	KindBool
	KindEnum
	KindStringList
	KindObject
	KindObjectList
	KindObjectMap
	KindStringListMap
)

// Field declares one expected key. Numbers are rounded to integers and
// clamped to [Min, Max].
type Field struct {
	Name    string
	Kind    Kind
	Min     int
	Max     int
	Default any
	Values  []string
	Fields  []Field
	Aliases []string
}

// Int declares an integer clamped to [lo, hi].
func Int(name string, lo, hi, def int) Field {
	return Field{Name: name, Kind: KindInt, Min: lo, Max: hi, Default: def}
}

// String declares a string field defaulting to "".
func String(name string) Field {
	return Field{Name: name, Kind: KindString, Default: ""}
}

// Bool declares a boolean field defaulting to false.
func Bool(name string) Field {
	return Field{Name: name, Kind: KindBool, Default: false}
}

// Enum declares a string restricted to values, matched case-insensitively.
// Unmatched values take def.
func Enum(name, def string, values ...string) Field {
	return Field{Name: name, Kind: KindEnum, Default: def, Values: values}
}

// Strings declares a list of strings.
func Strings(name string) Field {
	return Field{Name: name, Kind: KindStringList}
}

// Object declares a nested object.
func Object(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObject, Fields: fields}
}

// Objects declares a list of objects.
func Objects(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObjectList, Fields: fields}
}

// ObjectMap declares a map of normalized keys to objects.
func ObjectMap(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObjectMap, Fields: fields}
}

// StringsMap declares a map of normalized keys to string lists.
func StringsMap(name string) Field {
	return Field{Name: name, Kind: KindStringListMap}
}

// Alias adds alternative key names accepted for the field.
func (f Field) Alias(names ...string) Field {
	f.Aliases = append(append([]string(nil), f.Aliases...), names...)
	return f
}

// Schema is the expected shape of one stage response.
type Schema struct {
	Fields []Field
}

// NewSchema creates a Schema from top-level fields.
func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// Validate coerces untyped parsed data to the schema. Unknown keys are
// dropped, values are converted and clamped, and missing fields take their
// defaults. A bare array is accepted when the schema has exactly one list
// field, and a bare map of objects when the schema is a single object map.
// A single wrapping object key is unwrapped.
func (s *Schema) Validate(raw any) (map[string]any, error) {
	if arr, ok := raw.([]any); ok {
		field, ok := s.singleList()
		if !ok {
			return nil, fmt.Errorf("%w: unexpected array", ErrSchemaMismatch)
		}
		raw = map[string]any{field.Name: arr}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrSchemaMismatch, raw)
	}

	if s.matches(obj) == 0 && len(obj) == 1 {
		for _, v := range obj {
			if inner, ok := v.(map[string]any); ok && s.matches(inner) > 0 {
				obj = inner
			}
		}
	}

	if s.matches(obj) == 0 {
		if field, ok := s.singleMap(); ok && len(obj) > 0 && allObjects(obj) {
			obj = map[string]any{field.Name: obj}
		}
	}

	if s.matches(obj) == 0 {
		return nil, ErrSchemaMismatch
	}

	return coerceObject(s.Fields, obj), nil
}

// Defaults returns the value produced when nothing could be extracted.
func (s *Schema) Defaults() map[string]any {
	return coerceObject(s.Fields, map[string]any{})
}

func (s *Schema) singleList() (Field, bool) {
	var found []Field
	for _, f := range s.Fields {
		if f.Kind == KindObjectList || f.Kind == KindStringList {
			found = append(found, f)
		}
	}
	if len(found) != 1 {
		return Field{}, false
	}
	return found[0], true
}

func (s *Schema) singleMap() (Field, bool) {
	if len(s.Fields) == 1 && s.Fields[0].Kind == KindObjectMap {
		return s.Fields[0], true
	}
	return Field{}, false
}

func allObjects(obj map[string]any) bool {
	for _, v := range obj {
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func (s *Schema) matches(obj map[string]any) int {
	n := 0
	for _, f := range s.Fields {
		if _, ok := lookup(obj, f); ok {
			n++
		}
	}
	return n
}

func lookup(obj map[string]any, f Field) (any, bool) {
	if v, ok := obj[f.Name]; ok {
		return v, true
	}
	names := append([]string{f.Name}, f.Aliases...)
	for k, v := range obj {
		nk := NormalizeKey(k)
		for _, n := range names {
			if nk == NormalizeKey(n) {
				return v, true
			}
		}
	}
	return nil, false
}

func coerceObject(fields []Field, obj map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, _ := lookup(obj, f)
		out[f.Name] = coerce(f, v)
	}
	return out
}

func coerce(f Field, v any) any {
	switch f.Kind {
	case KindInt:
		n, ok := toNumber(v)
		if !ok {
			n = float64(intDefault(f))
		}
		return int(math.Round(clamp(n, f.Min, f.Max)))

	case KindString:
		if s, ok := toString(v); ok {
			return s
		}
		return stringDefault(f)

	case KindBool:
		switch b := v.(type) {
		case bool:
			return b
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			return err == nil && parsed
		}
		return f.Default == true

	case KindEnum:
		if s, ok := toString(v); ok {
			for _, allowed := range f.Values {
				if strings.EqualFold(strings.TrimSpace(s), allowed) {
					return allowed
				}
			}
		}
		return stringDefault(f)

	case KindStringList:
		return toStrings(v)

	case KindObject:
		obj, _ := v.(map[string]any)
		if obj == nil {
			obj = map[string]any{}
		}
		return coerceObject(f.Fields, obj)

	case KindObjectList:
		list := make([]any, 0)
		items, _ := v.([]any)
		for _, item := range items {
			if obj, ok := item.(map[string]any); ok {
				list = append(list, coerceObject(f.Fields, obj))
			}
		}
		return list

	case KindObjectMap:
		out := make(map[string]any)
		obj, _ := v.(map[string]any)
		for k, item := range obj {
			if inner, ok := item.(map[string]any); ok {
				out[NormalizeKey(k)] = coerceObject(f.Fields, inner)
			}
		}
		return out

	case KindStringListMap:
		out := make(map[string]any)
		obj, _ := v.(map[string]any)
		for k, item := range obj {
			out[NormalizeKey(k)] = toStrings(item)
		}
		return out
	}

	return nil
}

var leadingNumber = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`)

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, inRange(err)
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(n))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, inRange(err)
	}
	return 0, false
}

// inRange accepts overflow, where ParseFloat returns a signed infinity that
// clamping then bounds.
func inRange(err error) bool {
	return err == nil || errors.Is(err, strconv.ErrRange)
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func toStrings(v any) []string {
	out := make([]string, 0)
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s, ok := toString(item); ok && s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(items); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intDefault(f Field) int {
	if d, ok := f.Default.(int); ok {
		return d
	}
	return 0
}

func stringDefault(f Field) string {
	if d, ok := f.Default.(string); ok {
		return d
	}
	return ""
}

// maxExact bounds unranged fields so the int conversion stays defined.
const maxExact = 1 << 53

// clamp bounds v to [lo, hi] before any conversion to int.
func clamp(v float64, lo, hi int) float64 {
	if hi > lo {
		return math.Max(float64(lo), math.Min(float64(hi), v))
	}
	return math.Max(-maxExact, math.Min(maxExact, v))
}

// NormalizeKey lowercases k and joins words with underscores so "Hate
// Speech", "hate-speech", and "hateSpeech" compare equal to "hate_speech".
func NormalizeKey(k string) string {
	var b strings.Builder
	prevLower := false
	pendingSep := false
	for _, r := range strings.TrimSpace(k) {
		switch {
		case r == ' ' || r == '-' || r == '_' || r == '/' || r == '&':
			pendingSep = b.Len() > 0
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				pendingSep = true
			}
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLower = false
		default:
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z'
		}
	}
	return b.String()
}
