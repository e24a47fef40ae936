package protocol

import (
	"encoding/json"
	"math"
)

// Fields is a decoded object payload. Lookups never fail loudly: a missing
// key or a value of the wrong type reports ok=false and the caller keeps its
// previous value.
type Fields map[string]any

// AsFields returns the payload as an object, or nil when it is not one.
func AsFields(v any) Fields {
	if m, ok := v.(map[string]any); ok {
		return Fields(m)
	}
	return nil
}

// Has reports whether key is present, even with a null value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f Fields) Float(key string) (float64, bool) {
	return Number(f[key])
}

func (f Fields) Int(key string) (int, bool) {
	n, ok := Number(f[key])
	if !ok || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func (f Fields) String(key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok
}

func (f Fields) Bool(key string) (bool, bool) {
	b, ok := f[key].(bool)
	return b, ok
}

// Truthy mirrors loose client semantics: false, null, 0, "" and a missing
// key are all false.
func (f Fields) Truthy(key string) bool {
	switch v := f[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	if n, ok := Number(f[key]); ok {
		return n != 0
	}
	return true
}

// Pairs reads a list of [x, y] integer pairs. Entries that are not pairs
// of integers are skipped; ok is false only when the value is not a list.
func (f Fields) Pairs(key string) ([][2]int, bool) {
	return Pairs(f[key])
}

// Pairs reads a list of [x, y] integer pairs from a generic value.
func Pairs(v any) ([][2]int, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([][2]int, 0, len(list))
	for _, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		x, okx := Number(pair[0])
		y, oky := Number(pair[1])
		if !okx || !oky || x != math.Trunc(x) || y != math.Trunc(y) {
			continue
		}
		if math.Abs(x) > math.MaxInt32 || math.Abs(y) > math.MaxInt32 {
			continue
		}
		out = append(out, [2]int{int(x), int(y)})
	}
	return out, true
}

// Number converts any decoded numeric value to float64. NaN and infinities
// are rejected.
func Number(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int8:
		n = float64(x)
	case int16:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint8:
		n = float64(x)
	case uint16:
		n = float64(x)
	case uint32:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
