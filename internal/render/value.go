package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindNumber
	kindBool
)

// Value is a closed variant for placeholder substitution: string, number,
// boolean or null, each with a fixed stringification. Keeping the set
// closed makes rendering deterministic regardless of what a caller put
// into the overrides JSON.
type Value struct {
	kind valueKind
	str  string
	num  float64
	b    bool
}

func String(s string) Value  { return Value{kind: kindString, str: s} }
func Number(n float64) Value { return Value{kind: kindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: kindBool, b: b} }
func Null() Value            { return Value{kind: kindNull} }

// FromAny coerces a decoded JSON value into the closed variant. Slices
// stringify comma-joined; anything else falls back to fmt.Sprint.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case bool:
		return Bool(t)
	case []string:
		return String(strings.Join(t, ", "))
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, FromAny(e).String())
		}
		return String(strings.Join(parts, ", "))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	default:
		return String(fmt.Sprint(t))
	}
}

// String renders the variant for substitution: numbers drop trailing
// zeros, booleans are "true"/"false", null is the empty string.
func (v Value) String() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Vars is an ordered string-to-Value map: iteration follows insertion
// order, and Set on an existing key overwrites in place.
type Vars struct {
	keys  []string
	index map[string]Value
}

func NewVars() *Vars {
	return &Vars{index: make(map[string]Value)}
}

func (v *Vars) Set(key string, val Value) {
	if _, ok := v.index[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.index[key] = val
}

func (v *Vars) Get(key string) (Value, bool) {
	val, ok := v.index[key]
	return val, ok
}

func (v *Vars) Len() int { return len(v.keys) }

// Keys returns the keys in insertion order.
func (v *Vars) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// MarshalJSON serializes as a plain object. Ordering is not preserved on
// the wire; UnmarshalJSON restores keys in the decoder's token order.
func (v *Vars) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(v.keys))
	for k, val := range v.index {
		switch val.kind {
		case kindString:
			m[k] = val.str
		case kindNumber:
			m[k] = val.num
		case kindBool:
			m[k] = val.b
		default:
			m[k] = nil
		}
	}
	return json.Marshal(m)
}

func (v *Vars) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = *NewVars()
	dec := json.NewDecoder(strings.NewReader(string(data)))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			break
		}
		v.Set(key, FromAny(raw[key]))
		// skip the value token tree
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return nil
}
