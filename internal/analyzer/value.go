package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Value is a node of an analyzer summary. The set of implementations is
// closed: String, Int, Float, Bool, Null, *Map and List.
type Value interface {
	value()
}

type (
	// String is a text scalar.
	String string
	// Int is an integer scalar.
	Int int64
	// Float is a floating point scalar.
	Float float64
	// Bool is a boolean scalar.
	Bool bool
	// Null marks a field whose value is unknown or was not collected.
	Null struct{}
	// List is an ordered sequence of values.
	List []Value
)

func (String) value() {}
func (Int) value()    {}
func (Float) value()  {}
func (Bool) value()   {}
func (Null) value()   {}
func (List) value()   {}
func (*Map) value()   {}

// MarshalJSON encodes Null as JSON null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON encodes a nil list as an empty array.
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(l))
}

// Map is a string-keyed mapping that remembers insertion order.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set stores v under key. Re-setting an existing key keeps its position.
// A nil v is stored as Null.
func (m *Map) Set(key string, v Value) *Map {
	if v == nil {
		v = Null{}
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON encodes the map as a JSON object preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Counts converts a tally into a map with keys sorted alphabetically.
func Counts(tally map[string]int) *Map {
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMap()
	for _, k := range keys {
		m.Set(k, Int(tally[k]))
	}
	return m
}

// Strings converts a string attribute set into a map with sorted keys.
func Strings(attrs map[string]string) *Map {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := NewMap()
	for _, k := range keys {
		m.Set(k, String(attrs[k]))
	}
	return m
}

// StringPtr returns Null for a nil pointer.
func StringPtr(s *string) Value {
	if s == nil {
		return Null{}
	}
	return String(*s)
}

// Int32Ptr returns Null for a nil pointer.
func Int32Ptr(n *int32) Value {
	if n == nil {
		return Null{}
	}
	return Int(*n)
}

// Int64Ptr returns Null for a nil pointer.
func Int64Ptr(n *int64) Value {
	if n == nil {
		return Null{}
	}
	return Int(*n)
}

// BoolPtr returns Null for a nil pointer.
func BoolPtr(b *bool) Value {
	if b == nil {
		return Null{}
	}
	return Bool(*b)
}
