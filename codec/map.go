package codec

// Map is an insertion-ordered string-keyed map. Iteration order is part
// of the canonical bytes an attestation digests, so attribute data must
// be carried in a container that preserves it; Go's builtin map does not.
//
// Permitted values are the canonical value set: nil, bool, string,
// json.Number, int/int64/uint64/float64, []any, and nested *Map.
// Encoding rejects anything else.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set inserts or replaces key. A replaced key keeps its original
// position; a new key is appended.
func (m *Map) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Clone returns a deep copy. Nested maps and slices are copied; leaf
// values are immutable and shared.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := NewMap()
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.values[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether two maps hold the same entries in the same
// order. Equality is defined over canonical JSON bytes, so logically
// equal numbers in different Go types compare equal.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	a, err := EncodeValue(JSON, m)
	if err != nil {
		return false
	}
	b, err := EncodeValue(JSON, other)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}
