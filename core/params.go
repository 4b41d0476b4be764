package core

// Params is the parameter mapping passed to interceptors and handlers.
// Keys are unique strings; values are arbitrary.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new mapping holding p overlaid with over; values in over win.
func (p Params) Merge(over Params) Params {
	out := p.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}

// String returns the value for key if it is a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Bool returns the value for key if it is a bool.
func (p Params) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}
