package model

// Value is one slot of an indicator series. Valid is false while the
// indicator has not accumulated enough history.
type Value struct {
	V     float64
	Valid bool
}

// Series is an indicator sequence aligned index-for-index with a bar slice.
type Series []Value

// At returns the value at i and whether it is defined. Out-of-range
// indices are reported as undefined.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	return s[i].V, s[i].Valid
}

// Ptr returns the value at i as a pointer, nil when undefined.
func (s Series) Ptr(i int) *float64 {
	v, ok := s.At(i)
	if !ok {
		return nil
	}
	return &v
}
