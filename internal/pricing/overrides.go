package pricing

import "math"

// Overrides holds manual final prices per option number. An absent entry
// means "use the computed total".
type Overrides struct {
	values map[int]float64
}

// NewOverrides constructs an empty map.
func NewOverrides() *Overrides {
	return &Overrides{values: make(map[int]float64)}
}

// Load replaces every override. Nil and non-finite values are treated as absent.
func (o *Overrides) Load(values map[int]*float64) {
	o.values = make(map[int]float64, len(values))
	for n, v := range values {
		if v != nil && finite(*v) {
			o.values[n] = *v
		}
	}
}

// Set stores value for optionNumber. A nil or non-finite value clears it.
func (o *Overrides) Set(optionNumber int, value *float64) {
	if value == nil || !finite(*value) {
		delete(o.values, optionNumber)
		return
	}
	o.values[optionNumber] = *value
}

// Get returns the override for optionNumber.
func (o *Overrides) Get(optionNumber int) (float64, bool) {
	v, ok := o.values[optionNumber]
	return v, ok
}

// Map returns a copy of every override.
func (o *Overrides) Map() map[int]float64 {
	out := make(map[int]float64, len(o.values))
	for n, v := range o.values {
		out[n] = v
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
