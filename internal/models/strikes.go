package models

import "fmt"

// StrikeSet holds the four legs of one Iron Condor. It is always derived
// from (reference price, OTM percent, wing width) and never persisted on
// its own.
type StrikeSet struct {
	ShortPut  float64
	ShortCall float64
	LongPut   float64
	LongCall  float64
}

// Validate checks the leg ordering invariant:
// long put < short put < short call < long call.
func (s StrikeSet) Validate() error {
	if !(s.LongPut < s.ShortPut && s.ShortPut < s.ShortCall && s.ShortCall < s.LongCall) {
		return &InvalidParameterError{
			Field:  "strikes",
			Value:  s.ShortPut,
			Reason: fmt.Sprintf("leg ordering violated: %g/%g/%g/%g", s.LongPut, s.ShortPut, s.ShortCall, s.LongCall),
		}
	}
	return nil
}

// WingWidth returns the point distance between a short strike and its
// protective long strike. Both wings are constructed symmetric, so the put
// side is authoritative.
func (s StrikeSet) WingWidth() float64 {
	return s.ShortPut - s.LongPut
}

func (s StrikeSet) String() string {
	return fmt.Sprintf("%.0fp/%.0fP %.0fC/%.0fc", s.LongPut, s.ShortPut, s.ShortCall, s.LongCall)
}
