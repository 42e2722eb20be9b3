package share

import "fmt"

// MuxArith multiplexes two Arithmetic shares by a single-bit Boolean
// selector: result = f + sel·(t-f), the arithmetic-space equivalent of
// BoolShare.Mux, needed wherever the exchange-group and argmax folders
// run in arithmetic multiplication mode (spec §4.5.4).
func MuxArith(sel *BoolShare, t, f *ArithShare) (*ArithShare, error) {
	if sel.NVals() != t.NVals() || sel.NVals() != f.NVals() {
		return nil, mismatchedNVals("mux", sel.NVals(), t.NVals())
	}
	if sel.Bits != 1 {
		return nil, fmt.Errorf("share: mux: selector must be 1 bit, got %d", sel.Bits)
	}
	selArith, err := B2A(t.C, sel)
	if err != nil {
		return nil, fmt.Errorf("share: mux: %w", err)
	}
	diff, err := t.Sub(f)
	if err != nil {
		return nil, err
	}
	scaled, err := diff.Mul(selArith)
	if err != nil {
		return nil, err
	}
	return f.Add(scaled)
}
