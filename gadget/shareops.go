package gadget

import "github.com/markkurossi/sepilinker/share"

// BoolOps is the ShareOps[*share.BoolShare] every Folder/SplitAccumulate
// call over Boolean shares uses; concat is via share.VcombineBool.
func BoolOps() ShareOps[*share.BoolShare] {
	return ShareOps[*share.BoolShare]{
		NVals: func(s *share.BoolShare) int { return s.NVals() },
		Slice: func(s *share.BoolShare, lo, hi int) *share.BoolShare { return s.SliceVals(lo, hi) },
		Concat: func(a, b *share.BoolShare) (*share.BoolShare, error) {
			return share.VcombineBool([]*share.BoolShare{a, b})
		},
	}
}

// ArithOps is the ShareOps[*share.ArithShare] analogue, via
// share.VcombineArith.
func ArithOps() ShareOps[*share.ArithShare] {
	return ShareOps[*share.ArithShare]{
		NVals: func(s *share.ArithShare) int { return s.NVals() },
		Slice: func(s *share.ArithShare, lo, hi int) *share.ArithShare { return s.SliceVals(lo, hi) },
		Concat: func(a, b *share.ArithShare) (*share.ArithShare, error) {
			return share.VcombineArith([]*share.ArithShare{a, b})
		},
	}
}
