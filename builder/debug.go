package builder

// DebugTrace additionally carries the per-comparison-position score
// breakdown for precision studies, beyond the aggregate num/den spec
// §4.5.2's debug-result mode already requires — recovered from
// original_source/secure_epilinker.cpp, which dumps this same breakdown
// under its own debug build flag.
type DebugTrace[ShareT any] struct {
	FieldWeight map[string]ShareT
	Weight      map[string]ShareT
}

func newTrace[ShareT any]() *DebugTrace[ShareT] {
	return &DebugTrace[ShareT]{
		FieldWeight: make(map[string]ShareT),
		Weight:      make(map[string]ShareT),
	}
}
