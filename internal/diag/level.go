package diag

// Level selects how much of the per-block decision stream is emitted.
// The stream is offline-review output only; it never affects the
// transformation itself.
type Level uint8

const (
	// LevelQuiet suppresses everything except warnings.
	LevelQuiet Level = iota
	// LevelSummary reports per-module totals.
	LevelSummary
	// LevelDetail reports per-method and per-block decisions.
	LevelDetail
	// LevelFull additionally dumps rewritten graphs.
	LevelFull
)

// FromVerbosity maps a counted --verbose flag to a level.
func FromVerbosity(n int) Level {
	switch {
	case n <= 0:
		return LevelSummary
	case n == 1:
		return LevelDetail
	default:
		return LevelFull
	}
}

func (l Level) String() string {
	switch l {
	case LevelQuiet:
		return "quiet"
	case LevelSummary:
		return "summary"
	case LevelDetail:
		return "detail"
	case LevelFull:
		return "full"
	default:
		return "level?"
	}
}
