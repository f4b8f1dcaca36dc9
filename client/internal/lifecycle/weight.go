package lifecycle

import "fmt"

// WeightAnswer is the user's reply to the weight prompt: NotAsked, Unknown,
// Declared(grams) or Cancelled.
type WeightAnswer struct {
	kind  weightKind
	grams float64
}

type weightKind int

const (
	weightNotAsked weightKind = iota
	weightUnknown
	weightDeclared
	weightCancelled
)

var (
	// NotAsked skips the prompt.
	NotAsked = WeightAnswer{kind: weightNotAsked}
	// Unknown is an explicit "don't know".
	Unknown = WeightAnswer{kind: weightUnknown}
	// Cancelled aborts the capture.
	Cancelled = WeightAnswer{kind: weightCancelled}
)

// Declared is an exact weight in grams.
func Declared(grams float64) WeightAnswer {
	return WeightAnswer{kind: weightDeclared, grams: grams}
}

func (w WeightAnswer) String() string {
	switch w.kind {
	case weightUnknown:
		return "unknown"
	case weightDeclared:
		return fmt.Sprintf("%gg", w.grams)
	case weightCancelled:
		return "cancelled"
	default:
		return "not_asked"
	}
}

// weight returns the grams to forward, nil when none were declared.
func (w WeightAnswer) weight() (*float64, error) {
	switch w.kind {
	case weightCancelled:
		return nil, ErrCaptureCancelled
	case weightDeclared:
		if !(w.grams > 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWeight, w.grams)
		}
		g := w.grams
		return &g, nil
	default:
		return nil, nil
	}
}
