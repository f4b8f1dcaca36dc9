package lifecycle

// Phase is a step of an entry's lifecycle.
type Phase string

const (
	PhaseCaptured              Phase = "captured"
	PhasePersistingPlaceholder Phase = "persisting_placeholder"
	PhaseAnalyzing             Phase = "analyzing"
	PhaseReconciled            Phase = "reconciled"
	PhaseFailed                Phase = "failed"
	PhaseDeleted               Phase = "deleted"
)

// Terminal reports whether no further automatic transition follows.
func (p Phase) Terminal() bool {
	return p == PhaseReconciled || p == PhaseFailed || p == PhaseDeleted
}

// Transition is reported to the Observer. EntryID is empty until the
// placeholder has been stored. Err is set on PhaseFailed.
type Transition struct {
	EntryID string
	Phase   Phase
	Err     error
}

// Observer is notified of every transition. It is called from the
// goroutine that made the transition and must not block.
type Observer interface {
	Observe(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

func (f ObserverFunc) Observe(t Transition) { f(t) }

// Notifier shows blocking failures to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(string)

func (f NotifierFunc) Alert(message string) { f(message) }

type nopObserver struct{}

func (nopObserver) Observe(Transition) {}

type nopNotifier struct{}

func (nopNotifier) Alert(string) {}
