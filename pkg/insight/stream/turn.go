package stream

import (
	"errors"
	"strings"

	"review-insights-be/pkg/insight/evidence"
)

// State tracks one answer turn through its lifecycle.
type State int

const (
	StateAwaitingFirstFragment State = iota
	StateAccumulating
	StateFinalized
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateAwaitingFirstFragment:
		return "awaiting_first_fragment"
	case StateAccumulating:
		return "accumulating"
	case StateFinalized:
		return "finalized"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// UnitKind discriminates the units a generator emits during one turn.
type UnitKind int

const (
	// UnitFragment carries the next slice of answer text.
	UnitFragment UnitKind = iota
	// UnitCitations carries a full citation snapshot. A later snapshot
	// replaces an earlier one entirely.
	UnitCitations
	// UnitStatus carries a transient progress marker. It never becomes
	// part of the persisted answer.
	UnitStatus
)

// Unit is one event in a turn's stream.
type Unit struct {
	Kind      UnitKind
	Text      string
	Citations []*evidence.Citation
	Status    string
}

var (
	ErrTurnFinalized = errors.New("turn already finalized")
	ErrTurnCancelled = errors.New("turn cancelled")
	ErrTurnNotDone   = errors.New("turn has no terminal state yet")
)

// Turn accumulates stream units into the final answer. Fragments append in
// arrival order, citation snapshots replace, status markers pass through to
// the observer only.
type Turn struct {
	state     State
	text      strings.Builder
	citations []*evidence.Citation

	// onStatus receives transient markers for live display. Optional.
	onStatus func(status string)
}

func NewTurn() *Turn {
	return &Turn{state: StateAwaitingFirstFragment}
}

// OnStatus registers the transient status observer.
func (t *Turn) OnStatus(fn func(status string)) {
	t.onStatus = fn
}

func (t *Turn) State() State { return t.state }

// Apply folds one unit into the turn.
func (t *Turn) Apply(u Unit) error {
	switch t.state {
	case StateFinalized:
		return ErrTurnFinalized
	case StateCancelled:
		return ErrTurnCancelled
	}

	switch u.Kind {
	case UnitFragment:
		t.text.WriteString(u.Text)
		t.state = StateAccumulating
	case UnitCitations:
		t.citations = u.Citations
	case UnitStatus:
		if t.onStatus != nil {
			t.onStatus(u.Status)
		}
	}
	return nil
}

// Cancel marks the turn abandoned. Accumulated text stays readable through
// Text for display but Result refuses to hand it out as a completed answer.
func (t *Turn) Cancel() {
	if t.state == StateFinalized {
		return
	}
	t.state = StateCancelled
}

// Finalize seals the turn.
func (t *Turn) Finalize() error {
	switch t.state {
	case StateCancelled:
		return ErrTurnCancelled
	case StateFinalized:
		return ErrTurnFinalized
	}
	t.state = StateFinalized
	return nil
}

// Text returns whatever has accumulated so far, in any state.
func (t *Turn) Text() string { return t.text.String() }

// Result returns the completed answer with the last citation snapshot.
// Only a finalized turn has a result.
func (t *Turn) Result() (string, []*evidence.Citation, error) {
	switch t.state {
	case StateCancelled:
		return "", nil, ErrTurnCancelled
	case StateFinalized:
		return t.text.String(), t.citations, nil
	default:
		return "", nil, ErrTurnNotDone
	}
}
