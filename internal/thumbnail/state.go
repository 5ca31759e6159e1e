package thumbnail

import "fmt"

// State is a step in one page's thumbnail generation.
type State int

const (
	StateRequested State = iota
	StateAssetsLoading
	StateRendering
	StateEncoding
	StateCached
	StateFailed
	StatePlaceholderReturned
)

var stateNames = [...]string{
	StateRequested:           "requested",
	StateAssetsLoading:       "assets_loading",
	StateRendering:           "rendering",
	StateEncoding:            "encoding",
	StateCached:              "cached",
	StateFailed:              "failed",
	StatePlaceholderReturned: "placeholder_returned",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCached || s == StatePlaceholderReturned
}

// transitions lists the legal successors of each state. Requested goes
// straight to Cached only on a hit for the exact size key.
var transitions = map[State][]State{
	StateRequested:     {StateAssetsLoading, StateCached, StateFailed},
	StateAssetsLoading: {StateRendering, StateFailed},
	StateRendering:     {StateEncoding, StateFailed},
	StateEncoding:      {StateCached, StateFailed},
	StateFailed:        {StatePlaceholderReturned},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateObserver is notified of every transition.
type StateObserver func(pageID string, from, to State)

type tracker struct {
	pageID   string
	state    State
	observer StateObserver
}

func newTracker(pageID string, observer StateObserver) *tracker {
	return &tracker{pageID: pageID, state: StateRequested, observer: observer}
}

// advance moves to the next state. An illegal transition is a bug in the
// generator and is reported, not applied.
func (t *tracker) advance(to State) error {
	if !CanTransition(t.state, to) {
		return fmt.Errorf("page %s: illegal transition %s -> %s", t.pageID, t.state, to)
	}
	from := t.state
	t.state = to
	if t.observer != nil {
		t.observer(t.pageID, from, to)
	}
	return nil
}

// fail moves to Failed from any non-terminal state.
func (t *tracker) fail() {
	if t.state == StateFailed || t.state.Terminal() {
		return
	}
	_ = t.advance(StateFailed)
}
