// Package timeline records state transitions keyed by transport time.
package timeline

import (
	"sort"
	"sync"

	"github.com/sarchlab/randloop/sim/timing"
)

// State is the playback state of a transport-synchronized object.
type State int

// The states an object can be in.
const (
	Stopped State = iota
	Started
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Started:
		return "started"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Entry is a transition into State at Time.
type Entry struct {
	Time  timing.VTimeInTick
	State State
}

// StateTimeline keeps the transitions of one object, ordered by time. Several
// transitions may share a time; the one added last wins.
type StateTimeline struct {
	lock    sync.RWMutex
	initial State
	entries []Entry
}

// NewStateTimeline creates a timeline whose state before any transition is
// initial.
func NewStateTimeline(initial State) *StateTimeline {
	return &StateTimeline{initial: initial}
}

// SetStateAtTime records a transition into state at t.
func (tl *StateTimeline) SetStateAtTime(state State, t timing.VTimeInTick) {
	tl.lock.Lock()
	defer tl.lock.Unlock()

	i := tl.upperBound(t)
	tl.entries = append(tl.entries, Entry{})
	copy(tl.entries[i+1:], tl.entries[i:])
	tl.entries[i] = Entry{Time: t, State: state}
}

// StateAt returns the state in effect at t.
func (tl *StateTimeline) StateAt(t timing.VTimeInTick) State {
	tl.lock.RLock()
	defer tl.lock.RUnlock()

	i := tl.upperBound(t)
	if i == 0 {
		return tl.initial
	}

	return tl.entries[i-1].State
}

// LastState returns the latest transition into state at or before t.
func (tl *StateTimeline) LastState(
	state State,
	t timing.VTimeInTick,
) (Entry, bool) {
	tl.lock.RLock()
	defer tl.lock.RUnlock()

	for i := tl.upperBound(t) - 1; i >= 0; i-- {
		if tl.entries[i].State == state {
			return tl.entries[i], true
		}
	}

	return Entry{}, false
}

// NextState returns the earliest transition into state strictly after t.
func (tl *StateTimeline) NextState(
	state State,
	t timing.VTimeInTick,
) (Entry, bool) {
	tl.lock.RLock()
	defer tl.lock.RUnlock()

	for i := tl.upperBound(t); i < len(tl.entries); i++ {
		if tl.entries[i].State == state {
			return tl.entries[i], true
		}
	}

	return Entry{}, false
}

// Cancel removes every transition at or after t.
func (tl *StateTimeline) Cancel(t timing.VTimeInTick) {
	tl.lock.Lock()
	defer tl.lock.Unlock()

	i := sort.Search(len(tl.entries), func(i int) bool {
		return tl.entries[i].Time >= t
	})
	tl.entries = tl.entries[:i]
}

// Len returns the number of recorded transitions.
func (tl *StateTimeline) Len() int {
	tl.lock.RLock()
	defer tl.lock.RUnlock()

	return len(tl.entries)
}

// upperBound returns the index of the first entry later than t.
func (tl *StateTimeline) upperBound(t timing.VTimeInTick) int {
	return sort.Search(len(tl.entries), func(i int) bool {
		return tl.entries[i].Time > t
	})
}
