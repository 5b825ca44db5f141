package timing

import "github.com/sarchlab/randloop/sim/hooking"

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInTick
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run will process all the events until the queue drains.
	Run() error

	// RunUntil processes every event scheduled at or before t and then
	// moves the current time to t.
	RunUntil(t VTimeInTick) error

	// Pending returns the number of events that are waiting to be handled.
	Pending() int

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation
	Continue()
}
