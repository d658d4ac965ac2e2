package domain

import "github.com/jonboulle/clockwork"

// clock stamps derived events (TelemetryEvent.EmittedAt). Tests and the fixture
// generator freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for derived events. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
