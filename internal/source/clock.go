package source

import "github.com/jonboulle/clockwork"

// clock stamps extraction-time rows (station metadata, synthetic fallbacks)
// so connector output is assertable under a fake clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the connectors' time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
