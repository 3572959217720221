package sim

import (
	"log"
	"math"
)

// VTimeInCycle is the simulated time counted in cycles of the system clock.
type VTimeInCycle uint64

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// Seconds converts a number of cycles into time.
func (f Freq) Seconds(cycles VTimeInCycle) VTimeInSec {
	return VTimeInSec(float64(cycles)) * f.Period()
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTimeInSec) VTimeInCycle {
	if math.IsNaN(float64(time)) || time < 0 {
		log.Panic("invalid time")
	}

	return VTimeInCycle(math.Round(float64(time) * float64(f)))
}

// NextTick returns the cycle right after now.
func (f Freq) NextTick(now VTimeInCycle) VTimeInCycle {
	return now + 1
}

// NCyclesLater returns the cycle that is n cycles after now. It saturates
// instead of wrapping around.
func (f Freq) NCyclesLater(n uint64, now VTimeInCycle) VTimeInCycle {
	if uint64(now) > math.MaxUint64-n {
		return VTimeInCycle(math.MaxUint64)
	}

	return now + VTimeInCycle(n)
}
