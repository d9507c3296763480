// Package clock provides an injectable time source so that bucket-boundary
// logic stays deterministic under test.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock is the single way the accounting engine reads "now".
type Clock interface {
	Now() time.Time
}

// Module provides the system clock.
var Module = fx.Provide(NewSystemClock)

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
