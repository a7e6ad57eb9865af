package chrono

import (
	"strconv"
	"time"
)

// TimeAPI is what the workflow reads the clock through, so tests can pin
// the membership numbers derived from it.
type TimeAPI interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

type StandardTime struct{}

func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().UTC()
}

// FixedTime always answers At.
type FixedTime struct {
	At time.Time
}

func (f FixedTime) Now() time.Time {
	return f.At.UTC()
}

// Func adapts a plain function to TimeAPI.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f().UTC()
}

// MillisSuffix returns the last `digits` digits of t in unix milliseconds.
func MillisSuffix(t time.Time, digits int) string {
	millis := strconv.FormatInt(t.UnixMilli(), 10)
	if digits <= 0 || len(millis) <= digits {
		return millis
	}
	return millis[len(millis)-digits:]
}
