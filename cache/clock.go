package cache

import "time"

// Clock is time source used for expiry calculation and check.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var WallClock Clock = ClockFunc(time.Now)
