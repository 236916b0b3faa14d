package auditview

import "time"

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Clock schedules the debounced re-fetch
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock uses the time package
var RealClock Clock = realClock{}
