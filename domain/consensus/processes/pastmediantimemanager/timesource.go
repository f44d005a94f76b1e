package pastmediantimemanager

import (
	"time"

	"github.com/freicoin/freicoind/domain/consensus/model"
)

// timeSource provides an implementation of the TimeSource interface
// that simply returns the current local time.
type timeSource struct{}

// Now returns the current local time, with one second precision.
func (m *timeSource) Now() time.Time {
	return time.Unix(time.Now().Unix(), 0)
}

// NewTimeSource returns a new instance of a TimeSource
func NewTimeSource() model.TimeSource {
	return &timeSource{}
}

type fixedTimeSource struct {
	now time.Time
}

func (f *fixedTimeSource) Now() time.Time {
	return f.now
}

// NewFixedTimeSource returns a TimeSource that always returns now. Tests
// use it to make block time checks deterministic.
func NewFixedTimeSource(now time.Time) model.TimeSource {
	return &fixedTimeSource{now: now}
}
