package entity

import (
	"fmt"
	"time"

	"github.com/jgivc/earthfetch/internal/common"
)

// TimeRequest is a normalized request for data: a single timestamp, an
// explicit ordered sequence, or a closed range [t0, t1] enumerated daily.
// Fetchers that know the true cadence of their source re-stride the request
// from its bounds.
type TimeRequest struct {
	times []time.Time
}

func At(t time.Time) TimeRequest {
	return TimeRequest{times: []time.Time{t}}
}

func Sequence(times ...time.Time) TimeRequest {
	ts := make([]time.Time, len(times))
	copy(ts, times)

	return TimeRequest{times: ts}
}

// Range builds a daily-enumerated closed range. Both bounds are included.
func Range(t0, t1 time.Time) (TimeRequest, error) {
	if t1.Before(t0) {
		return TimeRequest{}, fmt.Errorf("%w: range end %s before start %s",
			common.ErrConfiguration, t1.Format(time.RFC3339), t0.Format(time.RFC3339))
	}

	var times []time.Time
	for t := t0; !t.After(t1); t = t.Add(Day) {
		times = append(times, t)
	}

	return TimeRequest{times: times}, nil
}

func (r TimeRequest) IsEmpty() bool {
	return len(r.times) == 0
}

// Times returns the explicit timestamps of the request, in order.
func (r TimeRequest) Times() []time.Time {
	ts := make([]time.Time, len(r.times))
	copy(ts, r.times)

	return ts
}

// Bounds returns the first and last timestamps of the request.
func (r TimeRequest) Bounds() (time.Time, time.Time, error) {
	if len(r.times) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty time request", common.ErrConfiguration)
	}

	return r.times[0], r.times[len(r.times)-1], nil
}
