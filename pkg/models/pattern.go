package models

import "time"

// Well-known pattern cycle lengths, in seconds.
const (
	CycleDaily  int64 = 86400
	CycleWeekly int64 = 604800
)

// TimeWindow is a slice of a pattern cycle with an expected load fraction.
// Offsets are seconds into the cycle; StartOffset is inclusive, EndOffset
// exclusive.
type TimeWindow struct {
	StartOffset  int64   `json:"start_offset"`
	EndOffset    int64   `json:"end_offset"`
	ExpectedLoad float64 `json:"expected_load"`
}

// Contains reports whether the given cycle offset falls inside the window.
func (w TimeWindow) Contains(offset int64) bool {
	return offset >= w.StartOffset && offset < w.EndOffset
}

// ServiceLoadPattern is a recurring, time-windowed load forecast for one
// service. A pattern replaces its predecessor wholly on upsert.
type ServiceLoadPattern struct {
	Service     string       `json:"service"`
	PatternType string       `json:"pattern_type"`
	TimeWindows []TimeWindow `json:"time_windows"`
	LastUpdated time.Time    `json:"last_updated"`
}

// CycleLength returns the pattern's cycle in seconds. Known pattern types
// map to their natural cycle; anything else cycles at the largest window
// end offset.
func (p *ServiceLoadPattern) CycleLength() int64 {
	switch p.PatternType {
	case "daily":
		return CycleDaily
	case "weekly":
		return CycleWeekly
	}

	var max int64
	for _, w := range p.TimeWindows {
		if w.EndOffset > max {
			max = w.EndOffset
		}
	}
	if max == 0 {
		return CycleDaily
	}
	return max
}

// WindowAt returns the first window in declaration order containing the
// given cycle offset, or false when none matches.
func (p *ServiceLoadPattern) WindowAt(offset int64) (TimeWindow, bool) {
	for _, w := range p.TimeWindows {
		if w.Contains(offset) {
			return w, true
		}
	}
	return TimeWindow{}, false
}

// Validate checks the pattern's structural invariants.
func (p *ServiceLoadPattern) Validate() error {
	if p.Service == "" {
		return NewValidationError("service", "must not be empty")
	}
	if len(p.TimeWindows) == 0 {
		return NewValidationError("time_windows", "must not be empty")
	}
	for _, w := range p.TimeWindows {
		if w.ExpectedLoad < 0 || w.ExpectedLoad > 1 {
			return NewValidationError("time_windows",
				"expected_load must be within [0,1]")
		}
		if w.StartOffset < 0 {
			return NewValidationError("time_windows", "start_offset must be >= 0")
		}
		if w.EndOffset <= w.StartOffset {
			return NewValidationError("time_windows",
				"end_offset must be greater than start_offset")
		}
	}
	return nil
}

// Clone returns a deep copy so readers never observe store-internal state.
func (p *ServiceLoadPattern) Clone() *ServiceLoadPattern {
	cp := *p
	cp.TimeWindows = make([]TimeWindow, len(p.TimeWindows))
	copy(cp.TimeWindows, p.TimeWindows)
	return &cp
}
