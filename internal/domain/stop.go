package domain

import (
	"fmt"
	"strings"
)

// TimeWindow is an optional service interval expressed in seconds since midnight.
// Either bound may be absent; a deadline-only stop has HasStart == false.
type TimeWindow struct {
	Start    int
	End      int
	HasStart bool
	HasEnd   bool
}

func NoWindow() TimeWindow { return TimeWindow{} }

func Deadline(end int) TimeWindow { return TimeWindow{End: end, HasEnd: true} }

func OpensAt(start int) TimeWindow { return TimeWindow{Start: start, HasStart: true} }

func Between(start, end int) TimeWindow {
	return TimeWindow{Start: start, End: end, HasStart: true, HasEnd: true}
}

// Validate rejects windows whose start is not strictly before their end.
func (w TimeWindow) Validate() error {
	if w.HasStart && w.HasEnd && w.Start >= w.End {
		return fmt.Errorf("window %s-%s: %w", FormatClock(w.Start), FormatClock(w.End), ErrInvalidTimeWindow)
	}
	return nil
}

// Lateness returns how many seconds an arrival overshoots the deadline, or zero.
func (w TimeWindow) Lateness(arrival int) int {
	if !w.HasEnd || arrival <= w.End {
		return 0
	}
	return arrival - w.End
}

// Represents a single delivery point and its constraints.
// The ID is caller-assigned and stays stable for the lifetime of the stop;
// Delivered is the only field that changes after construction.
type Stop struct {
	ID        int
	Address   string
	Location  Coordinates
	Window    TimeWindow
	Delivered bool
}

// NewStop builds a pending stop, rejecting an inconsistent window.
func NewStop(id int, address string, location Coordinates, window TimeWindow) (Stop, error) {
	if err := window.Validate(); err != nil {
		return Stop{}, fmt.Errorf("new stop %d: %w", id, err)
	}

	return Stop{
		ID:       id,
		Address:  address,
		Location: location,
		Window:   window,
	}, nil
}

func (s Stop) HasDeadline() bool { return s.Window.HasEnd }

// ParseWindow builds a window from optional clock strings; an empty string
// leaves that bound absent.
func ParseWindow(start, end string) (TimeWindow, error) {
	var w TimeWindow
	if strings.TrimSpace(start) != "" {
		s, err := ParseClock(start)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("window start: %w", err)
		}
		w.Start, w.HasStart = s, true
	}
	if strings.TrimSpace(end) != "" {
		e, err := ParseClock(end)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("window end: %w", err)
		}
		w.End, w.HasEnd = e, true
	}

	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}
