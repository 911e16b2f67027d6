package domain

import (
	"errors"
	"testing"
)

func TestNewStopRejectsInvertedWindow(t *testing.T) {
	cases := []TimeWindow{
		Between(36000, 36000),
		Between(36000, 30000),
	}

	for _, w := range cases {
		_, err := NewStop(1, "A", Coordinates{}, w)
		if !errors.Is(err, ErrInvalidTimeWindow) {
			t.Fatalf("window %+v: err = %v, want ErrInvalidTimeWindow", w, err)
		}
	}
}

func TestNewStopAcceptsPartialWindows(t *testing.T) {
	for _, w := range []TimeWindow{NoWindow(), Deadline(32400), OpensAt(32400), Between(28800, 32400)} {
		s, err := NewStop(7, "B", Coordinates{Lat: 52.2, Lon: 21.0}, w)
		if err != nil {
			t.Fatalf("window %+v: unexpected error: %v", w, err)
		}
		if s.Delivered {
			t.Fatalf("new stop should be pending")
		}
		if s.HasDeadline() != w.HasEnd {
			t.Fatalf("HasDeadline = %v, want %v", s.HasDeadline(), w.HasEnd)
		}
	}
}

func TestTimeWindowLateness(t *testing.T) {
	w := Deadline(36000)
	if got := w.Lateness(35000); got != 0 {
		t.Fatalf("early lateness = %d, want 0", got)
	}
	if got := w.Lateness(36600); got != 600 {
		t.Fatalf("late lateness = %d, want 600", got)
	}
	if got := NoWindow().Lateness(99999); got != 0 {
		t.Fatalf("no window lateness = %d, want 0", got)
	}
}

func TestParseClock(t *testing.T) {
	good := map[string]int{
		"08:00":    28800,
		"9:30":     34200,
		"23:59:59": 86399,
		" 00:00 ":  0,
	}
	for in, want := range good {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "8", "24:00", "10:60", "aa:bb", "10:00:00:00", "100:00", "+8:00", "-0:30", "08:+5", "8 :00"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("ParseClock(%q): err = %v, want ErrInvalidClock", in, err)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(34200); got != "09:30" {
		t.Fatalf("FormatClock = %q, want 09:30", got)
	}
	if got := FormatClock(SecondsPerDay + 600); got != "24:10" {
		t.Fatalf("FormatClock past midnight = %q, want 24:10", got)
	}
}

func TestCoordinatesValid(t *testing.T) {
	if !(Coordinates{Lat: 52.2297, Lon: 21.0122}).Valid() {
		t.Fatalf("expected Warsaw coordinates to be valid")
	}
	if (Coordinates{Lat: 91, Lon: 0}).Valid() {
		t.Fatalf("expected latitude 91 to be invalid")
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("", "09:30")
	if err != nil {
		t.Fatalf("ParseWindow deadline: %v", err)
	}
	if w.HasStart || !w.HasEnd || w.End != 9*3600+1800 {
		t.Fatalf("ParseWindow deadline = %+v", w)
	}

	w, err = ParseWindow("  ", "")
	if err != nil || w != NoWindow() {
		t.Fatalf("ParseWindow empty = %+v, %v", w, err)
	}

	if _, err := ParseWindow("10:00", "09:00"); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("inverted err = %v, want ErrInvalidTimeWindow", err)
	}
	if _, err := ParseWindow("9am", ""); !errors.Is(err, ErrInvalidClock) {
		t.Fatalf("malformed err = %v, want ErrInvalidClock", err)
	}
}
