package weekday

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFromNumber(t *testing.T) {
	cases := map[int]Day{
		0:  Unknown,
		1:  Saturday,
		2:  Sunday,
		6:  Thursday,
		7:  Unknown,
		-1: Unknown,
	}
	for n, want := range cases {
		if got := FromNumber(n); got != want {
			t.Errorf("FromNumber(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, d := range Week() {
		if got := Parse(d.String()); got != d {
			t.Errorf("Parse(%q) = %v", d.String(), got)
		}
		if got := FromNumber(d.Number()); got != d {
			t.Errorf("FromNumber(%d) = %v", d.Number(), got)
		}
	}
	if Parse("friday") != Unknown {
		t.Errorf("friday must be unknown")
	}
	if Parse("monday") != Monday {
		t.Errorf("parse is case-insensitive")
	}
	if Parse("3") != Monday {
		t.Errorf("numeric names decode through the wire table")
	}
}

func TestWeekOrder(t *testing.T) {
	w := Week()
	want := []string{"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"}
	if len(w) != len(want) {
		t.Fatalf("week has %d days", len(w))
	}
	for i, d := range w {
		if d.String() != want[i] {
			t.Errorf("day %d = %s, want %s", i, d, want[i])
		}
	}
	w[0] = Thursday
	if Week()[0] != Saturday {
		t.Errorf("Week must return a copy")
	}
}

func TestOf(t *testing.T) {
	// 2025-05-03 was a Saturday, 2025-05-09 a Friday.
	sat := time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC)
	if Of(sat) != Saturday {
		t.Errorf("Of(saturday) = %v", Of(sat))
	}
	fri := time.Date(2025, 5, 9, 10, 0, 0, 0, time.UTC)
	if Of(fri) != Unknown {
		t.Errorf("Of(friday) = %v", Of(fri))
	}
}

func TestClock(t *testing.T) {
	cases := map[string]string{
		"09:00":    "09:00",
		"9:5":      "09:05",
		"08:30:00": "08:30",
		"9:00 AM":  "09:00",
		"12:15 AM": "00:15",
		"1:45 PM":  "13:45",
		"12:00 PM": "12:00",
		"":         "",
		"soon":     "soon",
		"25:00":    "25:00",
	}
	for in, want := range cases {
		if got := Clock(in); got != want {
			t.Errorf("Clock(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClockFromTicks(t *testing.T) {
	// 09:30 as a TimeSpan.
	ticks := int64((9*60 + 30) * ticksPerMinute)
	if got := ClockFromTicks(ticks); got != "09:30" {
		t.Errorf("ClockFromTicks = %q", got)
	}
	if got := WireClock("9:30"); got != "09:30:00" {
		t.Errorf("WireClock = %q", got)
	}
}

func TestDayAsJSONKey(t *testing.T) {
	b, err := json.Marshal(map[Day]int{Saturday: 2, Unknown: 1})
	if err != nil {
		t.Fatal(err)
	}
	var back map[Day]int
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back[Saturday] != 2 || back[Unknown] != 1 {
		t.Errorf("round trip lost keys: %s", b)
	}
}
