package attendance

import (
	"testing"
	"time"

	"fingerattend/internal/model"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		success, total, want int
	}{
		{0, 0, 0},
		{2, 3, 67},
		{1, 3, 33},
		{3, 4, 75},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := Percent(tc.success, tc.total); got != tc.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tc.success, tc.total, got, tc.want)
		}
	}
}

func TestCourseStanding(t *testing.T) {
	logs := []model.AttendanceLog{
		{SubjectCode: "CS201", Result: model.ResultSuccess},
		{SubjectCode: "cs201", Result: model.ResultSuccess},
		{SubjectCode: "CS201", Result: model.ResultFailed},
		{SubjectCode: "CS305", Result: model.ResultSuccess},
	}
	c := NewCalculator(0)
	if c.GoodPercent() != DefaultGoodPercent {
		t.Fatalf("threshold = %d", c.GoodPercent())
	}

	st := c.Course(logs, "CS201")
	if st.Attended != 2 || st.Total != 3 || st.Percent != 67 || st.Standing != Low {
		t.Errorf("CS201 = %+v", st)
	}
	if st := c.Course(logs, "MA100"); st.Percent != 0 || st.Total != 0 || st.Standing != Low {
		t.Errorf("course without logs = %+v", st)
	}

	stats := c.Courses(logs, []string{"CS305", "CS201"})
	if stats[0].Code != "CS305" || stats[0].Standing != Good {
		t.Errorf("stats = %+v", stats)
	}
	if n := c.LowCount(stats); n != 1 {
		t.Errorf("low count = %d", n)
	}
	if NewCalculator(60).Course(logs, "CS201").Standing != Good {
		t.Errorf("custom threshold ignored")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.AttendanceLog{
		{Result: model.ResultSuccess},
		{Result: model.ResultFailed},
		{Result: model.ResultSuccess},
		{Result: model.ResultSuccess},
	})
	if s != (Summary{Attended: 3, Missed: 1, Total: 4, Percentage: 75}) {
		t.Errorf("summary = %+v", s)
	}
	if s := Summarize(nil); s.Percentage != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestScannedToday(t *testing.T) {
	now := time.Date(2025, 5, 6, 14, 0, 0, 0, time.UTC)
	logs := []model.AttendanceLog{
		{Date: "2025-05-05", Result: model.ResultSuccess},
		{Date: "2025-05-06T09:10:00", Result: model.ResultFailed},
	}
	if ScannedToday(logs, now) {
		t.Errorf("failed scan must not count")
	}
	logs = append(logs, model.AttendanceLog{Date: "2025-05-06T11:00:00", Result: model.ResultSuccess})
	if !ScannedToday(logs, now) {
		t.Errorf("successful scan today not detected")
	}
}
