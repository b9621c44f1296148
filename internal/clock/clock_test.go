package clock

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestCalendar_TodayUsesReferenceZone(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")
	// 22:30 UTC is already the next day in Moscow (UTC+3).
	instant := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)
	cal := NewCalendar(moscow, func() time.Time { return instant })

	got := cal.Today()
	want := Date{Year: 2025, Month: time.March, Day: 11}
	if got != want {
		t.Errorf("Today() = %s, want %s", got, want)
	}
}

func TestCalendar_NextReset(t *testing.T) {
	moscow := mustLoad(t, "Europe/Moscow")
	instant := time.Date(2025, 12, 31, 12, 0, 0, 0, moscow)
	cal := NewCalendar(moscow, func() time.Time { return instant })

	got := cal.NextReset()
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, moscow)
	if !got.Equal(want) {
		t.Errorf("NextReset() = %v, want %v", got, want)
	}
	if got.Location() != moscow {
		t.Errorf("NextReset() location = %v, want %v", got.Location(), moscow)
	}
}

func TestDate_AddDaysAcrossMonth(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("AddDays(1) = %s, want 2024-02-29", got)
	}
	if got := d.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("AddDays(2) = %s, want 2024-03-01", got)
	}
	if got := d.AddDays(-28).String(); got != "2024-01-31" {
		t.Errorf("AddDays(-28) = %s, want 2024-01-31", got)
	}
}

func TestDate_ScanValue(t *testing.T) {
	d := Date{Year: 2025, Month: time.July, Day: 4}
	v, err := d.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var back Date
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if back != d {
		t.Errorf("Scan(Value()) = %s, want %s", back, d)
	}

	if err := back.Scan([]byte("2025-07-05 00:00:00")); err != nil {
		t.Fatalf("Scan([]byte) error: %v", err)
	}
	if back.Day != 5 {
		t.Errorf("Scan([]byte) day = %d, want 5", back.Day)
	}

	if err := back.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestDate_Before(t *testing.T) {
	a := Date{Year: 2025, Month: time.January, Day: 31}
	b := a.AddDays(1)
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Errorf("Before() ordering wrong for %s and %s", a, b)
	}
}
