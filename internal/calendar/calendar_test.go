package calendar

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLinear_DateOf(t *testing.T) {
	l := NewLinear(day(2026, 1, 5), 4)
	for _, tc := range []struct {
		col  int
		want time.Time
	}{
		{1, day(2026, 1, 5)},
		{4, day(2026, 1, 5)},
		{5, day(2026, 1, 6)},
		{84, day(2026, 1, 25)},
		{0, day(2026, 1, 4)},
		{-3, day(2026, 1, 4)},
		{-4, day(2026, 1, 3)},
	} {
		if got := l.DateOf(tc.col); !got.Equal(tc.want) {
			t.Errorf("DateOf(%d) = %s, want %s", tc.col, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestLinear_ColumnOf(t *testing.T) {
	l := NewLinear(time.Date(2026, 1, 5, 15, 30, 0, 0, time.UTC), 0)
	if l.SlotsPerDay != DefaultSlotsPerDay {
		t.Fatalf("SlotsPerDay = %d, want default", l.SlotsPerDay)
	}
	for _, tc := range []struct {
		date time.Time
		want int
	}{
		{day(2026, 1, 5), 1},
		{day(2026, 1, 6), 5},
		{time.Date(2026, 1, 7, 18, 0, 0, 0, time.UTC), 9},
		{day(2026, 1, 4), -3},
	} {
		if got := l.ColumnOf(tc.date); got != tc.want {
			t.Errorf("ColumnOf(%s) = %d, want %d", tc.date, got, tc.want)
		}
	}
}

func TestLinear_RoundTrip(t *testing.T) {
	l := NewLinear(day(2026, 3, 2), 4)
	for col := -20; col <= 200; col += 4 {
		d := l.DateOf(col)
		first := l.ColumnOf(d)
		if !l.DateOf(first).Equal(d) || first > col || col-first >= 4 {
			t.Fatalf("column %d -> %s -> %d", col, d.Format("2006-01-02"), first)
		}
	}
}
