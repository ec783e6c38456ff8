package model

import "time"

// Level is a bar or strategy cadence.
type Level int

const (
	Minute1 Level = iota
	Minute3
	Minute5
	Minute15
	Minute30
	Hour1
	Hour2
	Hour4
	Hour6
	Hour12
	Day1
	Day3
	Week1
	Month1
)

var levelNames = map[Level]string{
	Minute1: "1m", Minute3: "3m", Minute5: "5m", Minute15: "15m", Minute30: "30m",
	Hour1: "1h", Hour2: "2h", Hour4: "4h", Hour6: "6h", Hour12: "12h",
	Day1: "1d", Day3: "3d", Week1: "1w", Month1: "1M",
}

// String implements fmt.Stringer.
func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "unknown"
}

// fixedMillis holds every level's duration except Month1, whose length
// depends on the current calendar month.
var fixedMillis = map[Level]int64{
	Minute1:  1000 * 60,
	Minute3:  1000 * 60 * 3,
	Minute5:  1000 * 60 * 5,
	Minute15: 1000 * 60 * 15,
	Minute30: 1000 * 60 * 30,
	Hour1:    1000 * 60 * 60,
	Hour2:    1000 * 60 * 60 * 2,
	Hour4:    1000 * 60 * 60 * 4,
	Hour6:    1000 * 60 * 60 * 6,
	Hour12:   1000 * 60 * 60 * 12,
	Day1:     1000 * 60 * 60 * 24,
	Day3:     1000 * 60 * 60 * 24 * 3,
	Week1:    1000 * 60 * 60 * 24 * 7,
}

// Millis returns the level's duration in milliseconds as of timeMillis. Every
// level except Month1 is a fixed duration; Month1 is the length of the
// calendar month containing timeMillis.
func (l Level) Millis(timeMillis int64) int64 {
	if l == Month1 {
		t := time.UnixMilli(timeMillis).UTC()
		firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		firstOfNext := firstOfMonth.AddDate(0, 1, 0)
		return firstOfNext.Sub(firstOfMonth).Milliseconds()
	}
	return fixedMillis[l]
}

// Rank orders levels from finest to coarsest, so a strategy level can be
// compared against a bar level ("strategy level must be >= bar level").
func (l Level) Rank() int { return int(l) }

// PeriodStart reports whether timeMillis is the first bar of its period at
// this level: (T - dayStart(T)) mod periodMillis == 0, so sub-day periods
// align to UTC midnight and Month1 aligns to the first day of the calendar
// month.
func (l Level) PeriodStart(timeMillis int64) bool {
	t := time.UnixMilli(timeMillis).UTC()
	if l == Month1 {
		return t.Day() == 1 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	}
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).UnixMilli()
	period := l.Millis(timeMillis)
	if period <= 0 {
		return true
	}
	return (timeMillis-dayStart)%period == 0
}
