// Package timebucket classifies observation timestamps into the time buckets
// used by ingestion and reliability aggregation.
package timebucket

import "time"

// DayType classifies a calendar date as weekday or weekend.
type DayType string

const (
	DayTypeWeekday DayType = "weekday"
	DayTypeWeekend DayType = "weekend"
)

// Valid reports whether d is a known day type.
func (d DayType) Valid() bool {
	return d == DayTypeWeekday || d == DayTypeWeekend
}

// Bucket is the classification of a single timestamp.
type Bucket struct {
	// DayOfWeek is the ISO day of week, 1 (Monday) through 7 (Sunday).
	DayOfWeek int

	// Hour is the local wall-clock hour, 0-23.
	Hour int

	// MinuteSlot is the quarter-hour slot: 0, 15, 30 or 45.
	MinuteSlot int

	// DayType is weekday for ISO days 1-5, weekend for 6-7.
	DayType DayType
}

// Classify maps a timestamp to its bucket in the given zone.
// All callers within one aggregation run must use the same zone; the
// classification depends only on the wall clock in that zone, so it is stable
// across daylight-saving transitions.
func Classify(t time.Time, loc *time.Location) Bucket {
	local := t.In(loc)

	day := int(local.Weekday())
	if day == 0 {
		day = 7 // time.Sunday is 0, ISO wants 7
	}

	dayType := DayTypeWeekday
	if day >= 6 {
		dayType = DayTypeWeekend
	}

	return Bucket{
		DayOfWeek:  day,
		Hour:       local.Hour(),
		MinuteSlot: (local.Minute() / 15) * 15,
		DayType:    dayType,
	}
}
