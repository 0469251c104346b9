package services

import "time"

type Clock interface {
	Now() time.Time
	Today() string
}

type SystemClock struct {
	location *time.Location
}

func NewSystemClock(location *time.Location) *SystemClock {
	if location == nil {
		location = time.UTC
	}
	return &SystemClock{location: location}
}

func (clock *SystemClock) Now() time.Time {
	return time.Now().In(clock.location)
}

func (clock *SystemClock) Today() string {
	return FormatDateISO(clock.Now(), clock.location)
}

func (clock *SystemClock) Location() *time.Location {
	return clock.location
}
