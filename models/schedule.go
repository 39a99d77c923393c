package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DaySet is a bitmask of weekdays, Monday = bit 0. Stored as a single
// integer column and exchanged over the API as ["mon","tue",...].
type DaySet uint8

const (
	Monday DaySet = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = map[string]DaySet{
	"mon": Monday,
	"tue": Tuesday,
	"wed": Wednesday,
	"thu": Thursday,
	"fri": Friday,
	"sat": Saturday,
	"sun": Sunday,
}

var dayOrder = []struct {
	name string
	bit  DaySet
}{
	{"mon", Monday}, {"tue", Tuesday}, {"wed", Wednesday},
	{"thu", Thursday}, {"fri", Friday}, {"sat", Saturday}, {"sun", Sunday},
}

// ParseDays builds a DaySet from lowercase three-letter day names.
func ParseDays(names []string) (DaySet, error) {
	var ds DaySet
	for _, n := range names {
		bit, ok := dayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown day %q", n)
		}
		ds |= bit
	}
	return ds, nil
}

func (ds DaySet) Names() []string {
	var out []string
	for _, d := range dayOrder {
		if ds&d.bit != 0 {
			out = append(out, d.name)
		}
	}
	return out
}

// Intersects reports whether the two sets share at least one day.
func (ds DaySet) Intersects(other DaySet) bool {
	return ds&other != 0
}

func (ds DaySet) IsEmpty() bool { return ds == 0 }

func (ds DaySet) MarshalJSON() ([]byte, error) {
	names := ds.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

func (ds *DaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseDays(names)
	if err != nil {
		return err
	}
	*ds = parsed
	return nil
}

// DayTime is a time of day in minutes since midnight. It marshals as
// "HH:MM" which is also how the mobile clients send departure times.
type DayTime int

func ParseDayTime(s string) (DayTime, error) {
	// time.Parse rejects trailing garbage and out-of-range components,
	// which Sscanf-style parsing silently accepts.
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return DayTime(t.Hour()*60 + t.Minute()), nil
}

func (t DayTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MinutesApart is the absolute difference between two times of day,
// wrapping around midnight (23:50 and 00:10 are 20 minutes apart).
func (t DayTime) MinutesApart(other DayTime) int {
	d := int(t) - int(other)
	if d < 0 {
		d = -d
	}
	if wrapped := 24*60 - d; wrapped < d {
		d = wrapped
	}
	return d
}

func (t DayTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DayTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDayTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Schedule is a recurring weekly departure: the set of days plus the
// departure time, with an optional expected arrival time.
type Schedule struct {
	Days      DaySet   `json:"days"`
	Departure DayTime  `json:"departure"`
	Arrival   *DayTime `json:"arrival,omitempty"`
}

// Overlaps reports whether two schedules share a day and depart within
// toleranceMin minutes of each other.
func (s Schedule) Overlaps(other Schedule, toleranceMin int) bool {
	if !s.Days.Intersects(other.Days) {
		return false
	}
	return s.Departure.MinutesApart(other.Departure) <= toleranceMin
}
