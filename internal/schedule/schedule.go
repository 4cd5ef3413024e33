package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KrPrince19/CareNest/internal/model"
)

// Clock abstracts time retrieval so status derivation is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ParseClock parses a 12-hour wall-clock string with meridiem marker, such as
// "8:30 AM" or "12:05 pm", into minutes since midnight. Hour 12 with "AM" maps
// to 0; any other hour with "PM" gains 12.
func ParseClock(s string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return 0, fmt.Errorf("malformed clock string %q", s)
	}

	hm := strings.SplitN(fields[0], ":", 2)
	if len(hm) != 2 {
		return 0, fmt.Errorf("malformed clock string %q", s)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, fmt.Errorf("malformed hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, fmt.Errorf("malformed minute in %q: %w", s, err)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value out of range in %q", s)
	}

	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, fmt.Errorf("unknown meridiem in %q", s)
	}

	return hour*60 + minute, nil
}

// MinuteOfDay reduces an instant to its minute-of-day in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Resolve maps a medication record and the current time to its derived
// lifecycle status. An explicit "taken" confirmation always wins over the
// clock. The schedule carries no date component, so comparison is always
// same-day. A malformed or absent schedule fails open to "upcoming" rather
// than mis-flagging the dose as missed.
func Resolve(med model.Medication, now time.Time) model.DerivedStatus {
	if med.Status == model.DoseTaken {
		return model.StatusTaken
	}
	scheduled, err := ParseClock(med.Time)
	if err != nil {
		return model.StatusUpcoming
	}
	// Strictly after: the scheduled minute itself still counts as upcoming.
	if MinuteOfDay(now) > scheduled {
		return model.StatusMissed
	}
	return model.StatusUpcoming
}

// SortByClock orders medications ascending by scheduled minute-of-day. The
// sort is stable so equal times keep their input order; unparseable times
// sort last.
func SortByClock(meds []model.Medication) {
	sort.SliceStable(meds, func(i, j int) bool {
		return clockKey(meds[i]) < clockKey(meds[j])
	})
}

func clockKey(med model.Medication) int {
	key, err := ParseClock(med.Time)
	if err != nil {
		return 24 * 60
	}
	return key
}
