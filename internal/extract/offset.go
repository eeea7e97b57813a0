package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/worldclock/internal/model"
)

// LocalTime is a city's wall clock reading as published on the page
type LocalTime struct {
	Weekday time.Weekday
	Hour    int // 0-23
	Minute  int // 0-59
}

var weekdays = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// ParseWeekday maps a three letter day name to a weekday. Unknown names map
// to Sunday.
func ParseWeekday(s string) time.Weekday {
	if day, ok := weekdays[strings.ToUpper(s)]; ok {
		return day
	}
	return time.Sunday
}

// ParseTimeString parses a relative time such as "Thu 9:05 pm".
// Dots are ignored so "p.m." works too. Without an am/pm marker the hour is
// read as 24h.
func ParseTimeString(s string) (LocalTime, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ".", ""))
	if len(fields) < 2 {
		return LocalTime{}, false
	}

	hourStr, minuteStr, found := strings.Cut(fields[1], ":")
	if !found {
		return LocalTime{}, false
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return LocalTime{}, false
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 {
		return LocalTime{}, false
	}

	if len(fields) > 2 {
		// 12:04 am is 00:04
		hour %= 12
		if strings.ToUpper(fields[2]) == "PM" {
			hour += 12
		}
	}

	return LocalTime{
		Weekday: ParseWeekday(fields[0]),
		Hour:    hour,
		Minute:  minute,
	}, true
}

// Resolve infers a city's UTC offset from its local weekday, hour and minute
// and the current UTC instant.
func Resolve(cityDay time.Weekday, cityHour, cityMinute int, now time.Time) model.Offset {
	utc := now.UTC()
	utcDay := utc.Weekday()
	utcHour, utcMinute := utc.Hour(), utc.Minute()

	switch {
	case cityDay == utcDay:
		h := cityHour - utcHour
		m := cityMinute - utcMinute
		if h < 0 && m > 0 {
			h++
			m = 60 - m
			return west(-h*3600 + m*60)
		}
		if h == 0 && m < 0 {
			return west(-m * 60)
		}
		return east(h*3600 + m*60)

	case (cityDay+1)%7 == utcDay:
		// City is still on the previous day.
		h := utcHour + 24 - cityHour
		m := cityMinute - utcMinute
		if m > 0 {
			h--
			m = 60 - m
		} else if m < 0 {
			m = -m
		}
		return west(h*3600 + m*60)

	default:
		// City is already on the next day.
		h := cityHour + 24 - utcHour
		m := cityMinute - utcMinute
		if m < 0 {
			h--
			m += 60
		}
		return east(h*3600 + abs(m)*60)
	}
}

// ResolveLocal is Resolve for a parsed LocalTime
func ResolveLocal(lt LocalTime, now time.Time) model.Offset {
	return Resolve(lt.Weekday, lt.Hour, lt.Minute, now)
}

// ResolveTimeString parses s and resolves its offset. It reports false when
// the string is too short or cannot be parsed.
func ResolveTimeString(s string, now time.Time) (model.Offset, bool) {
	if len(s) <= 2 {
		return 0, false
	}
	lt, ok := ParseTimeString(s)
	if !ok {
		return 0, false
	}
	return ResolveLocal(lt, now), true
}

func east(seconds int) model.Offset {
	return model.Offset(seconds)
}

func west(seconds int) model.Offset {
	return model.Offset(-seconds)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
