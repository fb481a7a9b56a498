package utils

import (
	"reflect"
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	ShortDateLayout = "Mon, Jan 2"
	isoMillisLayout = "2006-01-02T15:04:05.000Z07:00"
)

func NowUTC() int64 {
	return time.Now().
		UTC().
		UnixMilli()
}

// FormatTimestamp renders t the way notification timestamps are stored,
// e.g. 2023-06-14T10:00:00.000Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(isoMillisLayout)
}

// FormatShortDate turns 2023-06-15 into "Thu, Jun 15". Input that is not
// an ISO date is returned unchanged.
func FormatShortDate(isoDate string) string {
	t, err := time.Parse(DateLayout, isoDate)
	if err != nil {
		return isoDate
	}
	return t.Format(ShortDateLayout)
}

// ClockWithSeconds turns an "HH:MM" input into "HH:MM:00". Display times
// such as "2:30 PM" are kept as they are.
func ClockWithSeconds(clock string) string {
	if _, err := time.Parse("15:04", clock); err == nil {
		return clock + ":00"
	}
	return clock
}

var clockLayouts = []string{
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
}

// IsClock reports whether s is a 24h "HH:MM" time or a display time like
// "2:30 PM".
func IsClock(s string) bool {
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

var preferredDateLayouts = []string{
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
}

var preferredDayLayouts = []string{
	"January 2",
	"Jan 2",
}

// ParsePreferredSlot splits a free-text preferred slot such as
// "Tomorrow, 10:00 AM" or "June 20, 2:30 PM" into an ISO date and a display
// time. A time is only split off when the text after the last ", " reads as
// a clock, so "June 20, 2024" stays a date. Dates that cannot be understood
// resolve to today.
func ParsePreferredSlot(text string, now time.Time) (date string, clock string) {
	text = strings.TrimSpace(text)
	if day, ok := resolveDay(text, now); ok {
		return day.Format(DateLayout), ""
	}

	day := text
	if idx := strings.LastIndex(text, ", "); idx >= 0 {
		if tail := strings.TrimSpace(text[idx+2:]); IsClock(tail) {
			day = strings.TrimSpace(text[:idx])
			clock = tail
		}
	}
	resolved, ok := resolveDay(day, now)
	if !ok {
		resolved = now
	}
	return resolved.Format(DateLayout), clock
}

func resolveDay(day string, now time.Time) (time.Time, bool) {
	switch strings.ToLower(day) {
	case "today":
		return now, true
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	}

	if t, err := time.Parse(DateLayout, day); err == nil {
		return t, true
	}
	for _, layout := range preferredDateLayouts {
		if t, err := time.Parse(layout, day); err == nil {
			return t, true
		}
	}
	for _, layout := range preferredDayLayouts {
		if t, err := time.Parse(layout, day); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), true
		}
	}
	return time.Time{}, false
}

func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("sanitize: expected pointer to struct")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		panic("sanitize: expected struct")
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(sanitizeString(field.String()))

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					field.Index(j).SetString(sanitizeString(field.Index(j).String()))
				}
			}
		}
	}
}

func sanitizeString(s string) string {
	return strings.TrimSpace(s)
}
