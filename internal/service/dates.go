package service

import (
	"fmt"
	"strings"
	"time"
)

func beginningOfDay(t time.Time) time.Time {
	lt := t.In(time.Local)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.Local)
}

func dayKey(t time.Time) string {
	return beginningOfDay(t).Format("2006-01-02")
}

// ParseDay accepts a date-only value ("2006-01-02") or a full RFC 3339
// timestamp and normalizes it to the start of the local calendar day.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return beginningOfDay(time.Now()), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return beginningOfDay(t), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD or RFC 3339 timestamp)", value)
}
