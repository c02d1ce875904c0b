package reference

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// dateLayouts are tried in order. Day-first wins for ambiguous values; the
// month-first layouts only match when the first part cannot be a day-month.
// Day and month accept one or two digits.
var dateLayouts = []string{
	"2-1-2006",
	"1-2-2006",
	"2/1/2006",
	"1/2/2006",
	"2006-1-2",
	"2006-1-2 15:04:05",
	"1-2-06", // spreadsheet default short date
	"1/2/06",
}

// ParseDate parses a contact-moment date cell in the operator's local zone.
// Spreadsheet serial numbers (days since 1899-12-30) are accepted as well.
// Future dates are passed through RepairDate.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, eris.New("empty date")
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		t := xlsx.TimeFromExcelTime(serial, false)
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		return RepairDate(d, now), nil
	}

	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return RepairDate(d, now), nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognized date %q", raw)
}

// RepairDate undoes the day/month swap a US-locale spreadsheet applies to
// day-first dates: a future date whose day is 12 or less is swapped when
// the swapped date lies in the past. Anything else is returned unchanged.
func RepairDate(d, now time.Time) time.Time {
	if !d.After(now) || d.Day() > 12 {
		return d
	}
	swapped := time.Date(d.Year(), time.Month(d.Day()), int(d.Month()), d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
	if swapped.After(now) {
		return d
	}
	return swapped
}
