// Package datetime implements the calendar value described in spec §4.M4:
// explicit year/month/day/hour/minute/second/millisecond fields, a
// timezone offset, and a precision bitmask recording which fields were
// actually populated by the parser that produced the value.
package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Precision records which calendar fields a DateTime actually carries.
type Precision uint8

const (
	HasDate Precision = 1 << iota
	HasTime
	HasSeconds
	HasMillis
	HasTimezone
)

// FormatHint names the parser of origin so that re-serialization can
// reproduce the source dialect (§4.M4, §6.4).
type FormatHint uint8

const (
	HintNone FormatHint = iota
	HintISO8601
	HintICS
	HintRFC2822
	HintHuman
)

// DateTime is the calendar value of §4.M4.
type DateTime struct {
	Year, Month, Day          int
	Hour, Minute, Second      int
	Millisecond               int
	TZOffsetMinutes           int
	IsUTC                     bool
	Precision                 Precision
	Hint                      FormatHint
}

var daysInMonth = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func daysIn(year, month int) int {
	if month == 2 && isLeap(year) {
		return 29
	}
	return daysInMonth[month-1]
}

// Valid reports whether every populated field is within the bounds of
// §3.6/§4.M4: year 1..9999, month 1..12, day within month (leap-aware),
// hour 0..23, minute 0..59, second 0..59, millisecond 0..999, timezone
// offset -720..+840 minutes.
func (d DateTime) Valid() bool {
	if d.Precision&HasDate != 0 {
		if d.Year < 1 || d.Year > 9999 {
			return false
		}
		if d.Month < 1 || d.Month > 12 {
			return false
		}
		if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
			return false
		}
	}
	if d.Precision&HasTime != 0 {
		if d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59 {
			return false
		}
	}
	if d.Precision&HasSeconds != 0 && (d.Second < 0 || d.Second > 59) {
		return false
	}
	if d.Precision&HasMillis != 0 && (d.Millisecond < 0 || d.Millisecond > 999) {
		return false
	}
	if d.Precision&HasTimezone != 0 && (d.TZOffsetMinutes < -720 || d.TZOffsetMinutes > 840) {
		return false
	}
	return true
}

// Now returns the current instant with full precision, UTC.
func Now() DateTime {
	return FromTime(time.Now().UTC())
}

// FromTime converts a standard library time.Time, preserving its offset.
func FromTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Millisecond:     t.Nanosecond() / 1e6,
		TZOffsetMinutes: offset / 60,
		IsUTC:           offset == 0,
		Precision:       HasDate | HasTime | HasSeconds | HasMillis | HasTimezone,
	}
}

// FromUnix builds a UTC DateTime from a Unix instant, with second
// precision (plus milliseconds when nsec carries sub-second detail).
func FromUnix(sec int64, nsec int64) DateTime {
	t := time.Unix(sec, nsec).UTC()
	d := FromTime(t)
	d.IsUTC = true
	d.TZOffsetMinutes = 0
	return d
}

// ToUnix returns the UTC instant as Unix seconds and nanoseconds.
func (d DateTime) ToUnix() (sec int64, nsec int64) {
	loc := time.FixedZone("", d.TZOffsetMinutes*60)
	t := time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second,
		d.Millisecond*1e6, loc)
	return t.Unix(), int64(t.Nanosecond())
}

// Compare orders two DateTimes by UTC instant; datetimes lacking a
// timezone are treated as if already UTC (§4.M4).
func Compare(a, b DateTime) int {
	as, an := a.ToUnix()
	bs, bn := b.ToUnix()
	switch {
	case as < bs, as == bs && an < bn:
		return -1
	case as == bs && an == bn:
		return 0
	default:
		return 1
	}
}

// AddSeconds adds n seconds to the instant. This is resolved (§9.2 open
// question) as instant arithmetic: the result is rebuilt through FromUnix,
// which forces UTC — a timezone-preserving calendar addition was
// considered and rejected; see DESIGN.md for the reasoning.
func (d DateTime) AddSeconds(n int64) DateTime {
	sec, nsec := d.ToUnix()
	return FromUnix(sec+n, nsec)
}

// ToUTC converts to an equivalent DateTime with TZOffsetMinutes == 0.
func (d DateTime) ToUTC() DateTime {
	sec, nsec := d.ToUnix()
	r := FromUnix(sec, nsec)
	r.Precision = d.Precision
	r.Hint = d.Hint
	return r
}

// ToLocal reinterprets the instant at the given offset, without changing
// which instant it names.
func (d DateTime) ToLocal(offsetMinutes int) DateTime {
	sec, nsec := d.ToUnix()
	loc := time.FixedZone("", offsetMinutes*60)
	t := time.Unix(sec, nsec).In(loc)
	r := FromTime(t)
	r.IsUTC = offsetMinutes == 0
	r.Precision = d.Precision
	r.Hint = d.Hint
	return r
}

var iso8601RE = regexp.MustCompile(
	`^(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{2}):(\d{2})(?::(\d{2})(?:\.(\d{1,9}))?)?(Z|[+-]\d{2}:?\d{2})?)?$`)

// ParseISO8601 parses a date or date-time in ISO-8601 form, recording
// precision from which groups were present.
func ParseISO8601(s string) (DateTime, error) {
	m := iso8601RE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return DateTime{}, fmt.Errorf("datetime: %q is not valid ISO-8601", s)
	}
	var d DateTime
	d.Hint = HintISO8601
	d.Year, _ = strconv.Atoi(m[1])
	d.Month, _ = strconv.Atoi(m[2])
	d.Day, _ = strconv.Atoi(m[3])
	d.Precision |= HasDate
	if m[4] != "" {
		d.Hour, _ = strconv.Atoi(m[4])
		d.Minute, _ = strconv.Atoi(m[5])
		d.Precision |= HasTime
		if m[6] != "" {
			d.Second, _ = strconv.Atoi(m[6])
			d.Precision |= HasSeconds
		}
		if m[7] != "" {
			frac := (m[7] + "000")[:3]
			d.Millisecond, _ = strconv.Atoi(frac)
			d.Precision |= HasMillis
		}
		if m[8] != "" {
			d.Precision |= HasTimezone
			if m[8] == "Z" {
				d.IsUTC = true
			} else {
				off := strings.ReplaceAll(m[8], ":", "")
				sign := 1
				if off[0] == '-' {
					sign = -1
				}
				hh, _ := strconv.Atoi(off[1:3])
				mm, _ := strconv.Atoi(off[3:5])
				d.TZOffsetMinutes = sign * (hh*60 + mm)
			}
		}
	}
	if !d.Valid() {
		return DateTime{}, fmt.Errorf("datetime: %q has an out-of-range field", s)
	}
	return d, nil
}

// icsRE matches the iCalendar DATE or DATE-TIME value form, e.g.
// 20240131 or 20240131T235959Z.
var icsRE = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(?:T(\d{2})(\d{2})(\d{2})(Z)?)?$`)

// ParseICS parses an iCalendar DATE or DATE-TIME value.
func ParseICS(s string) (DateTime, error) {
	m := icsRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return DateTime{}, fmt.Errorf("datetime: %q is not a valid ICS datetime", s)
	}
	var d DateTime
	d.Hint = HintICS
	d.Year, _ = strconv.Atoi(m[1])
	d.Month, _ = strconv.Atoi(m[2])
	d.Day, _ = strconv.Atoi(m[3])
	d.Precision |= HasDate
	if m[4] != "" {
		d.Hour, _ = strconv.Atoi(m[4])
		d.Minute, _ = strconv.Atoi(m[5])
		d.Second, _ = strconv.Atoi(m[6])
		d.Precision |= HasTime | HasSeconds
		if m[7] == "Z" {
			d.IsUTC = true
			d.Precision |= HasTimezone
		}
	}
	if !d.Valid() {
		return DateTime{}, fmt.Errorf("datetime: %q has an out-of-range field", s)
	}
	return d, nil
}

// FormatISO8601 renders d using the precision it actually carries.
func (d DateTime) FormatISO8601() string {
	var b strings.Builder
	if d.Precision&HasDate != 0 {
		fmt.Fprintf(&b, "%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	if d.Precision&HasTime != 0 {
		fmt.Fprintf(&b, "T%02d:%02d", d.Hour, d.Minute)
		if d.Precision&HasSeconds != 0 {
			fmt.Fprintf(&b, ":%02d", d.Second)
			if d.Precision&HasMillis != 0 {
				fmt.Fprintf(&b, ".%03d", d.Millisecond)
			}
		}
		if d.Precision&HasTimezone != 0 {
			if d.IsUTC {
				b.WriteByte('Z')
			} else {
				sign := byte('+')
				off := d.TZOffsetMinutes
				if off < 0 {
					sign = '-'
					off = -off
				}
				fmt.Fprintf(&b, "%c%02d:%02d", sign, off/60, off%60)
			}
		}
	}
	return b.String()
}

// FormatICS renders d in iCalendar DATE/DATE-TIME form.
func (d DateTime) FormatICS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d%02d%02d", d.Year, d.Month, d.Day)
	if d.Precision&HasTime != 0 {
		fmt.Fprintf(&b, "T%02d%02d%02d", d.Hour, d.Minute, d.Second)
		if d.Precision&HasTimezone != 0 && d.IsUTC {
			b.WriteByte('Z')
		}
	}
	return b.String()
}

var monthNames = [...]string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

// FormatHuman renders a loose, human-readable form, ignoring precision
// below the day.
func (d DateTime) FormatHuman() string {
	if d.Month < 1 || d.Month > 12 {
		return d.FormatISO8601()
	}
	s := fmt.Sprintf("%s %d, %04d", monthNames[d.Month-1], d.Day, d.Year)
	if d.Precision&HasTime != 0 {
		s += fmt.Sprintf(" %02d:%02d", d.Hour, d.Minute)
	}
	return s
}
