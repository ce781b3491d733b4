// Package validate provides pure string validators shared by the auth and
// reminder flows. All predicates are stateless and never panic on bad input.
package validate

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
	intlPhoneRe  = regexp.MustCompile(`^\+[0-9]{9,15}$`)
	digitsOnlyRe = regexp.MustCompile(`[^0-9]`)
	clockTimeRe  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// DateLayout is the calendar-date format used across the app
const DateLayout = "2006-01-02"

// Email reports whether s is a well-formed email address.
// Leading and trailing whitespace is trimmed before matching.
func Email(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// Password reports whether s satisfies the password policy.
// The policy is length-only: at least 8 characters, no character-class rule.
func Password(s string) bool {
	return len(s) >= 8
}

// Phone reports whether s is a plausible phone number: either at least
// 9 digits once separators are stripped, or international format with a
// leading + followed by 9 to 15 digits.
func Phone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "+") {
		return intlPhoneRe.MatchString("+" + digitsOnlyRe.ReplaceAllString(s[1:], ""))
	}
	return len(digitsOnlyRe.ReplaceAllString(s, "")) >= 9
}

// ClockTime reports whether s is a valid HH:MM 24-hour wall-clock time
func ClockTime(s string) bool {
	return clockTimeRe.MatchString(s)
}

// DateTodayOrFuture reports whether s parses as yyyy-MM-dd and is today
// or later. Time-of-day is zeroed on both sides before comparing.
// An unparseable string is invalid, never an error.
func DateTodayOrFuture(s string) bool {
	d, ok := parseDate(s)
	if !ok {
		return false
	}
	return !d.Before(today())
}

// DateStrictlyFuture reports whether s parses as yyyy-MM-dd and is
// strictly after today
func DateStrictlyFuture(s string) bool {
	d, ok := parseDate(s)
	if !ok {
		return false
	}
	return d.After(today())
}

func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
