package validate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"plain address", "user@example.com", true},
		{"missing tld", "user@example", false},
		{"surrounding whitespace is trimmed", "  user@example.com  ", true},
		{"empty string", "", false},
		{"uppercase tld", "USER@EXAMPLE.COM", true},
		{"single char tld", "user@example.c", false},
		{"missing local part", "@example.com", false},
		{"space inside", "us er@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Email(tt.email))
		})
	}
}

func TestPassword(t *testing.T) {
	assert.False(t, Password("1234567"), "7 characters should be invalid")
	assert.True(t, Password("12345678"), "8 characters should be valid")

	// The policy is length-only: eight spaces pass. This documents the
	// source's permissiveness rather than endorsing it.
	assert.True(t, Password("        "))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"nine digits", "123456789", true},
		{"eight digits", "12345678", false},
		{"digits with separators", "12-34-56-78-9", true},
		{"international", "+34123456789", true},
		{"international too short", "+12345678", false},
		{"international sixteen digits", "+1234567890123456", false},
		{"empty", "", false},
		{"plus only", "+", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Phone(tt.phone))
		})
	}
}

func TestClockTime(t *testing.T) {
	valid := []string{"00:00", "08:00", "12:30", "20:00", "23:59"}
	for _, v := range valid {
		assert.True(t, ClockTime(v), v)
	}

	invalid := []string{"24:00", "8:00", "12:60", "12:5", "ab:cd", "", "12:345", "12-30"}
	for _, v := range invalid {
		assert.False(t, ClockTime(v), v)
	}
}

func TestClockTime_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("accepts every in-range HH:MM", prop.ForAll(
		func(hour, minute int) bool {
			return ClockTime(fmt.Sprintf("%02d:%02d", hour, minute))
		},
		gen.IntRange(0, 23),
		gen.IntRange(0, 59),
	))

	properties.Property("rejects out-of-range hours", prop.ForAll(
		func(hour, minute int) bool {
			return !ClockTime(fmt.Sprintf("%02d:%02d", hour, minute))
		},
		gen.IntRange(24, 99),
		gen.IntRange(0, 59),
	))

	properties.Property("rejects out-of-range minutes", prop.ForAll(
		func(hour, minute int) bool {
			return !ClockTime(fmt.Sprintf("%02d:%02d", hour, minute))
		},
		gen.IntRange(0, 23),
		gen.IntRange(60, 99),
	))

	properties.TestingRun(t)
}

func TestDateValidators(t *testing.T) {
	today := time.Now().Format(DateLayout)
	tomorrow := time.Now().AddDate(0, 0, 1).Format(DateLayout)
	yesterday := time.Now().AddDate(0, 0, -1).Format(DateLayout)

	assert.True(t, DateTodayOrFuture(today))
	assert.True(t, DateTodayOrFuture(tomorrow))
	assert.False(t, DateTodayOrFuture(yesterday))

	assert.False(t, DateStrictlyFuture(today))
	assert.True(t, DateStrictlyFuture(tomorrow))
	assert.False(t, DateStrictlyFuture(yesterday))
}

func TestDateValidators_UnparseableIsInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "2026-13-01", "01-02-2026", "2026/01/02", strings.Repeat("9", 40)} {
		assert.False(t, DateTodayOrFuture(s), s)
		assert.False(t, DateStrictlyFuture(s), s)
	}
}
