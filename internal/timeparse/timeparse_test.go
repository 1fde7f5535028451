package timeparse

import (
	"testing"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractClockTimes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []models.ParsedTime
	}{
		{
			name:     "Plain token",
			raw:      "7:20 AM",
			expected: []models.ParsedTime{{Hour: 7, Minute: 20}},
		},
		{
			name:     "No space before meridiem",
			raw:      "7:20am",
			expected: []models.ParsedTime{{Hour: 7, Minute: 20}},
		},
		{
			name:     "Mixed case",
			raw:      "7:20 aM",
			expected: []models.ParsedTime{{Hour: 7, Minute: 20}},
		},
		{
			name:     "PM token",
			raw:      "4:45 PM",
			expected: []models.ParsedTime{{Hour: 16, Minute: 45}},
		},
		{
			name:     "Token with annotation",
			raw:      "7:20 AM — express",
			expected: []models.ParsedTime{{Hour: 7, Minute: 20}},
		},
		{
			name: "Multiple tokens in order",
			raw:  "8:00 AM then 9:30 AM then 1:15 PM",
			expected: []models.ParsedTime{
				{Hour: 8, Minute: 0},
				{Hour: 9, Minute: 30},
				{Hour: 13, Minute: 15},
			},
		},
		{
			name:     "Seconds parsed but dropped",
			raw:      "7:20:45 AM",
			expected: []models.ParsedTime{{Hour: 7, Minute: 20}},
		},
		{
			name:     "No time token",
			raw:      "via Main Gate",
			expected: nil,
		},
		{
			name:     "Blank input",
			raw:      "   ",
			expected: nil,
		},
		{
			name:     "Malformed hour dropped",
			raw:      "13:20 PM",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractClockTimes(tt.raw)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSplitTimeNote(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected models.ParsedTime
		ok       bool
	}{
		{
			name:     "Time with dash note",
			raw:      "7:20 AM - express via highway",
			expected: models.ParsedTime{Hour: 7, Minute: 20, Note: "express via highway"},
			ok:       true,
		},
		{
			name:     "Time with em-dash note",
			raw:      "7:20 AM — campus shuttle",
			expected: models.ParsedTime{Hour: 7, Minute: 20, Note: "campus shuttle"},
			ok:       true,
		},
		{
			name:     "Multi-line note",
			raw:      "8:15 AM\nvia ring road\nno Friday service",
			expected: models.ParsedTime{Hour: 8, Minute: 15, Note: "via ring road no Friday service"},
			ok:       true,
		},
		{
			name:     "Bare time",
			raw:      "6:00 PM",
			expected: models.ParsedTime{Hour: 18, Minute: 0},
			ok:       true,
		},
		{
			name: "No time at all",
			raw:  "express only",
			ok:   false,
		},
		{
			name: "Blank",
			raw:  "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := SplitTimeNote(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		tod      models.ParsedTime
		expected time.Time
	}{
		{
			name:     "Earlier today rolls to tomorrow",
			now:      now,
			tod:      models.ParsedTime{Hour: 7, Minute: 0},
			expected: time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC),
		},
		{
			name:     "Later today stays today",
			now:      time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC),
			tod:      models.ParsedTime{Hour: 7, Minute: 0},
			expected: time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC),
		},
		{
			name:     "Exactly now rolls to tomorrow",
			now:      now,
			tod:      models.ParsedTime{Hour: 8, Minute: 0},
			expected: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "Month rollover",
			now:      time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC),
			tod:      models.ParsedTime{Hour: 6, Minute: 30},
			expected: time.Date(2024, 2, 1, 6, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NextOccurrence(tt.now, tt.tod)
			assert.Equal(t, tt.expected, result)
			assert.True(t, result.After(tt.now))
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "8:00 AM", FormatClock(models.ParsedTime{Hour: 8}))
	assert.Equal(t, "4:05 PM", FormatClock(models.ParsedTime{Hour: 16, Minute: 5}))
	assert.Equal(t, "12:00 AM", FormatClock(models.ParsedTime{}))
}
