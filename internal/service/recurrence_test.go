package service

import (
	"alcyxob/fitcoach/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestExpandOccurrences(t *testing.T) {
	base := day(2025, time.January, 6)

	tests := []struct {
		name    string
		freq    domain.TaskFrequency
		pattern *domain.RecurrencePattern
		want    []time.Time
	}{
		{
			name:    "once never expands",
			freq:    domain.FrequencyOnce,
			pattern: &domain.RecurrencePattern{MaxOccurrences: 3},
		},
		{
			name:    "no pattern",
			freq:    domain.FrequencyDaily,
			pattern: nil,
		},
		{
			name:    "weekly every two weeks",
			freq:    domain.FrequencyWeekly,
			pattern: &domain.RecurrencePattern{Interval: 2, MaxOccurrences: 3},
			want:    []time.Time{day(2025, time.January, 20), day(2025, time.February, 3)},
		},
		{
			name:    "monthly",
			freq:    domain.FrequencyMonthly,
			pattern: &domain.RecurrencePattern{MaxOccurrences: 3},
			want:    []time.Time{day(2025, time.February, 6), day(2025, time.March, 6)},
		},
		{
			name:    "custom uses days",
			freq:    domain.FrequencyCustom,
			pattern: &domain.RecurrencePattern{Interval: 3, MaxOccurrences: 3},
			want:    []time.Time{day(2025, time.January, 9), day(2025, time.January, 12)},
		},
		{
			name:    "end date stops the series",
			freq:    domain.FrequencyDaily,
			pattern: &domain.RecurrencePattern{EndDate: ptr(day(2025, time.January, 8))},
			want:    []time.Time{day(2025, time.January, 7), day(2025, time.January, 8)},
		},
		{
			name: "exception consumes its slot",
			freq: domain.FrequencyDaily,
			pattern: &domain.RecurrencePattern{
				MaxOccurrences: 4,
				Exceptions:     []time.Time{time.Date(2025, time.January, 7, 23, 30, 0, 0, time.UTC)},
			},
			want: []time.Time{day(2025, time.January, 8), day(2025, time.January, 9)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandOccurrences(base, tt.freq, tt.pattern)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandOccurrences_Cap(t *testing.T) {
	base := day(2025, time.January, 1)

	got := expandOccurrences(base, domain.FrequencyDaily, &domain.RecurrencePattern{})
	assert.Len(t, got, MaxOccurrences-1)

	got = expandOccurrences(base, domain.FrequencyDaily, &domain.RecurrencePattern{MaxOccurrences: 1})
	assert.Empty(t, got, "a cap of one leaves only the parent")
}

func TestBuildSiblings_NoDates(t *testing.T) {
	created := day(2025, time.April, 1)
	parent := &domain.Task{Title: "Stretch", Tags: []string{"mobility"}}
	dates := []time.Time{day(2025, time.April, 2)}

	sibs := buildSiblings(parent, created, dates)
	assert.Len(t, sibs, 1)
	assert.Nil(t, sibs[0].DueDate)
	assert.Equal(t, dates[0], *sibs[0].StartDate)
	assert.Equal(t, 2, sibs[0].SequenceNumber)
	assert.False(t, sibs[0].ID.IsZero())
}
