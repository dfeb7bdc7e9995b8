package service

import (
	"alcyxob/fitcoach/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxOccurrences caps a recurring series, parent included.
const MaxOccurrences = 52

// occurrenceCap returns how many rows a series may hold, parent included.
func occurrenceCap(p *domain.RecurrencePattern) int {
	if p.MaxOccurrences > 0 && p.MaxOccurrences < MaxOccurrences {
		return p.MaxOccurrences
	}
	return MaxOccurrences
}

// advance returns the i-th occurrence after base.
func advance(base time.Time, freq domain.TaskFrequency, interval, i int) time.Time {
	switch freq {
	case domain.FrequencyWeekly:
		return base.AddDate(0, 0, 7*interval*i)
	case domain.FrequencyMonthly:
		return base.AddDate(0, interval*i, 0)
	default: // daily, custom
		return base.AddDate(0, 0, interval*i)
	}
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func isException(d time.Time, exceptions []time.Time) bool {
	for _, ex := range exceptions {
		if sameUTCDay(d, ex) {
			return true
		}
	}
	return false
}

// expandOccurrences returns the dates of the siblings that follow base. An
// exception date still uses up its slot in the series.
func expandOccurrences(base time.Time, freq domain.TaskFrequency, p *domain.RecurrencePattern) []time.Time {
	if p == nil || freq == domain.FrequencyOnce || freq == "" {
		return nil
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 1
	}

	limit := occurrenceCap(p)
	var dates []time.Time
	for i := 1; i < limit; i++ {
		d := advance(base, freq, interval, i)
		if p.EndDate != nil && d.After(*p.EndDate) {
			break
		}
		if isException(d, p.Exceptions) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// recurrenceBase is the date the series is laid out from.
func recurrenceBase(t *domain.Task, now time.Time) time.Time {
	switch {
	case t.DueDate != nil:
		return *t.DueDate
	case t.StartDate != nil:
		return *t.StartDate
	}
	return now
}

// buildSiblings copies parent once per date. Due and start dates move by
// the same offset from the base.
func buildSiblings(parent *domain.Task, base time.Time, dates []time.Time) []*domain.Task {
	siblings := make([]*domain.Task, 0, len(dates))
	for i, d := range dates {
		offset := d.Sub(base)
		s := *parent
		s.ID = primitive.NewObjectID()
		parentID := parent.ID
		s.ParentTaskID = &parentID
		s.SequenceNumber = i + 2
		s.Tags = append([]string(nil), parent.Tags...)
		s.RecurrencePattern = nil

		if parent.DueDate != nil {
			due := parent.DueDate.Add(offset)
			s.DueDate = &due
		}
		if parent.StartDate != nil {
			start := parent.StartDate.Add(offset)
			s.StartDate = &start
		}
		if parent.DueDate == nil && parent.StartDate == nil {
			start := d
			s.StartDate = &start
		}
		siblings = append(siblings, &s)
	}
	return siblings
}
