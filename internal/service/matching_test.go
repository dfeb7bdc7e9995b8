package service

import (
	"alcyxob/fitcoach/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func perfectPair() (*domain.TraineeProfile, *domain.Template) {
	p := &domain.TraineeProfile{
		Age:                    30,
		FitnessLevel:           domain.FitnessBeginner,
		Goals:                  []string{"weight loss"},
		Equipment:              []string{"dumbbells", "mat"},
		AvailableMinutesPerDay: 45,
		AvailableDaysPerWeek:   4,
	}
	tpl := &domain.Template{
		Name:       "Lean start",
		UsageCount: 3,
		TargetCriteria: domain.TargetCriteria{
			AgeMin:           25,
			AgeMax:           35,
			FitnessLevel:     domain.FitnessBeginner,
			Goals:            []string{"Weight Loss", "toning"},
			Equipment:        []string{"Dumbbells"},
			MinMinutesPerDay: 30,
			MinDaysPerWeek:   3,
		},
	}
	return p, tpl
}

func TestScore_PerfectMatch(t *testing.T) {
	p, tpl := perfectPair()
	m := Score(p, tpl)

	assert.Equal(t, 100.0, m.Score)
	assert.True(t, m.Recommended())
	assert.Equal(t, []string{"weight loss"}, m.Breakdown.MatchedGoals)
	assert.Empty(t, m.Breakdown.MissingEquipment)
	assert.Equal(t, "Excellent match! Aligns with your weight loss goals. Matches your beginner fitness level. "+
		"Uses equipment you already have. Fits your schedule. Designed for your age group.", m.Reason)
}

func TestScore_ThresholdIsStrict(t *testing.T) {
	// age 100, goals 50, fitness 100, equipment 0, time 100 => exactly 60
	p := &domain.TraineeProfile{
		Age:                    30,
		FitnessLevel:           domain.FitnessAdvanced,
		Goals:                  []string{"strength", "mobility"},
		AvailableMinutesPerDay: 60,
		AvailableDaysPerWeek:   5,
	}
	tpl := &domain.Template{TargetCriteria: domain.TargetCriteria{
		FitnessLevel: domain.FitnessAdvanced,
		Goals:        []string{"strength"},
		Equipment:    []string{"barbell"},
	}}

	m := Score(p, tpl)
	assert.Equal(t, 60.0, m.Score)
	assert.False(t, m.Recommended())
	assert.Equal(t, []string{"barbell"}, m.Breakdown.MissingEquipment)
}

func TestScore_SubScores(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"age in range", ageScore(30, 25, 35), 100},
		{"no age bounds", ageScore(70, 0, 0), 100},
		{"age off midpoint", ageScore(40, 20, 30), 25},
		{"age far off floors at zero", ageScore(60, 20, 30), 0},
		{"only a minimum", ageScore(16, 18, 0), 90},
		{"same level", fitnessScore(domain.FitnessIntermediate, domain.FitnessIntermediate), 100},
		{"one level apart", fitnessScore(domain.FitnessIntermediate, domain.FitnessAdvanced), 70},
		{"two levels apart", fitnessScore(domain.FitnessBeginner, domain.FitnessAdvanced), 40},
		{"unknown trainee level", fitnessScore("", domain.FitnessAdvanced), 0},
		{"any level welcome", fitnessScore(domain.FitnessAdvanced, ""), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got, 0.0001)
		})
	}

	goals, matched := goalScore([]string{"a", "b", "c", "d"}, []string{"B", "d", "x"})
	assert.Equal(t, 50.0, goals)
	assert.Equal(t, []string{"b", "d"}, matched)
	goals, _ = goalScore(nil, []string{"a"})
	assert.Zero(t, goals)

	eq, missing := equipmentScore([]string{"a", "b", "c"}, []string{"a", "b", "c", "d"})
	assert.Equal(t, 75.0, eq)
	assert.Equal(t, []string{"d"}, missing)
	eq, _ = equipmentScore(nil, nil)
	assert.Equal(t, 100.0, eq)

	p := &domain.TraineeProfile{AvailableMinutesPerDay: 20, AvailableDaysPerWeek: 6}
	assert.Equal(t, 50.0, timeScore(p, &domain.TargetCriteria{MinMinutesPerDay: 30}))
	assert.Equal(t, 100.0, timeScore(p, &domain.TargetCriteria{MinDaysPerWeek: 6}))
}

func TestScore_ReasonTiers(t *testing.T) {
	assert.Equal(t, "Excellent match!", scoreTier(90))
	assert.Equal(t, "Great fit!", scoreTier(89.99))
	assert.Equal(t, "Great fit!", scoreTier(75))
	assert.Equal(t, "Good option.", scoreTier(74.5))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 74.0, confidence(70, 2))
	assert.Equal(t, 95.0, confidence(80, 10))
	assert.Equal(t, 95.0, confidence(100, 0))
}
