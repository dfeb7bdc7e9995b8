package service

import (
	"alcyxob/fitcoach/internal/domain"
	"fmt"
	"math"
	"strings"
)

// RecommendationThreshold is the score a template must exceed to be recommended.
const RecommendationThreshold = 60.0

// Criterion weights, in percent.
const (
	weightAge       = 15.0
	weightGoals     = 30.0
	weightFitness   = 20.0
	weightEquipment = 25.0
	weightTime      = 10.0
)

var fitnessOrdinal = map[domain.FitnessLevel]int{
	domain.FitnessBeginner:     1,
	domain.FitnessIntermediate: 2,
	domain.FitnessAdvanced:     3,
}

// Match is the outcome of scoring one template against one profile.
type Match struct {
	Score     float64
	Breakdown domain.ScoreBreakdown
	Reason    string
}

// Recommended reports whether the match clears the threshold.
func (m Match) Recommended() bool {
	return m.Score > RecommendationThreshold
}

// Score rates how well template t fits profile p on a 0-100 scale.
func Score(p *domain.TraineeProfile, t *domain.Template) Match {
	c := &t.TargetCriteria
	b := domain.ScoreBreakdown{
		Age:              ageScore(p.Age, c.AgeMin, c.AgeMax),
		FitnessLevel:     fitnessScore(p.FitnessLevel, c.FitnessLevel),
		TimeAvailability: timeScore(p, c),
	}
	b.Goals, b.MatchedGoals = goalScore(p.Goals, c.Goals)
	b.Equipment, b.MissingEquipment = equipmentScore(p.Equipment, c.Equipment)

	score := (b.Age*weightAge +
		b.Goals*weightGoals +
		b.FitnessLevel*weightFitness +
		b.Equipment*weightEquipment +
		b.TimeAvailability*weightTime) / 100

	m := Match{Score: score, Breakdown: b}
	m.Reason = matchReason(score, p, t, &b)
	return m
}

func ageScore(age, lo, hi int) float64 {
	if lo == 0 && hi == 0 {
		return 100
	}
	if (lo == 0 || age >= lo) && (hi == 0 || age <= hi) {
		return 100
	}
	mid := float64(lo+hi) / 2
	switch {
	case lo == 0:
		mid = float64(hi)
	case hi == 0:
		mid = float64(lo)
	}
	return math.Max(0, 100-5*math.Abs(float64(age)-mid))
}

func goalScore(traineeGoals, templateGoals []string) (float64, []string) {
	mine := normalizeTags(traineeGoals)
	if len(mine) == 0 {
		return 0, nil
	}
	wanted := make(map[string]bool)
	for _, g := range normalizeTags(templateGoals) {
		wanted[g] = true
	}
	var matched []string
	for _, g := range mine {
		if wanted[g] {
			matched = append(matched, g)
		}
	}
	return 100 * float64(len(matched)) / float64(len(mine)), matched
}

func fitnessScore(trainee, target domain.FitnessLevel) float64 {
	if target == "" || trainee == target {
		return 100
	}
	a, okA := fitnessOrdinal[trainee]
	b, okB := fitnessOrdinal[target]
	if !okA || !okB {
		return 0
	}
	return math.Max(0, 100-30*math.Abs(float64(a-b)))
}

func equipmentScore(have, required []string) (float64, []string) {
	req := normalizeTags(required)
	if len(req) == 0 {
		return 100, nil
	}
	owned := make(map[string]bool)
	for _, e := range normalizeTags(have) {
		owned[e] = true
	}
	var missing []string
	for _, e := range req {
		if !owned[e] {
			missing = append(missing, e)
		}
	}
	return 100 * float64(len(req)-len(missing)) / float64(len(req)), missing
}

func timeScore(p *domain.TraineeProfile, c *domain.TargetCriteria) float64 {
	if p.AvailableMinutesPerDay >= c.MinMinutesPerDay && p.AvailableDaysPerWeek >= c.MinDaysPerWeek {
		return 100
	}
	return 50
}

func scoreTier(score float64) string {
	switch {
	case score >= 90:
		return "Excellent match!"
	case score >= 75:
		return "Great fit!"
	}
	return "Good option."
}

func matchReason(score float64, p *domain.TraineeProfile, t *domain.Template, b *domain.ScoreBreakdown) string {
	clauses := []string{scoreTier(score)}
	if len(b.MatchedGoals) > 0 {
		clauses = append(clauses, fmt.Sprintf("Aligns with your %s goals.", strings.Join(b.MatchedGoals, ", ")))
	}
	if t.TargetCriteria.FitnessLevel != "" && b.FitnessLevel == 100 {
		clauses = append(clauses, fmt.Sprintf("Matches your %s fitness level.", p.FitnessLevel))
	}
	if len(t.TargetCriteria.Equipment) > 0 && b.Equipment == 100 {
		clauses = append(clauses, "Uses equipment you already have.")
	}
	if b.TimeAvailability == 100 {
		clauses = append(clauses, "Fits your schedule.")
	}
	if (t.TargetCriteria.AgeMin > 0 || t.TargetCriteria.AgeMax > 0) && b.Age == 100 {
		clauses = append(clauses, "Designed for your age group.")
	}
	return strings.Join(clauses, " ")
}

// confidence grows with how often the template has been used.
func confidence(score float64, usageCount int) float64 {
	return math.Min(95, score+float64(usageCount)*2)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
