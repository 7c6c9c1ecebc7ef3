package services

import (
	"context"
	"math"
	"time"

	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

// Score categories, highest threshold first.
var scoreCategories = []struct {
	Threshold       int
	Name            string
	Description     string
	Recommendations []string
}{
	{850, "Exceptional", "Outstanding payment record with consistent early or on-time payments.", []string{
		"Eligible for preferential lease renewal terms",
		"Consider reduced deposit on next lease",
		"Strong candidate for landlord reference letters",
	}},
	{750, "Excellent", "Reliable payment history with rare, minor delays.", []string{
		"Eligible for standard lease renewal",
		"Qualifies for payment-history certificate",
	}},
	{650, "Good", "Generally dependable with occasional late payments.", []string{
		"Lease renewal recommended",
		"Set up payment reminders to reach Excellent",
	}},
	{550, "Fair", "Mixed record; lateness or irregular cadence drags the score.", []string{
		"Enroll in SMS payment reminders",
		"Consider aligning payment date with income schedule",
	}},
	{400, "Poor", "Frequent late payments or long gaps between payments.", []string{
		"Payment plan discussion recommended",
		"Review rent affordability with tenant",
	}},
	{0, "Very Poor", "Severely delinquent payment record.", []string{
		"Escalate to property manager for review",
		"Deposit top-up may be required on renewal",
	}},
}

// ScoringService derives a tenant trust score from payment history.
// ScoreEvents is a pure function of its inputs; the service wrapper only
// gathers those inputs from storage.
type ScoringService struct {
	unitRepo  repositories.UnitRepository
	eventRepo repositories.PaymentEventRepository
}

func NewScoringService(unitRepo repositories.UnitRepository, eventRepo repositories.PaymentEventRepository) *ScoringService {
	return &ScoringService{unitRepo: unitRepo, eventRepo: eventRepo}
}

// ScoreTenant assembles the event series, total paid and tenancy length
// for the occupant registered under phone, then scores them.
func (s *ScoringService) ScoreTenant(ctx context.Context, phone string) (*models.ScoreBreakdown, error) {
	normalized, err := NormalizeMSISDN(phone)
	if err != nil {
		return nil, err
	}

	unit, err := s.unitRepo.FindByOccupantPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, utils.ErrNoMatch
	}

	events, err := s.eventRepo.ListByTenantPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var totalCents int64
	for _, e := range events {
		totalCents += e.AmountCents
	}

	tenancyMonths := 0
	if unit.MovedInAt != nil {
		tenancyMonths = monthsBetween(*unit.MovedInAt, time.Now().UTC())
	}

	breakdown := ScoreEvents(events, totalCents, tenancyMonths)
	return &breakdown, nil
}

// ScoreEvents computes the 0–1000 trust score from an event series ordered
// by payment date, the lifetime rent paid, and the tenancy length in
// months. Pure and total: identical inputs give identical output, missing
// history degrades each component to its base value, and it never errors.
func ScoreEvents(events []*models.PaymentEvent, totalRentPaidCents int64, tenancyMonths int) models.ScoreBreakdown {
	timeliness := timelinessScore(events)
	consistency := consistencyScore(events)
	volume := volumeScore(totalRentPaidCents)
	stability := stabilityScore(tenancyMonths)

	weighted := constants.WeightTimeliness*float64(timeliness) +
		constants.WeightConsistency*float64(consistency) +
		constants.WeightVolume*float64(volume) +
		constants.WeightStability*float64(stability)

	total := clampScore(int(math.Round(weighted)))
	category := categoryFor(total)

	return models.ScoreBreakdown{
		TotalScore:      total,
		Category:        category.Name,
		Description:     category.Description,
		Recommendations: category.Recommendations,
		Components: []models.ScoreComponent{
			{
				Name:        "Payment Timeliness",
				Score:       timeliness,
				Weight:      constants.WeightTimeliness,
				Description: "On-time payment rate with a capped penalty for average lateness",
			},
			{
				Name:        "Payment Consistency",
				Score:       consistency,
				Weight:      constants.WeightConsistency,
				Description: "Regularity of the interval between consecutive payments",
			},
			{
				Name:        "Payment Volume",
				Score:       volume,
				Weight:      constants.WeightVolume,
				Description: "Lifetime rent paid, on a logarithmic scale",
			},
			{
				Name:        "Tenancy Stability",
				Score:       stability,
				Weight:      constants.WeightStability,
				Description: "Length of tenancy in months",
			},
		},
	}
}

// onTimeRate*1000 − min(avgDaysLate*10, 200), clamped. avgDaysLate is the
// mean lateness across late payments only; one catastrophic delay cannot
// zero the component because the penalty is capped.
func timelinessScore(events []*models.PaymentEvent) int {
	if len(events) == 0 {
		return constants.BaseComponentScore
	}

	onTime := 0
	lateDays := 0
	lateCount := 0
	for _, e := range events {
		if e.DayOffset <= 0 {
			onTime++
		} else {
			lateDays += e.DayOffset
			lateCount++
		}
	}

	onTimeRate := float64(onTime) / float64(len(events))
	avgDaysLate := 0.0
	if lateCount > 0 {
		avgDaysLate = float64(lateDays) / float64(lateCount)
	}

	penalty := math.Min(avgDaysLate*10, constants.MaxLatenessPenalty)
	return clampScore(int(math.Round(onTimeRate*1000 - penalty)))
}

// max(0, 1000 − stdDev(intervalDays)*10) over the gaps between consecutive
// payments; a steady monthly cadence scores near 1000 regardless of
// lateness. Needs at least three events to mean anything.
func consistencyScore(events []*models.PaymentEvent) int {
	if len(events) < constants.MinEventsForConsistency {
		return constants.BaseComponentScore
	}

	intervals := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gap := events[i].PaymentDate.Sub(events[i-1].PaymentDate).Hours() / 24
		intervals = append(intervals, gap)
	}

	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))

	variance := 0.0
	for _, v := range intervals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(intervals)) // population variance

	stdDev := math.Sqrt(variance)
	return clampScore(int(math.Round(math.Max(0, 1000-stdDev*10))))
}

// min(1000, max(0, log10(totalKES/10000)*200 + 500)). Logarithmic so
// high-rent tenants do not run away with the score.
func volumeScore(totalRentPaidCents int64) int {
	if totalRentPaidCents <= 0 {
		return constants.BaseComponentScore
	}
	totalKES := float64(totalRentPaidCents) / 100
	raw := math.Log10(totalKES/10000)*200 + 500
	return clampScore(int(math.Round(math.Min(1000, math.Max(0, raw)))))
}

// min(1000, 500 + months*15).
func stabilityScore(tenancyMonths int) int {
	if tenancyMonths < 0 {
		tenancyMonths = 0
	}
	raw := constants.BaseComponentScore + tenancyMonths*15
	return clampScore(raw)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > constants.MaxComponentScore {
		return constants.MaxComponentScore
	}
	return v
}

func categoryFor(total int) struct {
	Threshold       int
	Name            string
	Description     string
	Recommendations []string
} {
	for _, c := range scoreCategories {
		if total >= c.Threshold {
			return c
		}
	}
	return scoreCategories[len(scoreCategories)-1]
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
