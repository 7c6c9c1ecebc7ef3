package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventSeries builds n payment events spaced intervalDays apart, all with
// the given day offset relative to the due date.
func eventSeries(n int, intervalDays int, dayOffset int, amountCents int64) []*models.PaymentEvent {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	events := make([]*models.PaymentEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, &models.PaymentEvent{
			ID:          uuid.New(),
			UnitID:      uuid.Nil,
			TenantPhone: testTenantPhone,
			AmountCents: amountCents,
			PaymentDate: start.AddDate(0, 0, i*intervalDays),
			DayOffset:   dayOffset,
		})
	}
	return events
}

func TestScoreEventsNoHistoryIsExactlyBase(t *testing.T) {
	breakdown := ScoreEvents(nil, 0, 0)

	require.Equal(t, 500, breakdown.TotalScore)
	require.Len(t, breakdown.Components, 4)
	for _, c := range breakdown.Components {
		assert.Equal(t, 500, c.Score, c.Name)
	}
	assert.Equal(t, "Poor", breakdown.Category)
	assert.NotEmpty(t, breakdown.Recommendations)
}

func TestScoreEventsCeiling(t *testing.T) {
	// 100 on-time payments on a perfectly regular cadence, KES 4M lifetime,
	// long tenancy: every component saturates.
	events := eventSeries(100, 30, 0, 4_000_000)
	breakdown := ScoreEvents(events, 400_000_000, 40)

	require.Equal(t, 1000, breakdown.TotalScore)
	for _, c := range breakdown.Components {
		assert.Equal(t, 1000, c.Score, c.Name)
	}
	assert.Equal(t, "Exceptional", breakdown.Category)
}

func TestScoreEventsSteadyTenantScenario(t *testing.T) {
	// Twelve months of on-time KES 45,000 rent, regular cadence, 14-month
	// tenancy.
	events := eventSeries(12, 30, 0, testRentCents)
	breakdown := ScoreEvents(events, 12*testRentCents, 14)

	byName := map[string]int{}
	for _, c := range breakdown.Components {
		byName[c.Name] = c.Score
	}

	assert.Equal(t, 1000, byName["Payment Timeliness"])
	assert.Equal(t, 1000, byName["Payment Consistency"])
	// log10(540000/10000)*200 + 500 ≈ 846
	assert.Equal(t, 846, byName["Payment Volume"])
	// 500 + 14*15
	assert.Equal(t, 710, byName["Tenancy Stability"])

	// 0.4*1000 + 0.3*1000 + 0.2*846 + 0.1*710 = 940.2
	assert.Equal(t, 940, breakdown.TotalScore)
	assert.Equal(t, "Exceptional", breakdown.Category)
}

func TestTimelinessMonotonicInOnTimeRate(t *testing.T) {
	allOnTime := eventSeries(10, 30, 0, testRentCents)

	half := eventSeries(5, 30, 0, testRentCents)
	half = append(half, eventSeries(5, 30, 3, testRentCents)...)

	full := timelinessScore(allOnTime)
	mixed := timelinessScore(half)

	require.Equal(t, 1000, full)
	// onTimeRate 0.5 → 500, minus avg 3 days late * 10.
	require.Equal(t, 470, mixed)
	require.Greater(t, full, mixed)
}

func TestTimelinessLatenessPenaltyIsCapped(t *testing.T) {
	// One catastrophic 90-day delay among otherwise on-time payments. The
	// penalty caps at 200, so the component cannot collapse to zero.
	events := eventSeries(9, 30, 0, testRentCents)
	events = append(events, eventSeries(1, 30, 90, testRentCents)...)

	score := timelinessScore(events)
	// onTimeRate 0.9 → 900, penalty min(90*10, 200) = 200.
	require.Equal(t, 700, score)
}

func TestConsistencyNeedsThreeEvents(t *testing.T) {
	assert.Equal(t, 500, consistencyScore(nil))
	assert.Equal(t, 500, consistencyScore(eventSeries(1, 30, 0, testRentCents)))
	assert.Equal(t, 500, consistencyScore(eventSeries(2, 30, 0, testRentCents)))
	assert.Equal(t, 1000, consistencyScore(eventSeries(3, 30, 0, testRentCents)))
}

func TestConsistencyPenalizesIrregularCadence(t *testing.T) {
	regular := eventSeries(6, 30, 0, testRentCents)

	// Same payment count, wildly varying gaps.
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	gaps := []int{0, 5, 60, 65, 130, 131}
	irregular := make([]*models.PaymentEvent, 0, len(gaps))
	for _, g := range gaps {
		irregular = append(irregular, &models.PaymentEvent{
			ID:          uuid.New(),
			TenantPhone: testTenantPhone,
			AmountCents: testRentCents,
			PaymentDate: start.AddDate(0, 0, g),
			DayOffset:   0,
		})
	}

	require.Greater(t, consistencyScore(regular), consistencyScore(irregular))
}

func TestVolumeScoreBoundaries(t *testing.T) {
	assert.Equal(t, 500, volumeScore(0))
	assert.Equal(t, 500, volumeScore(-100))
	// Exactly KES 10,000 lifetime sits on the log pivot.
	assert.Equal(t, 500, volumeScore(1_000_000))
	// KES 100,000 → log10(10)*200 + 500 = 700.
	assert.Equal(t, 700, volumeScore(10_000_000))
	// Huge lifetime volume clamps at 1000.
	assert.Equal(t, 1000, volumeScore(1_000_000_000_000))
}

func TestStabilityScore(t *testing.T) {
	assert.Equal(t, 500, stabilityScore(0))
	assert.Equal(t, 500, stabilityScore(-3))
	assert.Equal(t, 710, stabilityScore(14))
	assert.Equal(t, 1000, stabilityScore(34))
	assert.Equal(t, 1000, stabilityScore(120))
}

func TestCategoryThresholds(t *testing.T) {
	cases := map[int]string{
		1000: "Exceptional",
		850:  "Exceptional",
		849:  "Excellent",
		750:  "Excellent",
		749:  "Good",
		650:  "Good",
		649:  "Fair",
		550:  "Fair",
		549:  "Poor",
		400:  "Poor",
		399:  "Very Poor",
		0:    "Very Poor",
	}
	for total, want := range cases {
		assert.Equal(t, want, categoryFor(total).Name, "total %d", total)
	}
}

func TestMonthsBetween(t *testing.T) {
	from := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, monthsBetween(from, time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, monthsBetween(from, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 14, monthsBetween(from, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, monthsBetween(from, from.AddDate(0, 0, -10)))
}
