package fare

import (
	"testing"
	"time"

	"koel/internal/apperrors"
	"koel/internal/models"

	"github.com/stretchr/testify/assert"
)

func testTrain() *models.Train {
	return &models.Train{
		ID:     1,
		Number: "12951",
		Name:   "Mumbai Rajdhani",
		Route: []models.RouteStop{
			{Position: 1, StationCode: "NDLS", StationName: "New Delhi", Distance: 0},
			{Position: 2, StationCode: "KOTA", StationName: "Kota Junction", Distance: 465},
			{Position: 3, StationCode: "RTM", StationName: "Ratlam Junction", Distance: 726},
			{Position: 4, StationCode: "BCT", StationName: "Mumbai Central", Distance: 1384},
		},
		Classes: []models.TrainClass{
			{Type: "3A", Name: "Third AC", TotalSeats: 64, AvailableSeats: 64, BasePrice: 200, PricePerKm: 0.8},
			{Type: "1A", Name: "First AC", TotalSeats: 18, AvailableSeats: 18, BasePrice: 500, PricePerKm: 2.5},
		},
		RunningDays: []string{"Monday", "Wednesday", "Friday"},
	}
}

func TestBetween(t *testing.T) {
	train := testTrain()

	// 465 km at base 200, 0.8/km: round(200 + 372) = 572
	price, err := Between(train, "NDLS", "KOTA", "3A")
	assert.NoError(t, err)
	assert.Equal(t, int64(572), price)
}

func TestBetween_RoundsToNearestRupee(t *testing.T) {
	train := testTrain()
	train.Route = append(train.Route, models.RouteStop{
		Position: 5, StationCode: "XX", StationName: "Test Halt", Distance: 496,
	})

	// round(200 + 496*0.8) = round(596.8) = 597
	price, err := Between(train, "NDLS", "XX", "3A")
	assert.NoError(t, err)
	assert.Equal(t, int64(597), price)
}

func TestBetween_Symmetric(t *testing.T) {
	train := testTrain()

	for _, class := range []string{"3A", "1A"} {
		forward, err := Between(train, "KOTA", "BCT", class)
		assert.NoError(t, err)

		backward, err := Between(train, "BCT", "KOTA", class)
		assert.NoError(t, err)

		assert.Equal(t, forward, backward, "fare must be symmetric for class %s", class)
	}
}

func TestBetween_Deterministic(t *testing.T) {
	train := testTrain()

	first, err := Between(train, "NDLS", "BCT", "1A")
	assert.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Between(train, "NDLS", "BCT", "1A")
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBetween_UnknownStation(t *testing.T) {
	train := testTrain()

	_, err := Between(train, "NDLS", "HWH", "3A")
	assert.ErrorIs(t, err, apperrors.ErrStationNotFound)

	_, err = Between(train, "HWH", "BCT", "3A")
	assert.ErrorIs(t, err, apperrors.ErrStationNotFound)
}

func TestBetween_UnknownClass(t *testing.T) {
	train := testTrain()

	_, err := Between(train, "NDLS", "BCT", "SL")
	assert.ErrorIs(t, err, apperrors.ErrClassUnavailable)
}

func TestQuote(t *testing.T) {
	// 572 per passenger, 3 passengers: base 1716, tax round(85.8)=86, fee 20
	b := Quote(572, 3)

	assert.Equal(t, int64(1716), b.BasePrice)
	assert.Equal(t, int64(86), b.Tax)
	assert.Equal(t, int64(20), b.ConvenienceFee)
	assert.Equal(t, int64(0), b.Discount)
	assert.Equal(t, int64(1822), Total(b))
}

func TestRefundAt_Tiers(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		hoursAhead float64
		fraction   float64
	}{
		{"more than 48h", 72, 0.90},
		{"between 12h and 48h", 24, 0.75},
		{"between 4h and 12h", 6, 0.50},
		{"under 4h", 2, 0},
		{"journey already departed", -10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			journey := now.Add(time.Duration(tt.hoursAhead * float64(time.Hour)))
			r := RefundAt(1000, journey, now)

			assert.Equal(t, tt.fraction, r.Fraction)
			assert.Equal(t, r.Amount+r.CancellationCharge, int64(1000))
		})
	}
}

func TestRefundAt_Concrete(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	journey := now.Add(72 * time.Hour)

	r := RefundAt(1000, journey, now)

	assert.Equal(t, int64(900), r.Amount)
	assert.Equal(t, int64(100), r.CancellationCharge)
}

func TestRefundAt_MonotonicNonIncreasing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	prev := int64(1 << 62)
	for hours := 100.0; hours > -24; hours -= 0.5 {
		journey := now.Add(time.Duration(hours * float64(time.Hour)))
		r := RefundAt(1000, journey, now)

		assert.LessOrEqual(t, r.Amount, prev,
			"refund must not increase as the journey nears (at %.1fh)", hours)
		prev = r.Amount
	}
}

func TestRewardPoints(t *testing.T) {
	assert.Equal(t, int64(50), RewardPoints(1000))
	assert.Equal(t, int64(91), RewardPoints(1822)) // floor(91.1)
	assert.Equal(t, int64(0), RewardPoints(19))
}
