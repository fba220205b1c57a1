// Package fare implements fare computation and refund tiers. Everything
// here is a pure function of static route and class data; callers may
// cache results but the calculator itself never touches a store.
package fare

import (
	"math"
	"time"

	"koel/internal/apperrors"
	"koel/internal/models"
)

const (
	// TaxRate is applied to the per-booking base fare.
	TaxRate = 0.05

	// ConvenienceFee is a flat per-booking charge.
	ConvenienceFee int64 = 20
)

// Between returns the per-passenger fare between two stations on the
// given train for the given class, rounded to the nearest rupee.
// The distance is absolute, so the fare is symmetric in from/to.
func Between(train *models.Train, fromCode, toCode, classType string) (int64, error) {
	from := train.StopByCode(fromCode)
	to := train.StopByCode(toCode)
	if from == nil || to == nil {
		return 0, apperrors.ErrStationNotFound
	}

	class := train.ClassByType(classType)
	if class == nil {
		return 0, apperrors.ErrClassUnavailable
	}

	distance := to.Distance - from.Distance
	if distance < 0 {
		distance = -distance
	}

	price := math.Round(float64(class.BasePrice) + float64(distance)*class.PricePerKm)
	return int64(price), nil
}

// Distance returns the absolute route distance in km between two stations
// on the train.
func Distance(train *models.Train, fromCode, toCode string) (int64, error) {
	from := train.StopByCode(fromCode)
	to := train.StopByCode(toCode)
	if from == nil || to == nil {
		return 0, apperrors.ErrStationNotFound
	}
	d := to.Distance - from.Distance
	if d < 0 {
		d = -d
	}
	return d, nil
}

// Quote scales a per-passenger fare to a booking total. The base price
// is kept as computed; it is never back-derived from the tax-inclusive
// total.
func Quote(perPassenger int64, passengers int) models.PriceBreakdown {
	base := perPassenger * int64(passengers)
	tax := int64(math.Round(float64(base) * TaxRate))

	return models.PriceBreakdown{
		BasePrice:      base,
		Tax:            tax,
		ConvenienceFee: ConvenienceFee,
		Discount:       0,
	}
}

// Total returns the amount payable for a breakdown.
func Total(b models.PriceBreakdown) int64 {
	return b.BasePrice + b.Tax + b.ConvenienceFee - b.Discount
}

// Refund holds the outcome of the tiered refund computation.
type Refund struct {
	Amount             int64
	CancellationCharge int64
	Fraction           float64
}

// RefundAt computes the refund for cancelling a booking of the given
// total price at the given instant. The function is total: any distance
// between now and the journey date, including negative, yields a result.
func RefundAt(totalPrice int64, journeyDate, now time.Time) Refund {
	hoursUntilJourney := journeyDate.Sub(now).Hours()

	var fraction float64
	switch {
	case hoursUntilJourney > 48:
		fraction = 0.90
	case hoursUntilJourney > 12:
		fraction = 0.75
	case hoursUntilJourney > 4:
		fraction = 0.50
	default:
		fraction = 0
	}

	amount := int64(math.Round(float64(totalPrice) * fraction))

	return Refund{
		Amount:             amount,
		CancellationCharge: totalPrice - amount,
		Fraction:           fraction,
	}
}

// RewardPoints returns the points credited to the user's ledger when a
// payment completes: 5% of the total, rounded down.
func RewardPoints(totalPrice int64) int64 {
	return int64(math.Floor(float64(totalPrice) * 0.05))
}
