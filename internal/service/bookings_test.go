package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"koel/internal/apperrors"
	"koel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTrain() *models.Train {
	return &models.Train{
		ID:     1,
		Number: "12951",
		Name:   "Mumbai Rajdhani",
		Type:   "Rajdhani",
		Route: []models.RouteStop{
			{Position: 1, StationCode: "NDLS", StationName: "New Delhi", DepartureTime: "16:25", Platform: "16", Distance: 0},
			{Position: 2, StationCode: "KOTA", StationName: "Kota Junction", ArrivalTime: "21:05", DepartureTime: "21:10", Platform: "1", Distance: 465},
			{Position: 3, StationCode: "BCT", StationName: "Mumbai Central", ArrivalTime: "08:35", Platform: "3", Distance: 1384},
		},
		Classes: []models.TrainClass{
			{Type: "3A", Name: "Third AC", TotalSeats: 64, AvailableSeats: 64, BasePrice: 200, PricePerKm: 0.8},
			{Type: "1A", Name: "First AC", TotalSeats: 18, AvailableSeats: 18, BasePrice: 500, PricePerKm: 2.5},
		},
		RunningDays: []string{"Monday", "Wednesday", "Friday"},
		IsActive:    true,
	}
}

// fixedNow is a Tuesday; 2026-01-02 is a Friday the fixture train runs.
var fixedNow = time.Date(2025, 12, 30, 12, 0, 0, 0, time.UTC)

func newTestBookingService(store *memStore) *BookingService {
	svc := NewBookingService(store, store, store, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func createRequest(passengers int) *models.CreateBookingRequest {
	req := &models.CreateBookingRequest{
		TrainNumber: "12951",
		From:        "NDLS",
		To:          "KOTA",
		JourneyDate: "2026-01-02",
		ClassType:   "3A",
	}
	for i := 0; i < passengers; i++ {
		req.Passengers = append(req.Passengers, models.PassengerRequest{
			Name: "Traveller", Age: 30, Gender: "Male",
		})
	}
	return req
}

func TestCreateBooking(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking, err := svc.Create(context.Background(), 1, createRequest(2))
	require.NoError(t, err)

	// 465 km at base 200, 0.8/km: 572 per passenger
	assert.Equal(t, int64(1144), booking.BasePrice)
	assert.Equal(t, int64(57), booking.Tax)
	assert.Equal(t, int64(20), booking.ConvenienceFee)
	assert.Equal(t, int64(1221), booking.TotalPrice)

	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, models.PaymentPending, booking.PaymentStatus)
	assert.NotEmpty(t, booking.PNR)
	assert.Equal(t, "New Delhi", booking.From.StationName)
	assert.Equal(t, "16:25", booking.From.Time)
	assert.Equal(t, "Kota Junction", booking.To.StationName)

	assert.Equal(t, 62, store.availableSeats("12951", "3A"))
	assert.Contains(t, store.published(), models.EventBookingCreated)
}

func TestCreateBooking_PastJourneyDate(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	req := createRequest(1)
	req.JourneyDate = "2025-12-26"

	_, err := svc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, apperrors.ErrJourneyDateInPast)
}

func TestCreateBooking_TrainNotFound(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	req := createRequest(1)
	req.TrainNumber = "99999"

	_, err := svc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, apperrors.ErrTrainNotFound)
}

func TestCreateBooking_TrainNotRunning(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	// 2026-01-03 is a Saturday; the fixture runs Mon/Wed/Fri.
	req := createRequest(1)
	req.JourneyDate = "2026-01-03"

	_, err := svc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, apperrors.ErrTrainNotRunning)
}

func TestCreateBooking_UnknownStation(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	req := createRequest(1)
	req.To = "MAS"

	_, err := svc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, apperrors.ErrStationNotFound)
}

func TestCreateBooking_ClassUnavailable(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	req := createRequest(1)
	req.ClassType = "2A"

	_, err := svc.Create(context.Background(), 1, req)
	assert.ErrorIs(t, err, apperrors.ErrClassUnavailable)
}

func TestCreateBooking_InsufficientSeatsLeavesInventoryUntouched(t *testing.T) {
	train := fixtureTrain()
	train.Classes[0].AvailableSeats = 1
	store := newMemStore(train)
	svc := newTestBookingService(store)

	_, err := svc.Create(context.Background(), 1, createRequest(2))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSeats)
	assert.Equal(t, 1, store.availableSeats("12951", "3A"))
}

func TestCreateBooking_ConcurrentNeverOversells(t *testing.T) {
	train := fixtureTrain()
	train.Classes[0].AvailableSeats = 10
	store := newMemStore(train)
	svc := newTestBookingService(store)

	const attempts = 25
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), 1, createRequest(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case err == apperrors.ErrInsufficientSeats:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, attempts-10, rejected)
	assert.Equal(t, 0, store.availableSeats("12951", "3A"))
}

func paidBooking(t *testing.T, store *memStore, svc *BookingService, passengers int) *models.Booking {
	t.Helper()
	booking, err := svc.Create(context.Background(), 1, createRequest(passengers))
	require.NoError(t, err)

	paymentID := "PAY_test"
	err = store.UpdatePayment(context.Background(), booking.ID, models.PaymentCompleted, &paymentID)
	require.NoError(t, err)
	return booking
}

func TestCancelBooking_RefundTier(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking := paidBooking(t, store, svc, 2)
	assert.Equal(t, 62, store.availableSeats("12951", "3A"))

	// fixedNow is more than 48h before the journey: 90% refund.
	cancelled, refund, err := svc.Cancel(context.Background(), 1, booking.ID, "plans changed")
	require.NoError(t, err)

	assert.Equal(t, int64(1099), refund.Amount)
	assert.Equal(t, int64(122), refund.CancellationCharge)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)

	assert.Equal(t, 64, store.availableSeats("12951", "3A"))
	assert.Contains(t, store.published(), models.EventBookingCancelled)
}

func TestCancelBooking_TwiceRestoresSeatsOnce(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking := paidBooking(t, store, svc, 3)

	_, _, err := svc.Cancel(context.Background(), 1, booking.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 64, store.availableSeats("12951", "3A"))

	_, _, err = svc.Cancel(context.Background(), 1, booking.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)
	assert.Equal(t, 64, store.availableSeats("12951", "3A"))
}

func TestCancelBooking_ConcurrentCancels(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking := paidBooking(t, store, svc, 3)
	assert.Equal(t, 61, store.availableSeats("12951", "3A"))

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Cancel(context.Background(), 1, booking.ID, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, alreadyCancelled := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled):
			alreadyCancelled++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, alreadyCancelled)
	assert.Equal(t, 64, store.availableSeats("12951", "3A"))
}

func TestCancelBooking_PendingPayment(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking, err := svc.Create(context.Background(), 1, createRequest(1))
	require.NoError(t, err)

	_, _, err = svc.Cancel(context.Background(), 1, booking.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotCompleted)
}

func TestCancelBooking_OtherUsersBooking(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking := paidBooking(t, store, svc, 1)

	_, _, err := svc.Cancel(context.Background(), 2, booking.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancelBooking_NotFound(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	_, _, err := svc.Cancel(context.Background(), 1, 42, "")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestGetByPNR(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking, err := svc.Create(context.Background(), 1, createRequest(1))
	require.NoError(t, err)

	found, err := svc.GetByPNR(context.Background(), booking.PNR)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, found.ID)

	_, err = svc.GetByPNR(context.Background(), "NOSUCHPNR1")
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestGet_OwnershipEnforced(t *testing.T) {
	store := newMemStore(fixtureTrain())
	svc := newTestBookingService(store)

	booking, err := svc.Create(context.Background(), 1, createRequest(1))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, booking.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
