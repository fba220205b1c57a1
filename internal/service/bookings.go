package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"koel/internal/apperrors"
	"koel/internal/cache"
	"koel/internal/fare"
	"koel/internal/metrics"
	"koel/internal/models"
)

type BookingService struct {
	bookings BookingStore
	trains   TrainStore
	events   Publisher
	valkey   *cache.ValkeyClient

	now func() time.Time
}

func NewBookingService(bookings BookingStore, trains TrainStore, events Publisher, valkey *cache.ValkeyClient) *BookingService {
	return &BookingService{
		bookings: bookings,
		trains:   trains,
		events:   events,
		valkey:   valkey,
		now:      time.Now,
	}
}

// Create books seats for the passengers on the requested train segment.
// The seat decrement, PNR allocation and booking insert are one atomic
// operation in the store; any validation failure leaves the inventory
// untouched.
func (s *BookingService) Create(ctx context.Context, userID int64, req *models.CreateBookingRequest) (*models.Booking, error) {
	journeyDate, err := time.Parse("2006-01-02", req.JourneyDate)
	if err != nil {
		return nil, fmt.Errorf("invalid journey date %q: %w", req.JourneyDate, err)
	}

	today := s.now().Truncate(24 * time.Hour)
	if journeyDate.Before(today) {
		return nil, apperrors.ErrJourneyDateInPast
	}

	train, err := s.trains.GetByNumber(ctx, req.TrainNumber)
	if err != nil {
		return nil, err
	}
	if train == nil || !train.IsActive {
		return nil, apperrors.ErrTrainNotFound
	}

	if !train.RunsOn(journeyDate.Weekday().String()) {
		return nil, apperrors.ErrTrainNotRunning
	}

	from := train.StopByCode(req.From)
	to := train.StopByCode(req.To)
	if from == nil || to == nil {
		return nil, apperrors.ErrStationNotFound
	}

	class := train.ClassByType(req.ClassType)
	if class == nil {
		return nil, apperrors.ErrClassUnavailable
	}

	perPassenger, err := fare.Between(train, req.From, req.To, req.ClassType)
	if err != nil {
		return nil, err
	}

	breakdown := fare.Quote(perPassenger, len(req.Passengers))

	booking := &models.Booking{
		UserID:      userID,
		TrainID:     train.ID,
		TrainNumber: train.Number,
		TrainName:   train.Name,
		From: models.StopSnapshot{
			StationCode: from.StationCode,
			StationName: from.StationName,
			Time:        from.DepartureTime,
			Platform:    from.Platform,
		},
		To: models.StopSnapshot{
			StationCode: to.StationCode,
			StationName: to.StationName,
			Time:        to.ArrivalTime,
			Platform:    to.Platform,
		},
		JourneyDate:    journeyDate,
		ClassType:      class.Type,
		ClassName:      class.Name,
		BasePrice:      breakdown.BasePrice,
		Tax:            breakdown.Tax,
		ConvenienceFee: breakdown.ConvenienceFee,
		Discount:       breakdown.Discount,
		TotalPrice:     fare.Total(breakdown),
		Status:         models.StatusConfirmed,
		PaymentStatus:  models.PaymentPending,
		IsActive:       true,
	}

	for _, p := range req.Passengers {
		booking.Passengers = append(booking.Passengers, models.Passenger{
			Name:   p.Name,
			Age:    p.Age,
			Gender: p.Gender,
		})
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientSeats) {
			metrics.BookingsRejected.WithLabelValues("insufficient_seats").Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.invalidateSearches(ctx)

	publish(s.events, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:   booking.ID,
		PNR:         booking.PNR,
		TrainNumber: booking.TrainNumber,
		UserID:      booking.UserID,
		TotalPrice:  booking.TotalPrice,
		Timestamp:   s.now(),
	})

	slog.Info("Booking created",
		"booking_id", booking.ID, "pnr", booking.PNR,
		"train_number", booking.TrainNumber, "passengers", len(booking.Passengers))

	return booking, nil
}

// Cancel cancels a paid booking and computes the tiered refund. Seats
// return to the inventory exactly once; a second cancel of the same
// booking fails without touching the inventory again.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID int64, reason string) (*models.Booking, *fare.Refund, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking == nil {
		return nil, nil, apperrors.ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, nil, apperrors.ErrForbidden
	}
	if booking.Status == models.StatusCancelled {
		return nil, nil, apperrors.ErrAlreadyCancelled
	}
	if booking.PaymentStatus != models.PaymentCompleted {
		return nil, nil, apperrors.ErrPaymentNotCompleted
	}

	now := s.now()
	refund := fare.RefundAt(booking.TotalPrice, booking.JourneyDate, now)

	booking.Status = models.StatusCancelled
	booking.PaymentStatus = models.PaymentRefunded
	booking.CancelledAt = &now
	booking.RefundAmount = &refund.Amount
	booking.CancellationCharge = &refund.CancellationCharge
	if reason != "" {
		booking.CancelReason = &reason
	}
	booking.IsActive = false

	if err := s.bookings.Cancel(ctx, booking); err != nil {
		return nil, nil, err
	}

	metrics.BookingsCancelled.Inc()
	s.invalidateSearches(ctx)

	publish(s.events, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:    booking.ID,
		PNR:          booking.PNR,
		RefundAmount: refund.Amount,
		Reason:       reason,
		Timestamp:    now,
	})

	slog.Info("Booking cancelled",
		"booking_id", booking.ID, "pnr", booking.PNR,
		"refund_amount", refund.Amount, "cancellation_charge", refund.CancellationCharge)

	return booking, &refund, nil
}

// Get returns a booking if it belongs to the user.
func (s *BookingService) Get(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return booking, nil
}

// GetByPNR looks up a booking by its PNR. PNR lookup is public; the
// PNR itself is the access token.
func (s *BookingService) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	booking, err := s.bookings.GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	return booking, nil
}

// List returns one page of the user's bookings, optionally filtered by
// status.
func (s *BookingService) List(ctx context.Context, userID int64, status string, page, limit int) (*models.ListBookingsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	bookings, total, err := s.bookings.GetByUserID(ctx, userID, status, page, limit)
	if err != nil {
		return nil, err
	}

	resp := &models.ListBookingsResponse{
		Bookings: make([]models.BookingSummary, 0, len(bookings)),
		Page:     page,
		Limit:    limit,
		Total:    total,
	}
	for i := range bookings {
		resp.Bookings = append(resp.Bookings, summarize(&bookings[i]))
	}

	return resp, nil
}

// Upcoming returns the user's live future bookings.
func (s *BookingService) Upcoming(ctx context.Context, userID int64) ([]models.BookingSummary, error) {
	bookings, err := s.bookings.Upcoming(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.BookingSummary, 0, len(bookings))
	for i := range bookings {
		summaries = append(summaries, summarize(&bookings[i]))
	}
	return summaries, nil
}

// History returns the user's past and cancelled bookings.
func (s *BookingService) History(ctx context.Context, userID int64, limit int) ([]models.BookingSummary, error) {
	bookings, err := s.bookings.History(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.BookingSummary, 0, len(bookings))
	for i := range bookings {
		summaries = append(summaries, summarize(&bookings[i]))
	}
	return summaries, nil
}

func (s *BookingService) invalidateSearches(ctx context.Context) {
	if s.valkey == nil {
		return
	}
	if err := s.valkey.InvalidateSearches(ctx); err != nil {
		slog.Warn("Failed to invalidate search cache", "error", err)
	}
}

func summarize(b *models.Booking) models.BookingSummary {
	return models.BookingSummary{
		ID:            b.ID,
		PNR:           b.PNR,
		TrainNumber:   b.TrainNumber,
		TrainName:     b.TrainName,
		From:          b.From.StationCode,
		To:            b.To.StationCode,
		JourneyDate:   b.JourneyDate,
		ClassName:     b.ClassName,
		Passengers:    len(b.Passengers),
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TotalPrice:    b.TotalPrice,
	}
}
