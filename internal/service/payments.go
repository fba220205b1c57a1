package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"koel/internal/apperrors"
	"koel/internal/fare"
	"koel/internal/metrics"
	"koel/internal/models"

	"github.com/google/uuid"
)

const paymentWindow = 15 * time.Minute

type paymentIntent struct {
	ID        string
	BookingID int64
	UserID    int64
	Amount    int64
	Method    string
	Status    models.PaymentStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PaymentService runs the mock payment gateway. Intents live in memory;
// the durable outcome is the payment status on the booking row.
type PaymentService struct {
	bookings BookingStore
	users    UserStore
	events   Publisher

	mu      sync.Mutex
	intents map[string]*paymentIntent

	now func() time.Time
}

func NewPaymentService(bookings BookingStore, users UserStore, events Publisher) *PaymentService {
	return &PaymentService{
		bookings: bookings,
		users:    users,
		events:   events,
		intents:  make(map[string]*paymentIntent),
		now:      time.Now,
	}
}

// Initiate opens a payment window for a pending booking.
func (s *PaymentService) Initiate(ctx context.Context, userID int64, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	if booking.Status == models.StatusCancelled {
		return nil, apperrors.ErrAlreadyCancelled
	}
	if booking.PaymentStatus == models.PaymentCompleted {
		return nil, apperrors.ErrAlreadyPaid
	}

	now := s.now()
	intent := &paymentIntent{
		ID:        "PAY_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		BookingID: booking.ID,
		UserID:    userID,
		Amount:    booking.TotalPrice,
		Method:    req.PaymentMethod,
		Status:    models.PaymentPending,
		CreatedAt: now,
		ExpiresAt: now.Add(paymentWindow),
	}

	if err := s.bookings.UpdatePayment(ctx, booking.ID, models.PaymentPending, &intent.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.intents[intent.ID] = intent
	s.mu.Unlock()

	return &models.InitiatePaymentResponse{
		PaymentID: intent.ID,
		BookingID: booking.ID,
		Amount:    intent.Amount,
		Currency:  "INR",
		ExpiresAt: intent.ExpiresAt,
	}, nil
}

// ProcessCard settles a payment intent with card details. A valid card
// completes the payment and credits reward points; an invalid card or
// an expired window fails the payment.
func (s *PaymentService) ProcessCard(ctx context.Context, userID int64, req *models.CardPaymentRequest) (*models.CardPaymentResponse, error) {
	s.mu.Lock()
	intent, ok := s.intents[req.PaymentID]
	s.mu.Unlock()
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	if intent.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	booking, err := s.bookings.GetByID(ctx, intent.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	if booking.PaymentStatus == models.PaymentCompleted {
		return nil, apperrors.ErrAlreadyPaid
	}

	now := s.now()
	if now.After(intent.ExpiresAt) {
		s.fail(ctx, intent, booking, "payment window expired")
		return nil, apperrors.ErrPaymentExpired
	}

	if !validCard(req, now) {
		s.fail(ctx, intent, booking, "card validation failed")
		return nil, apperrors.ErrInvalidCard
	}

	points, err := s.complete(ctx, intent, booking)
	if err != nil {
		return nil, err
	}

	return &models.CardPaymentResponse{
		PaymentID:          intent.ID,
		PNR:                booking.PNR,
		Amount:             intent.Amount,
		RewardPointsEarned: points,
	}, nil
}

// ProcessUPI settles a payment intent against a UPI handle. A
// well-formed VPA completes the payment through the same path as a
// card.
func (s *PaymentService) ProcessUPI(ctx context.Context, userID int64, req *models.UPIPaymentRequest) (*models.UPIPaymentResponse, error) {
	s.mu.Lock()
	intent, ok := s.intents[req.PaymentID]
	s.mu.Unlock()
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	if intent.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	booking, err := s.bookings.GetByID(ctx, intent.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.ErrBookingNotFound
	}
	if booking.PaymentStatus == models.PaymentCompleted {
		return nil, apperrors.ErrAlreadyPaid
	}

	if s.now().After(intent.ExpiresAt) {
		s.fail(ctx, intent, booking, "payment window expired")
		return nil, apperrors.ErrPaymentExpired
	}

	if !validVPA(req.VPA) {
		s.fail(ctx, intent, booking, "VPA validation failed")
		return nil, apperrors.ErrInvalidVPA
	}

	points, err := s.complete(ctx, intent, booking)
	if err != nil {
		return nil, err
	}

	return &models.UPIPaymentResponse{
		PaymentID:          intent.ID,
		PNR:                booking.PNR,
		Amount:             intent.Amount,
		RewardPointsEarned: points,
	}, nil
}

// History returns one page of the user's settled payments, newest
// first.
func (s *PaymentService) History(ctx context.Context, userID int64, page, limit int) (*models.PaymentHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	bookings, total, err := s.bookings.PaymentHistory(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	resp := &models.PaymentHistoryResponse{
		Payments: make([]models.PaymentRecord, 0, len(bookings)),
		Page:     page,
		Limit:    limit,
		Total:    total,
	}
	for i := range bookings {
		b := &bookings[i]
		record := models.PaymentRecord{
			PNR:           b.PNR,
			TrainNumber:   b.TrainNumber,
			TrainName:     b.TrainName,
			Amount:        b.TotalPrice,
			PaymentStatus: b.PaymentStatus,
			CreatedAt:     b.CreatedAt,
		}
		if b.PaymentID != nil {
			record.PaymentID = *b.PaymentID
		}
		resp.Payments = append(resp.Payments, record)
	}
	return resp, nil
}

// complete marks the intent and booking paid and credits reward
// points. The payment has settled once the booking row is updated; a
// reward credit failure is logged, not surfaced to the payer.
func (s *PaymentService) complete(ctx context.Context, intent *paymentIntent, booking *models.Booking) (int64, error) {
	if err := s.bookings.UpdatePayment(ctx, booking.ID, models.PaymentCompleted, &intent.ID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	intent.Status = models.PaymentCompleted
	s.mu.Unlock()

	points := fare.RewardPoints(booking.TotalPrice)
	if err := s.users.AddRewardPoints(ctx, booking.UserID, points); err != nil {
		slog.Warn("Failed to credit reward points",
			"booking_id", booking.ID, "user_id", booking.UserID,
			"points", points, "error", err)
		points = 0
	}

	metrics.PaymentsCompleted.Inc()

	publish(s.events, models.EventPaymentCompleted, models.PaymentCompletedEvent{
		BookingID:    booking.ID,
		PNR:          booking.PNR,
		PaymentID:    intent.ID,
		Amount:       intent.Amount,
		RewardPoints: points,
		Timestamp:    s.now(),
	})

	return points, nil
}

// Status reports the current state of a payment. The booking row is
// the durable record, so a payment id survives a restart even though
// its intent does not.
func (s *PaymentService) Status(ctx context.Context, userID int64, paymentID string) (*models.PaymentStatusResponse, error) {
	s.mu.Lock()
	intent, ok := s.intents[paymentID]
	s.mu.Unlock()

	var booking *models.Booking
	var err error
	if ok {
		if intent.UserID != userID {
			return nil, apperrors.ErrForbidden
		}
		booking, err = s.bookings.GetByID(ctx, intent.BookingID)
	} else {
		booking, err = s.bookings.GetByPaymentID(ctx, paymentID)
	}
	if err != nil {
		return nil, err
	}
	if booking == nil {
		if ok {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, apperrors.ErrPaymentNotFound
	}
	if booking.UserID != userID {
		return nil, apperrors.ErrForbidden
	}

	return &models.PaymentStatusResponse{
		PaymentID:     paymentID,
		BookingID:     booking.ID,
		PNR:           booking.PNR,
		Amount:        booking.TotalPrice,
		PaymentStatus: booking.PaymentStatus,
		BookingStatus: booking.Status,
	}, nil
}

func (s *PaymentService) fail(ctx context.Context, intent *paymentIntent, booking *models.Booking, reason string) {
	s.mu.Lock()
	intent.Status = models.PaymentFailed
	s.mu.Unlock()

	if err := s.bookings.UpdatePayment(ctx, booking.ID, models.PaymentFailed, &intent.ID); err == nil {
		metrics.PaymentsFailed.Inc()
	}

	publish(s.events, models.EventPaymentFailed, models.PaymentFailedEvent{
		BookingID: booking.ID,
		PNR:       booking.PNR,
		PaymentID: intent.ID,
		Reason:    reason,
		Timestamp: s.now(),
	})
}

func validCard(req *models.CardPaymentRequest, now time.Time) bool {
	number := strings.ReplaceAll(req.CardNumber, " ", "")
	if len(number) < 13 || len(number) > 19 {
		return false
	}
	if !luhnValid(number) {
		return false
	}

	if req.ExpiryYear < now.Year() {
		return false
	}
	if req.ExpiryYear == now.Year() && req.ExpiryMonth < int(now.Month()) {
		return false
	}

	for _, r := range req.CVV {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,}@[a-zA-Z]{2,}$`)

func validVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
