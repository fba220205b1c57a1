// Package service implements the business rules on top of the
// repositories: fare quoting, the booking lifecycle state machine,
// payment processing and the reward ledger.
package service

import (
	"context"
	"log/slog"

	"koel/internal/cache"
	"koel/internal/models"
)

// TrainStore is the train directory access the services need.
type TrainStore interface {
	GetByNumber(ctx context.Context, number string) (*models.Train, error)
	Search(ctx context.Context, fromCode, toCode, dayName string) ([]models.Train, error)
	Stations(ctx context.Context) ([]models.Station, error)
}

// BookingStore is the booking access the services need. Create and
// Cancel are atomic with their inventory adjustments.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*models.Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error)
	GetByUserID(ctx context.Context, userID int64, status string, page, limit int) ([]models.Booking, int, error)
	PaymentHistory(ctx context.Context, userID int64, page, limit int) ([]models.Booking, int, error)
	Upcoming(ctx context.Context, userID int64) ([]models.Booking, error)
	History(ctx context.Context, userID int64, limit int) ([]models.Booking, error)
	UpdatePayment(ctx context.Context, bookingID int64, status models.PaymentStatus, paymentID *string) error
	Cancel(ctx context.Context, booking *models.Booking) error
}

// UserStore is the user account access the services need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AddRewardPoints(ctx context.Context, userID, points int64) error
}

// Publisher emits lifecycle events. A nil Publisher disables events.
type Publisher interface {
	Publish(subject string, event interface{}) error
}

// Services bundles all business services for the API server.
type Services struct {
	Trains   *TrainService
	Bookings *BookingService
	Payments *PaymentService
	Users    *UserService
}

type Deps struct {
	Trains   TrainStore
	Bookings BookingStore
	Users    UserStore
	Events   Publisher
	Valkey   *cache.ValkeyClient
}

func NewServices(deps Deps) *Services {
	return &Services{
		Trains:   NewTrainService(deps.Trains, deps.Valkey),
		Bookings: NewBookingService(deps.Bookings, deps.Trains, deps.Events, deps.Valkey),
		Payments: NewPaymentService(deps.Bookings, deps.Users, deps.Events),
		Users:    NewUserService(deps.Users),
	}
}

// publish sends an event if a publisher is wired, logging failures
// instead of propagating them.
func publish(events Publisher, subject string, event interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(subject, event); err != nil {
		slog.Error("Failed to publish event", "subject", subject, "error", err)
	}
}
