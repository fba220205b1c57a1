package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"koel/internal/apperrors"
	"koel/internal/models"
)

// In-memory stores mirroring the repository semantics: Create and
// Cancel adjust the seat inventory atomically under one lock.

type memStore struct {
	mu sync.Mutex

	trains map[string]*models.Train

	bookings      map[int64]*models.Booking
	nextBookingID int64
	nextPNR       int

	users      map[int64]*models.User
	nextUserID int64

	publishedSubjects []string
}

func newMemStore(trains ...*models.Train) *memStore {
	s := &memStore{
		trains:   make(map[string]*models.Train),
		bookings: make(map[int64]*models.Booking),
		users:    make(map[int64]*models.User),
	}
	for _, t := range trains {
		s.trains[t.Number] = t
	}
	return s
}

func (s *memStore) Publish(subject string, event interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishedSubjects = append(s.publishedSubjects, subject)
	return nil
}

func (s *memStore) published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.publishedSubjects))
	copy(out, s.publishedSubjects)
	return out
}

// TrainStore

func (s *memStore) GetByNumber(ctx context.Context, number string) (*models.Train, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	train, ok := s.trains[number]
	if !ok {
		return nil, nil
	}
	cp := *train
	cp.Classes = append([]models.TrainClass(nil), train.Classes...)
	cp.Route = append([]models.RouteStop(nil), train.Route...)
	return &cp, nil
}

func (s *memStore) Search(ctx context.Context, fromCode, toCode, dayName string) ([]models.Train, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Train
	for _, train := range s.trains {
		if !train.IsActive || !train.RunsOn(dayName) {
			continue
		}
		from := train.StopByCode(fromCode)
		to := train.StopByCode(toCode)
		if from == nil || to == nil || from.Position >= to.Position {
			continue
		}
		out = append(out, *train)
	}
	return out, nil
}

func (s *memStore) Stations(ctx context.Context) ([]models.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []models.Station
	for _, train := range s.trains {
		for _, stop := range train.Route {
			if !seen[stop.StationCode] {
				seen[stop.StationCode] = true
				out = append(out, models.Station{Code: stop.StationCode, Name: stop.StationName})
			}
		}
	}
	return out, nil
}

func (s *memStore) availableSeats(trainNumber, classType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	train := s.trains[trainNumber]
	if train == nil {
		return -1
	}
	class := train.ClassByType(classType)
	if class == nil {
		return -1
	}
	return class.AvailableSeats
}

// BookingStore

func (s *memStore) Create(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var train *models.Train
	for _, t := range s.trains {
		if t.ID == booking.TrainID {
			train = t
			break
		}
	}
	if train == nil {
		return apperrors.ErrTrainNotFound
	}

	class := train.ClassByType(booking.ClassType)
	if class == nil {
		return apperrors.ErrClassUnavailable
	}
	if class.AvailableSeats < len(booking.Passengers) {
		return apperrors.ErrInsufficientSeats
	}
	class.AvailableSeats -= len(booking.Passengers)

	s.nextBookingID++
	s.nextPNR++
	booking.ID = s.nextBookingID
	booking.PNR = fmt.Sprintf("PNR%07d", s.nextPNR)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	cp := *booking
	s.bookings[booking.ID] = &cp
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *booking
	return &cp, nil
}

func (s *memStore) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, booking := range s.bookings {
		if booking.PNR == pnr {
			cp := *booking
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, booking := range s.bookings {
		if booking.PaymentID != nil && *booking.PaymentID == paymentID {
			cp := *booking
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetByUserID(ctx context.Context, userID int64, status string, page, limit int) ([]models.Booking, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID != userID {
			continue
		}
		if status != "" && string(booking.Status) != status {
			continue
		}
		out = append(out, *booking)
	}
	return out, len(out), nil
}

func (s *memStore) PaymentHistory(ctx context.Context, userID int64, page, limit int) ([]models.Booking, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID != userID {
			continue
		}
		switch booking.PaymentStatus {
		case models.PaymentCompleted, models.PaymentFailed, models.PaymentRefunded:
			out = append(out, *booking)
		}
	}
	return out, len(out), nil
}

func (s *memStore) Upcoming(ctx context.Context, userID int64) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID == userID && booking.IsActive && booking.Status != models.StatusCancelled {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (s *memStore) History(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, booking := range s.bookings {
		if booking.UserID == userID && booking.Status == models.StatusCancelled {
			out = append(out, *booking)
		}
	}
	return out, nil
}

func (s *memStore) UpdatePayment(ctx context.Context, bookingID int64, status models.PaymentStatus, paymentID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	booking, ok := s.bookings[bookingID]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	booking.PaymentStatus = status
	booking.PaymentID = paymentID
	return nil
}

func (s *memStore) Cancel(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[booking.ID]
	if !ok {
		return apperrors.ErrBookingNotFound
	}
	if stored.Status == models.StatusCancelled {
		return apperrors.ErrAlreadyCancelled
	}

	stored.Status = models.StatusCancelled
	stored.PaymentStatus = booking.PaymentStatus
	stored.CancelledAt = booking.CancelledAt
	stored.RefundAmount = booking.RefundAmount
	stored.CancellationCharge = booking.CancellationCharge
	stored.CancelReason = booking.CancelReason
	stored.IsActive = false

	for _, train := range s.trains {
		if train.ID != stored.TrainID {
			continue
		}
		if class := train.ClassByType(stored.ClassType); class != nil {
			class.AvailableSeats += len(stored.Passengers)
			if class.AvailableSeats > class.TotalSeats {
				class.AvailableSeats = class.TotalSeats
			}
		}
	}

	return nil
}

// UserStore

func (s *memStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.IsActive = true
	user.RegisteredAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) AddRewardPoints(ctx context.Context, userID, points int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.RewardPoints += points
	return nil
}

// userStoreAdapter resolves the method name clash between the booking
// and user sides of memStore for the UserStore interface.
type userStoreAdapter struct {
	s *memStore
}

func (a userStoreAdapter) Create(ctx context.Context, user *models.User) error {
	return a.s.CreateUser(ctx, user)
}

func (a userStoreAdapter) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return a.s.GetUserByID(ctx, id)
}

func (a userStoreAdapter) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return a.s.GetByEmail(ctx, email)
}

func (a userStoreAdapter) AddRewardPoints(ctx context.Context, userID, points int64) error {
	return a.s.AddRewardPoints(ctx, userID, points)
}
