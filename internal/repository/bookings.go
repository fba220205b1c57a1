package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"

	"koel/internal/apperrors"
	"koel/internal/database"
	"koel/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomPNR() string {
	b := make([]byte, 10)
	for i := range b {
		b[i] = pnrAlphabet[rand.Intn(len(pnrAlphabet))]
	}
	return string(b)
}

const bookingColumns = `
	id, pnr, user_id, train_id, train_number, train_name,
	from_station_code, from_station_name, from_time, from_platform,
	to_station_code, to_station_name, to_time, to_platform,
	journey_date, class_type, class_name,
	base_price, tax, convenience_fee, discount, total_price,
	status, payment_status, payment_id,
	cancelled_at, refund_amount, cancellation_charge, cancel_reason,
	is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.PNR, &b.UserID, &b.TrainID, &b.TrainNumber, &b.TrainName,
		&b.From.StationCode, &b.From.StationName, &b.From.Time, &b.From.Platform,
		&b.To.StationCode, &b.To.StationName, &b.To.Time, &b.To.Platform,
		&b.JourneyDate, &b.ClassType, &b.ClassName,
		&b.BasePrice, &b.Tax, &b.ConvenienceFee, &b.Discount, &b.TotalPrice,
		&b.Status, &b.PaymentStatus, &b.PaymentID,
		&b.CancelledAt, &b.RefundAmount, &b.CancellationCharge, &b.CancelReason,
		&b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create reserves seats, allocates a PNR and inserts the booking with
// its passengers in a single transaction. Either the inventory is
// decremented and the booking exists, or neither happened.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = reserveClassTx(ctx, tx, booking.TrainID, booking.ClassType, len(booking.Passengers))
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if attempt >= 5 {
			return fmt.Errorf("could not allocate a unique PNR after %d attempts", attempt)
		}
		pnr := randomPNR()
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM bookings WHERE pnr = $1)`, pnr).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			booking.PNR = pnr
			break
		}
	}

	query := `
		INSERT INTO bookings (
			pnr, user_id, train_id, train_number, train_name,
			from_station_code, from_station_name, from_time, from_platform,
			to_station_code, to_station_name, to_time, to_platform,
			journey_date, class_type, class_name,
			base_price, tax, convenience_fee, discount, total_price,
			status, payment_status, is_active
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16,
			$17, $18, $19, $20, $21,
			$22, $23, TRUE
		)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		booking.PNR, booking.UserID, booking.TrainID, booking.TrainNumber, booking.TrainName,
		booking.From.StationCode, booking.From.StationName, booking.From.Time, booking.From.Platform,
		booking.To.StationCode, booking.To.StationName, booking.To.Time, booking.To.Platform,
		booking.JourneyDate, booking.ClassType, booking.ClassName,
		booking.BasePrice, booking.Tax, booking.ConvenienceFee, booking.Discount, booking.TotalPrice,
		booking.Status, booking.PaymentStatus,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range booking.Passengers {
		p := &booking.Passengers[i]
		err := tx.QueryRowContext(ctx, `
			INSERT INTO passengers (booking_id, name, age, gender, seat_number, coach_code)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			booking.ID, p.Name, p.Age, p.Gender, p.SeatNumber, p.CoachCode).Scan(&p.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) GetByPNR(ctx context.Context, pnr string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE pnr = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, pnr))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_id = $1`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, paymentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPassengers(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// GetByUserID returns one page of a user's bookings, newest first, with
// the total count. An empty status matches all statuses.
func (r *BookingRepository) GetByUserID(ctx context.Context, userID int64, status string, page, limit int) ([]models.Booking, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, userID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, userID, status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// PaymentHistory returns one page of the user's bookings that carry a
// settled payment, newest first, with the total count.
func (r *BookingRepository) PaymentHistory(ctx context.Context, userID int64, page, limit int) ([]models.Booking, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM bookings
		WHERE user_id = $1 AND payment_status IN ('Completed', 'Failed', 'Refunded')`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND payment_status IN ('Completed', 'Failed', 'Refunded')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings, err := r.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// Upcoming returns the user's live bookings with a journey date of
// today or later.
func (r *BookingRepository) Upcoming(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		  AND is_active
		  AND status <> 'Cancelled'
		  AND journey_date >= CURRENT_DATE
		ORDER BY journey_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

// History returns the user's past and cancelled bookings, newest first.
func (r *BookingRepository) History(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		  AND (status = 'Cancelled' OR journey_date < CURRENT_DATE)
		ORDER BY journey_date DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

// UpdatePayment records a payment transition on a booking.
func (r *BookingRepository) UpdatePayment(ctx context.Context, bookingID int64, paymentStatus models.PaymentStatus, paymentID *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET payment_status = $1, payment_id = $2, updated_at = NOW()
		WHERE id = $3`, paymentStatus, paymentID, bookingID)
	return err
}

// Cancel marks the booking cancelled with its refund breakdown and
// returns the held seats to the inventory in the same transaction.
func (r *BookingRepository) Cancel(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'Cancelled',
		    payment_status = $1,
		    cancelled_at = $2,
		    refund_amount = $3,
		    cancellation_charge = $4,
		    cancel_reason = $5,
		    is_active = FALSE,
		    updated_at = NOW()
		WHERE id = $6 AND status <> 'Cancelled'`,
		booking.PaymentStatus, booking.CancelledAt,
		booking.RefundAmount, booking.CancellationCharge, booking.CancelReason,
		booking.ID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Lost the race against another cancel, seats were already
		// restored once.
		return apperrors.ErrAlreadyCancelled
	}

	err = releaseClassTx(ctx, tx, booking.TrainID, booking.ClassType, len(booking.Passengers))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ChartDue returns paid confirmed bookings whose journey is close enough
// for chart preparation.
func (r *BookingRepository) ChartDue(ctx context.Context) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'Confirmed'
		  AND payment_status = 'Completed'
		  AND is_active
		  AND journey_date <= CURRENT_DATE + INTERVAL '1 day'
		ORDER BY journey_date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.collect(ctx, rows)
}

// MarkChartPrepared flips the booking to Chart Prepared and writes the
// seat assignments onto its passengers.
func (r *BookingRepository) MarkChartPrepared(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = 'Chart Prepared', updated_at = NOW()
		WHERE id = $1 AND status = 'Confirmed'`, booking.ID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tx.Commit()
	}

	for _, p := range booking.Passengers {
		_, err := tx.ExecContext(ctx, `
			UPDATE passengers
			SET seat_number = $1, coach_code = $2
			WHERE id = $3`, p.SeatNumber, p.CoachCode, p.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *BookingRepository) collect(ctx context.Context, rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range bookings {
		if err := r.loadPassengers(ctx, &bookings[i]); err != nil {
			return nil, err
		}
	}

	return bookings, nil
}

func (r *BookingRepository) loadPassengers(ctx context.Context, booking *models.Booking) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, age, gender, seat_number, coach_code
		FROM passengers
		WHERE booking_id = $1
		ORDER BY id`, booking.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Passenger
		err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.SeatNumber, &p.CoachCode)
		if err != nil {
			return err
		}
		booking.Passengers = append(booking.Passengers, p)
	}

	return rows.Err()
}
