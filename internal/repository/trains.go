package repository

import (
	"context"
	"database/sql"

	"koel/internal/apperrors"
	"koel/internal/database"
	"koel/internal/models"

	"github.com/lib/pq"
)

type TrainRepository struct {
	db *database.DB
}

func NewTrainRepository(db *database.DB) *TrainRepository {
	return &TrainRepository{db: db}
}

func (r *TrainRepository) Create(ctx context.Context, train *models.Train) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO trains (train_number, train_name, train_type, running_days, total_distance, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err = tx.QueryRowContext(ctx, query,
		train.Number,
		train.Name,
		train.Type,
		pq.Array(train.RunningDays),
		train.TotalDistance,
		train.IsActive,
	).Scan(&train.ID)
	if err != nil {
		return err
	}

	for _, stop := range train.Route {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO train_stops (train_id, position, station_code, station_name, arrival_time, departure_time, platform, distance_km, day)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			train.ID, stop.Position, stop.StationCode, stop.StationName,
			stop.ArrivalTime, stop.DepartureTime, stop.Platform, stop.Distance, stop.Day)
		if err != nil {
			return err
		}
	}

	for _, class := range train.Classes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO train_classes (train_id, class_type, class_name, total_seats, available_seats, base_price, price_per_km)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			train.ID, class.Type, class.Name, class.TotalSeats,
			class.AvailableSeats, class.BasePrice, class.PricePerKm)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *TrainRepository) GetByID(ctx context.Context, id int64) (*models.Train, error) {
	train := &models.Train{}
	query := `
		SELECT id, train_number, train_name, train_type, running_days, total_distance, is_active
		FROM trains
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&train.ID,
		&train.Number,
		&train.Name,
		&train.Type,
		pq.Array(&train.RunningDays),
		&train.TotalDistance,
		&train.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadRouteAndClasses(ctx, train); err != nil {
		return nil, err
	}

	return train, nil
}

func (r *TrainRepository) GetByNumber(ctx context.Context, number string) (*models.Train, error) {
	train := &models.Train{}
	query := `
		SELECT id, train_number, train_name, train_type, running_days, total_distance, is_active
		FROM trains
		WHERE train_number = $1`

	err := r.db.QueryRowContext(ctx, query, number).Scan(
		&train.ID,
		&train.Number,
		&train.Name,
		&train.Type,
		pq.Array(&train.RunningDays),
		&train.TotalDistance,
		&train.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadRouteAndClasses(ctx, train); err != nil {
		return nil, err
	}

	return train, nil
}

// Search returns active trains that run on the given weekday and serve
// both stations with the origin before the destination.
func (r *TrainRepository) Search(ctx context.Context, fromCode, toCode, dayName string) ([]models.Train, error) {
	query := `
		SELECT t.id, t.train_number, t.train_name, t.train_type, t.running_days, t.total_distance, t.is_active
		FROM trains t
		JOIN train_stops f ON f.train_id = t.id AND f.station_code = $1
		JOIN train_stops d ON d.train_id = t.id AND d.station_code = $2
		WHERE t.is_active
		  AND $3 = ANY(t.running_days)
		  AND f.position < d.position
		ORDER BY t.train_number`

	rows, err := r.db.QueryContext(ctx, query, fromCode, toCode, dayName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trains []models.Train
	for rows.Next() {
		var train models.Train
		err := rows.Scan(
			&train.ID,
			&train.Number,
			&train.Name,
			&train.Type,
			pq.Array(&train.RunningDays),
			&train.TotalDistance,
			&train.IsActive,
		)
		if err != nil {
			return nil, err
		}
		trains = append(trains, train)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range trains {
		if err := r.loadRouteAndClasses(ctx, &trains[i]); err != nil {
			return nil, err
		}
	}

	return trains, nil
}

// Stations returns every distinct station appearing on an active route.
func (r *TrainRepository) Stations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT DISTINCT s.station_code, s.station_name
		FROM train_stops s
		JOIN trains t ON t.id = s.train_id
		WHERE t.is_active
		ORDER BY s.station_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.Code, &st.Name); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}

	return stations, rows.Err()
}

// Reserve decrements available seats for a class. The check and the
// decrement run under a row lock so concurrent reservations against the
// same (train, class) are serialized and can never oversell.
func (r *TrainRepository) Reserve(ctx context.Context, trainID int64, classType string, count int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := reserveClassTx(ctx, tx, trainID, classType, count); err != nil {
		return err
	}

	return tx.Commit()
}

// Release returns seats to a class, clamped at total seats so a
// duplicate release can never inflate the inventory.
func (r *TrainRepository) Release(ctx context.Context, trainID int64, classType string, count int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := releaseClassTx(ctx, tx, trainID, classType, count); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *TrainRepository) loadRouteAndClasses(ctx context.Context, train *models.Train) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT position, station_code, station_name, arrival_time, departure_time, platform, distance_km, day
		FROM train_stops
		WHERE train_id = $1
		ORDER BY position`, train.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var stop models.RouteStop
		err := rows.Scan(
			&stop.Position,
			&stop.StationCode,
			&stop.StationName,
			&stop.ArrivalTime,
			&stop.DepartureTime,
			&stop.Platform,
			&stop.Distance,
			&stop.Day,
		)
		if err != nil {
			return err
		}
		train.Route = append(train.Route, stop)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	classRows, err := r.db.QueryContext(ctx, `
		SELECT class_type, class_name, total_seats, available_seats, base_price, price_per_km
		FROM train_classes
		WHERE train_id = $1
		ORDER BY class_type`, train.ID)
	if err != nil {
		return err
	}
	defer classRows.Close()

	for classRows.Next() {
		var class models.TrainClass
		err := classRows.Scan(
			&class.Type,
			&class.Name,
			&class.TotalSeats,
			&class.AvailableSeats,
			&class.BasePrice,
			&class.PricePerKm,
		)
		if err != nil {
			return err
		}
		train.Classes = append(train.Classes, class)
	}

	return classRows.Err()
}

// reserveClassTx locks the inventory row, checks availability and
// decrements. It is shared by the standalone Reserve and the atomic
// booking-creation transaction.
func reserveClassTx(ctx context.Context, tx *sql.Tx, trainID int64, classType string, count int) error {
	var available int
	err := tx.QueryRowContext(ctx, `
		SELECT available_seats
		FROM train_classes
		WHERE train_id = $1 AND class_type = $2
		FOR UPDATE`, trainID, classType).Scan(&available)
	if err == sql.ErrNoRows {
		return apperrors.ErrClassUnavailable
	}
	if err != nil {
		return err
	}

	if available < count {
		return apperrors.ErrInsufficientSeats
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE train_classes
		SET available_seats = available_seats - $1
		WHERE train_id = $2 AND class_type = $3`, count, trainID, classType)
	return err
}

func releaseClassTx(ctx context.Context, tx *sql.Tx, trainID int64, classType string, count int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE train_classes
		SET available_seats = LEAST(total_seats, available_seats + $1)
		WHERE train_id = $2 AND class_type = $3`, count, trainID, classType)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrClassUnavailable
	}

	return nil
}
