package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createTrainsTable,
		createTrainStopsTable,
		createTrainClassesTable,
		createBookingsTable,
		createPassengersTable,
		createBookingIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    name VARCHAR(50) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    phone VARCHAR(15) NOT NULL,
    password_hash VARCHAR(60) NOT NULL,
    reward_points BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (reward_points >= 0)
);`

const createTrainsTable = `
CREATE TABLE IF NOT EXISTS trains (
    id SERIAL PRIMARY KEY,
    train_number VARCHAR(5) UNIQUE NOT NULL,
    train_name VARCHAR(100) NOT NULL,
    train_type VARCHAR(20) NOT NULL DEFAULT 'Express',
    running_days TEXT[] NOT NULL,
    total_distance BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createTrainStopsTable = `
CREATE TABLE IF NOT EXISTS train_stops (
    id SERIAL PRIMARY KEY,
    train_id INTEGER NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    station_code VARCHAR(10) NOT NULL,
    station_name VARCHAR(100) NOT NULL,
    arrival_time VARCHAR(5),
    departure_time VARCHAR(5),
    platform VARCHAR(10) NOT NULL DEFAULT 'TBD',
    distance_km BIGINT NOT NULL,
    day INTEGER NOT NULL DEFAULT 1,

    UNIQUE(train_id, position),
    UNIQUE(train_id, station_code),
    CHECK (distance_km >= 0)
);`

const createTrainClassesTable = `
CREATE TABLE IF NOT EXISTS train_classes (
    id SERIAL PRIMARY KEY,
    train_id INTEGER NOT NULL REFERENCES trains(id) ON DELETE CASCADE,
    class_type VARCHAR(4) NOT NULL,
    class_name VARCHAR(30) NOT NULL,
    total_seats INTEGER NOT NULL,
    available_seats INTEGER NOT NULL,
    base_price BIGINT NOT NULL,
    price_per_km DOUBLE PRECISION NOT NULL,

    UNIQUE(train_id, class_type),
    CHECK (total_seats >= 1),
    CHECK (available_seats >= 0 AND available_seats <= total_seats),
    CHECK (base_price >= 0 AND price_per_km >= 0)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    pnr CHAR(10) UNIQUE NOT NULL,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    train_id INTEGER NOT NULL REFERENCES trains(id),
    train_number VARCHAR(5) NOT NULL,
    train_name VARCHAR(100) NOT NULL,
    from_station_code VARCHAR(10) NOT NULL,
    from_station_name VARCHAR(100) NOT NULL,
    from_time VARCHAR(5),
    from_platform VARCHAR(10),
    to_station_code VARCHAR(10) NOT NULL,
    to_station_name VARCHAR(100) NOT NULL,
    to_time VARCHAR(5),
    to_platform VARCHAR(10),
    journey_date DATE NOT NULL,
    class_type VARCHAR(4) NOT NULL,
    class_name VARCHAR(30) NOT NULL,
    base_price BIGINT NOT NULL,
    tax BIGINT NOT NULL,
    convenience_fee BIGINT NOT NULL,
    discount BIGINT NOT NULL DEFAULT 0,
    total_price BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'Confirmed',
    payment_status VARCHAR(20) NOT NULL DEFAULT 'Pending',
    payment_id VARCHAR(64),
    cancelled_at TIMESTAMP,
    refund_amount BIGINT,
    cancellation_charge BIGINT,
    cancel_reason TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (total_price >= 0),
    CHECK (status IN ('Confirmed', 'RAC', 'Waiting List', 'Cancelled', 'Chart Prepared')),
    CHECK (payment_status IN ('Pending', 'Completed', 'Failed', 'Refunded'))
);`

const createPassengersTable = `
CREATE TABLE IF NOT EXISTS passengers (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    name VARCHAR(50) NOT NULL,
    age INTEGER NOT NULL,
    gender VARCHAR(10) NOT NULL,
    seat_number VARCHAR(10) NOT NULL DEFAULT '',
    coach_code VARCHAR(10) NOT NULL DEFAULT '',

    CHECK (age >= 1 AND age <= 120),
    CHECK (gender IN ('Male', 'Female', 'Other'))
);`

const createBookingIndexes = `
CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id);
CREATE INDEX IF NOT EXISTS bookings_payment_id_idx ON bookings (payment_id);
CREATE INDEX IF NOT EXISTS bookings_journey_date_idx ON bookings (journey_date);
CREATE INDEX IF NOT EXISTS train_stops_station_code_idx ON train_stops (station_code);`
