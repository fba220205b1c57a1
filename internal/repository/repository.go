// Package repository holds all SQL access. Every multi-row write that
// touches the seat inventory runs inside one transaction with a row
// lock on the train class, so inventory checks and mutations are
// serialized per (train, class).
package repository

import (
	"koel/internal/database"
)

type Repositories struct {
	Trains   *TrainRepository
	Bookings *BookingRepository
	Users    *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Trains:   NewTrainRepository(db),
		Bookings: NewBookingRepository(db),
		Users:    NewUserRepository(db),
	}
}
