package models

import (
	"time"
)

// BookingStatus is the reservation lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed     BookingStatus = "Confirmed"
	StatusRAC           BookingStatus = "RAC"
	StatusWaitingList   BookingStatus = "Waiting List"
	StatusCancelled     BookingStatus = "Cancelled"
	StatusChartPrepared BookingStatus = "Chart Prepared"
)

// PaymentStatus is the payment lifecycle state of a booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentRefunded  PaymentStatus = "Refunded"
)

// User represents a user account in the system
type User struct {
	ID           int64     `json:"id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	RewardPoints int64     `json:"reward_points" db:"reward_points"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// RouteStop is one scheduled halt on a train's route. Distance is the
// cumulative distance from the origin station; stops are ordered by
// Position with strictly increasing Distance.
type RouteStop struct {
	Position      int    `json:"position" db:"position"`
	StationCode   string `json:"station_code" db:"station_code"`
	StationName   string `json:"station_name" db:"station_name"`
	ArrivalTime   string `json:"arrival_time" db:"arrival_time"`
	DepartureTime string `json:"departure_time" db:"departure_time"`
	Platform      string `json:"platform" db:"platform"`
	Distance      int64  `json:"distance_km" db:"distance_km"`
	Day           int    `json:"day" db:"day"`
}

// TrainClass is one fare class on a train with its seat inventory and
// pricing parameters.
type TrainClass struct {
	Type           string  `json:"type" db:"class_type"`
	Name           string  `json:"name" db:"class_name"`
	TotalSeats     int     `json:"total_seats" db:"total_seats"`
	AvailableSeats int     `json:"available_seats" db:"available_seats"`
	BasePrice      int64   `json:"base_price" db:"base_price"`
	PricePerKm     float64 `json:"price_per_km" db:"price_per_km"`
}

// Train represents a train in the directory
type Train struct {
	ID            int64        `json:"id" db:"id"`
	Number        string       `json:"train_number" db:"train_number"`
	Name          string       `json:"train_name" db:"train_name"`
	Type          string       `json:"train_type" db:"train_type"`
	Route         []RouteStop  `json:"route"`
	Classes       []TrainClass `json:"classes"`
	RunningDays   []string     `json:"running_days" db:"running_days"`
	TotalDistance int64        `json:"total_distance" db:"total_distance"`
	IsActive      bool         `json:"is_active" db:"is_active"`
}

// StopByCode returns the route stop with the given station code, or nil.
func (t *Train) StopByCode(code string) *RouteStop {
	for i := range t.Route {
		if t.Route[i].StationCode == code {
			return &t.Route[i]
		}
	}
	return nil
}

// ClassByType returns the fare class with the given type code, or nil.
func (t *Train) ClassByType(classType string) *TrainClass {
	for i := range t.Classes {
		if t.Classes[i].Type == classType {
			return &t.Classes[i]
		}
	}
	return nil
}

// RunsOn reports whether the train runs on the named weekday.
func (t *Train) RunsOn(dayName string) bool {
	for _, d := range t.RunningDays {
		if d == dayName {
			return true
		}
	}
	return false
}

// Station is a directory entry derived from train routes.
type Station struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Passenger is one traveller on a booking. Seat and coach are empty
// until chart preparation assigns them.
type Passenger struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Age        int    `json:"age" db:"age"`
	Gender     string `json:"gender" db:"gender"`
	SeatNumber string `json:"seat_number" db:"seat_number"`
	CoachCode  string `json:"coach_code" db:"coach_code"`
}

// StopSnapshot is the immutable copy of a route stop captured at booking
// time. It is not a live join against the train directory.
type StopSnapshot struct {
	StationCode string `json:"station_code"`
	StationName string `json:"station_name"`
	Time        string `json:"time"`
	Platform    string `json:"platform"`
}

// Booking represents a booking in the system
type Booking struct {
	ID                 int64         `json:"id" db:"id"`
	PNR                string        `json:"pnr" db:"pnr"`
	UserID             int64         `json:"user_id" db:"user_id"`
	TrainID            int64         `json:"train_id" db:"train_id"`
	TrainNumber        string        `json:"train_number" db:"train_number"`
	TrainName          string        `json:"train_name" db:"train_name"`
	From               StopSnapshot  `json:"from"`
	To                 StopSnapshot  `json:"to"`
	JourneyDate        time.Time     `json:"journey_date" db:"journey_date"`
	Passengers         []Passenger   `json:"passengers"`
	ClassType          string        `json:"class_type" db:"class_type"`
	ClassName          string        `json:"class_name" db:"class_name"`
	BasePrice          int64         `json:"base_price" db:"base_price"`
	Tax                int64         `json:"tax" db:"tax"`
	ConvenienceFee     int64         `json:"convenience_fee" db:"convenience_fee"`
	Discount           int64         `json:"discount" db:"discount"`
	TotalPrice         int64         `json:"total_price" db:"total_price"`
	Status             BookingStatus `json:"status" db:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentID          *string       `json:"payment_id,omitempty" db:"payment_id"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	RefundAmount       *int64        `json:"refund_amount,omitempty" db:"refund_amount"`
	CancellationCharge *int64        `json:"cancellation_charge,omitempty" db:"cancellation_charge"`
	CancelReason       *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	IsActive           bool          `json:"is_active" db:"is_active"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}
