package apperrors

import "errors"

// Domain-rule violations. Every operation that returns one of these
// leaves the store untouched.
var (
	// ErrInsufficientSeats is returned when a class has fewer available
	// seats than the booking requests.
	ErrInsufficientSeats = errors.New("insufficient seats available")

	// ErrStationNotFound is returned when a station code is not part of
	// the train's route.
	ErrStationNotFound = errors.New("station not found in route")

	// ErrClassUnavailable is returned when the requested class does not
	// exist on the train.
	ErrClassUnavailable = errors.New("class not available on this train")

	// ErrTrainNotRunning is returned when the train does not run on the
	// weekday of the journey date.
	ErrTrainNotRunning = errors.New("train does not run on this date")

	// ErrAlreadyCancelled is returned when cancelling a booking that is
	// already cancelled.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrPaymentNotCompleted is returned when cancelling a booking whose
	// payment has not completed.
	ErrPaymentNotCompleted = errors.New("cannot cancel booking with pending payment")

	// ErrAlreadyPaid is returned when confirming payment for a booking
	// that is already paid.
	ErrAlreadyPaid = errors.New("payment already completed")

	// ErrInvalidCard is returned when card details fail validation.
	ErrInvalidCard = errors.New("invalid card details")

	// ErrInvalidVPA is returned when a UPI handle fails validation.
	ErrInvalidVPA = errors.New("invalid UPI handle")

	// ErrPaymentExpired is returned when a payment is attempted after
	// its intent expired.
	ErrPaymentExpired = errors.New("payment window has expired")

	// ErrJourneyDateInPast is returned when the journey date is before
	// today.
	ErrJourneyDateInPast = errors.New("journey date cannot be in the past")
)

// Not-found errors.
var (
	ErrTrainNotFound   = errors.New("train not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// Access errors.
var (
	ErrUnauthorized = errors.New("user is not authorized")
	ErrForbidden    = errors.New("operation is forbidden for user")
	ErrEmailTaken   = errors.New("email is already registered")
)
