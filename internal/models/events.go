package models

import "time"

// NATS event subjects
const (
	EventBookingCreated       = "booking.created"
	EventPaymentCompleted     = "payment.completed"
	EventPaymentFailed        = "payment.failed"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingChartPrepared = "booking.chart_prepared"
)

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID   int64     `json:"booking_id"`
	PNR         string    `json:"pnr"`
	TrainNumber string    `json:"train_number"`
	UserID      int64     `json:"user_id"`
	TotalPrice  int64     `json:"total_price"`
	Timestamp   time.Time `json:"timestamp"`
}

// PaymentCompletedEvent represents a successful payment event
type PaymentCompletedEvent struct {
	BookingID    int64     `json:"booking_id"`
	PNR          string    `json:"pnr"`
	PaymentID    string    `json:"payment_id"`
	Amount       int64     `json:"amount"`
	RewardPoints int64     `json:"reward_points"`
	Timestamp    time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed payment event
type PaymentFailedEvent struct {
	BookingID int64     `json:"booking_id"`
	PNR       string    `json:"pnr"`
	PaymentID string    `json:"payment_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID    int64     `json:"booking_id"`
	PNR          string    `json:"pnr"`
	RefundAmount int64     `json:"refund_amount"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// BookingChartPreparedEvent represents a chart preparation event
type BookingChartPreparedEvent struct {
	BookingID   int64     `json:"booking_id"`
	PNR         string    `json:"pnr"`
	TrainNumber string    `json:"train_number"`
	Timestamp   time.Time `json:"timestamp"`
}
