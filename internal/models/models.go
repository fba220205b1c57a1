package models

import "time"

// RegisterRequest - payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterResponse - response after user registration
type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// RewardsResponse - reward ledger balance for a user
type RewardsResponse struct {
	UserID        int64  `json:"user_id"`
	CurrentPoints int64  `json:"current_points"`
	Tier          string `json:"tier"`
}

// PassengerRequest - one passenger on a booking request
type PassengerRequest struct {
	Name   string `json:"name" binding:"required,max=50"`
	Age    int    `json:"age" binding:"required,min=1,max=120"`
	Gender string `json:"gender" binding:"required,oneof=Male Female Other"`
}

// CreateBookingRequest - payload for creating a booking
type CreateBookingRequest struct {
	TrainNumber string             `json:"train_number" binding:"required"`
	From        string             `json:"from" binding:"required"`
	To          string             `json:"to" binding:"required"`
	JourneyDate string             `json:"journey_date" binding:"required"`
	ClassType   string             `json:"class_type" binding:"required"`
	Passengers  []PassengerRequest `json:"passengers" binding:"required,min=1,max=6,dive"`
}

// PriceBreakdown - the components of a booking's total price.
// BasePrice is the pre-tax fare, stored directly at computation time.
type PriceBreakdown struct {
	BasePrice      int64 `json:"base_price"`
	Tax            int64 `json:"tax"`
	ConvenienceFee int64 `json:"convenience_fee"`
	Discount       int64 `json:"discount"`
}

// CreateBookingResponse - response after creating a booking
type CreateBookingResponse struct {
	ID              int64          `json:"id"`
	PNR             string         `json:"pnr"`
	TotalPrice      int64          `json:"total_price"`
	Breakdown       PriceBreakdown `json:"breakdown"`
	PaymentRequired bool           `json:"payment_required"`
}

// BookingSummary - condensed booking view for list endpoints
type BookingSummary struct {
	ID            int64         `json:"id"`
	PNR           string        `json:"pnr"`
	TrainNumber   string        `json:"train_number"`
	TrainName     string        `json:"train_name"`
	From          string        `json:"from"`
	To            string        `json:"to"`
	JourneyDate   time.Time     `json:"journey_date"`
	ClassName     string        `json:"class_name"`
	Passengers    int           `json:"passengers"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalPrice    int64         `json:"total_price"`
}

// ListBookingsResponse - paged list of bookings
type ListBookingsResponse struct {
	Bookings []BookingSummary `json:"bookings"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int              `json:"total"`
}

// CancelBookingRequest - payload for cancelling a booking
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CancelBookingResponse - refund details after cancellation
type CancelBookingResponse struct {
	PNR                string `json:"pnr"`
	RefundAmount       int64  `json:"refund_amount"`
	CancellationCharge int64  `json:"cancellation_charge"`
	RefundPercentage   int    `json:"refund_percentage"`
}

// ClassFare - one priced fare class in a train search result
type ClassFare struct {
	Type           string `json:"type"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	AvailableSeats int    `json:"available_seats"`
	Available      bool   `json:"available"`
}

// TrainSearchResult - one train in a search response
type TrainSearchResult struct {
	TrainNumber string       `json:"train_number"`
	TrainName   string       `json:"train_name"`
	TrainType   string       `json:"train_type"`
	From        StopSnapshot `json:"from"`
	To          StopSnapshot `json:"to"`
	Distance    int64        `json:"distance_km"`
	Classes     []ClassFare  `json:"classes"`
}

// SearchTrainsResponse - train search results
type SearchTrainsResponse struct {
	Trains []TrainSearchResult `json:"trains"`
	From   string              `json:"from"`
	To     string              `json:"to"`
	Date   string              `json:"date"`
	Count  int                 `json:"count"`
}

// FareResponse - computed fare between two stations for a class
type FareResponse struct {
	TrainNumber       string `json:"train_number"`
	From              string `json:"from"`
	To                string `json:"to"`
	ClassType         string `json:"class_type"`
	Distance          int64  `json:"distance_km"`
	PricePerPassenger int64  `json:"price_per_passenger"`
}

// InitiatePaymentRequest - payload for initiating a payment
type InitiatePaymentRequest struct {
	BookingID     int64  `json:"booking_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card upi"`
}

// InitiatePaymentResponse - response after initiating a payment
type InitiatePaymentResponse struct {
	PaymentID string    `json:"payment_id"`
	BookingID int64     `json:"booking_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CardPaymentRequest - card details for processing a payment
type CardPaymentRequest struct {
	PaymentID      string `json:"payment_id" binding:"required"`
	CardNumber     string `json:"card_number" binding:"required"`
	ExpiryMonth    int    `json:"expiry_month" binding:"required,min=1,max=12"`
	ExpiryYear     int    `json:"expiry_year" binding:"required"`
	CVV            string `json:"cvv" binding:"required,min=3,max=4"`
	CardholderName string `json:"cardholder_name" binding:"required"`
}

// CardPaymentResponse - response after a successful card payment
type CardPaymentResponse struct {
	PaymentID          string `json:"payment_id"`
	PNR                string `json:"pnr"`
	Amount             int64  `json:"amount"`
	RewardPointsEarned int64  `json:"reward_points_earned"`
}

// UPIPaymentRequest - UPI handle for processing a payment
type UPIPaymentRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	VPA       string `json:"vpa" binding:"required"`
}

// UPIPaymentResponse - response after a successful UPI payment
type UPIPaymentResponse struct {
	PaymentID          string `json:"payment_id"`
	PNR                string `json:"pnr"`
	Amount             int64  `json:"amount"`
	RewardPointsEarned int64  `json:"reward_points_earned"`
}

// PaymentRecord - one settled payment in the history list
type PaymentRecord struct {
	PaymentID     string        `json:"payment_id"`
	PNR           string        `json:"pnr"`
	TrainNumber   string        `json:"train_number"`
	TrainName     string        `json:"train_name"`
	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// PaymentHistoryResponse - paged list of the user's payments
type PaymentHistoryResponse struct {
	Payments []PaymentRecord `json:"payments"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Total    int             `json:"total"`
}

// PaymentStatusResponse - current state of a payment
type PaymentStatusResponse struct {
	PaymentID     string        `json:"payment_id"`
	BookingID     int64         `json:"booking_id"`
	PNR           string        `json:"pnr"`
	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	BookingStatus BookingStatus `json:"booking_status"`
}
