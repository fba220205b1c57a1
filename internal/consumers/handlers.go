package consumers

import (
	"encoding/json"
	"log/slog"

	"koel/internal/models"
)

// Handlers process booking lifecycle events off the message stream.
// They drive the notification side effects so the request path never
// waits on them.
type Handlers struct{}

func NewHandlers() *Handlers {
	return &Handlers{}
}

func (h *Handlers) HandleBookingCreated(data []byte) {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return
	}

	// Notification hook: confirmation email/SMS with the PNR would go
	// out from here.
	slog.Info("Booking created",
		"booking_id", event.BookingID, "pnr", event.PNR,
		"train_number", event.TrainNumber, "total_price", event.TotalPrice)
}

func (h *Handlers) HandlePaymentCompleted(data []byte) {
	var event models.PaymentCompletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal payment completed event", "error", err)
		return
	}

	slog.Info("Payment completed",
		"booking_id", event.BookingID, "pnr", event.PNR,
		"payment_id", event.PaymentID, "amount", event.Amount,
		"reward_points", event.RewardPoints)
}

func (h *Handlers) HandlePaymentFailed(data []byte) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return
	}

	slog.Warn("Payment failed",
		"booking_id", event.BookingID, "pnr", event.PNR,
		"payment_id", event.PaymentID, "reason", event.Reason)
}

func (h *Handlers) HandleBookingCancelled(data []byte) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Booking cancelled",
		"booking_id", event.BookingID, "pnr", event.PNR,
		"refund_amount", event.RefundAmount, "reason", event.Reason)
}

func (h *Handlers) HandleChartPrepared(data []byte) {
	var event models.BookingChartPreparedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal chart prepared event", "error", err)
		return
	}

	slog.Info("Chart prepared",
		"booking_id", event.BookingID, "pnr", event.PNR,
		"train_number", event.TrainNumber)
}
