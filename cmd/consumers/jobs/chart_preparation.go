package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"koel/internal/messaging"
	"koel/internal/models"
	"koel/internal/repository"
)

// ChartPreparationJob periodically flips paid confirmed bookings whose
// journey is imminent to Chart Prepared and assigns coach and seat
// numbers to their passengers.
type ChartPreparationJob struct {
	bookingRepo *repository.BookingRepository
	natsClient  *messaging.NATSClient
	interval    time.Duration
	ticker      *time.Ticker
	done        chan bool
}

func NewChartPreparationJob(bookingRepo *repository.BookingRepository, natsClient *messaging.NATSClient, interval time.Duration) *ChartPreparationJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ChartPreparationJob{
		bookingRepo: bookingRepo,
		natsClient:  natsClient,
		interval:    interval,
		done:        make(chan bool),
	}
}

// Start begins the background loop. The first pass runs immediately.
func (j *ChartPreparationJob) Start(ctx context.Context) {
	slog.Info("Starting chart preparation job", "interval", j.interval)

	j.ticker = time.NewTicker(j.interval)

	go j.prepareCharts(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.prepareCharts(ctx)
			case <-j.done:
				slog.Info("Chart preparation job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background loop.
func (j *ChartPreparationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	j.done <- true
}

func (j *ChartPreparationJob) prepareCharts(ctx context.Context) {
	bookings, err := j.bookingRepo.ChartDue(ctx)
	if err != nil {
		slog.Error("Failed to load chart-due bookings", "error", err)
		return
	}

	if len(bookings) == 0 {
		return
	}

	slog.Info("Preparing charts", "bookings", len(bookings))

	for i := range bookings {
		booking := &bookings[i]
		assignSeats(booking)

		if err := j.bookingRepo.MarkChartPrepared(ctx, booking); err != nil {
			slog.Error("Failed to mark chart prepared",
				"booking_id", booking.ID, "error", err)
			continue
		}

		if j.natsClient != nil {
			err := j.natsClient.Publish(models.EventBookingChartPrepared, models.BookingChartPreparedEvent{
				BookingID:   booking.ID,
				PNR:         booking.PNR,
				TrainNumber: booking.TrainNumber,
				Timestamp:   time.Now(),
			})
			if err != nil {
				slog.Error("Failed to publish chart prepared event",
					"booking_id", booking.ID, "error", err)
			}
		}

		slog.Info("Chart prepared",
			"booking_id", booking.ID, "pnr", booking.PNR,
			"passengers", len(booking.Passengers))
	}
}

// assignSeats gives each passenger a coach and berth. Coaches hold 72
// berths; the booking id spreads bookings across berth ranges.
func assignSeats(booking *models.Booking) {
	const berthsPerCoach = 72

	start := int(booking.ID*int64(len(booking.Passengers))) % berthsPerCoach
	for i := range booking.Passengers {
		berth := (start+i)%berthsPerCoach + 1
		coach := int(booking.ID)%4 + 1

		booking.Passengers[i].CoachCode = fmt.Sprintf("%s%d", coachPrefix(booking.ClassType), coach)
		booking.Passengers[i].SeatNumber = fmt.Sprintf("%d", berth)
	}
}

func coachPrefix(classType string) string {
	switch classType {
	case "1A":
		return "H"
	case "2A":
		return "A"
	case "3A":
		return "B"
	case "CC":
		return "C"
	default:
		return "S"
	}
}
