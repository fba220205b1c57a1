package service

import (
	"context"
	"testing"
	"time"

	"koel/internal/apperrors"
	"koel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture(t *testing.T) (*memStore, *BookingService, *PaymentService, *models.Booking) {
	t.Helper()

	store := newMemStore(fixtureTrain())
	bookings := newTestBookingService(store)

	payments := NewPaymentService(store, userStoreAdapter{store}, store)
	payments.now = func() time.Time { return fixedNow }

	user := &models.User{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	booking, err := bookings.Create(context.Background(), user.ID, createRequest(2))
	require.NoError(t, err)

	return store, bookings, payments, booking
}

func validCardRequest(paymentID string) *models.CardPaymentRequest {
	return &models.CardPaymentRequest{
		PaymentID:      paymentID,
		CardNumber:     "4111 1111 1111 1111",
		ExpiryMonth:    12,
		ExpiryYear:     2030,
		CVV:            "123",
		CardholderName: "Asha K",
	}
}

func TestInitiatePayment(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	resp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	assert.Equal(t, booking.ID, resp.BookingID)
	assert.Equal(t, booking.TotalPrice, resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
	assert.True(t, resp.ExpiresAt.After(fixedNow))

	stored, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, resp.PaymentID, *stored.PaymentID)
}

func TestInitiatePayment_NotOwner(t *testing.T) {
	_, _, payments, booking := newPaymentFixture(t)

	_, err := payments.Initiate(context.Background(), booking.UserID+1, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestInitiatePayment_BookingNotFound(t *testing.T) {
	_, _, payments, _ := newPaymentFixture(t)

	_, err := payments.Initiate(context.Background(), 1, &models.InitiatePaymentRequest{
		BookingID:     999,
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
}

func TestProcessCard_CompletesPaymentAndCreditsRewards(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	resp, err := payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	require.NoError(t, err)

	assert.Equal(t, booking.PNR, resp.PNR)
	assert.Equal(t, booking.TotalPrice, resp.Amount)

	// floor(1221 * 0.05) = 61 points
	assert.Equal(t, int64(61), resp.RewardPointsEarned)

	user, err := store.GetUserByID(context.Background(), booking.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(61), user.RewardPoints)

	stored, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)

	assert.Contains(t, store.published(), models.EventPaymentCompleted)
}

func TestProcessCard_InvalidCardFailsPayment(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	req := validCardRequest(initResp.PaymentID)
	req.CardNumber = "4111111111111112"

	_, err = payments.ProcessCard(context.Background(), booking.UserID, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCard)

	stored, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)

	assert.Contains(t, store.published(), models.EventPaymentFailed)
}

func TestProcessCard_ExpiredCard(t *testing.T) {
	_, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	req := validCardRequest(initResp.PaymentID)
	req.ExpiryYear = 2024

	_, err = payments.ProcessCard(context.Background(), booking.UserID, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCard)
}

func TestProcessCard_ExpiredWindow(t *testing.T) {
	_, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	payments.now = func() time.Time { return fixedNow.Add(16 * time.Minute) }

	_, err = payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	assert.ErrorIs(t, err, apperrors.ErrPaymentExpired)
}

func TestProcessCard_AlreadyPaid(t *testing.T) {
	_, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	_, err = payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	require.NoError(t, err)

	_, err = payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPaid)
}

func TestInitiatePayment_AlreadyPaid(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	paymentID := "PAY_done"
	require.NoError(t, store.UpdatePayment(context.Background(), booking.ID, models.PaymentCompleted, &paymentID))

	_, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPaid)
}

func TestPaymentStatus(t *testing.T) {
	_, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	status, err := payments.Status(context.Background(), booking.UserID, initResp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, status.PaymentStatus)
	assert.Equal(t, models.StatusConfirmed, status.BookingStatus)

	_, err = payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	require.NoError(t, err)

	status, err = payments.Status(context.Background(), booking.UserID, initResp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, status.PaymentStatus)
}

func TestProcessCard_RewardCreditFailureDoesNotFailPayment(t *testing.T) {
	store := newMemStore(fixtureTrain())
	bookings := newTestBookingService(store)

	payments := NewPaymentService(store, userStoreAdapter{store}, store)
	payments.now = func() time.Time { return fixedNow }

	// No user record behind this booking, so the reward credit fails.
	booking, err := bookings.Create(context.Background(), 77, createRequest(1))
	require.NoError(t, err)

	initResp, err := payments.Initiate(context.Background(), int64(77), &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	resp, err := payments.ProcessCard(context.Background(), int64(77), validCardRequest(initResp.PaymentID))
	require.NoError(t, err)
	assert.Zero(t, resp.RewardPointsEarned)

	stored, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
}

func TestProcessUPI_CompletesPaymentAndCreditsRewards(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "upi",
	})
	require.NoError(t, err)

	resp, err := payments.ProcessUPI(context.Background(), booking.UserID, &models.UPIPaymentRequest{
		PaymentID: initResp.PaymentID,
		VPA:       "asha.k@okaxis",
	})
	require.NoError(t, err)

	assert.Equal(t, booking.PNR, resp.PNR)
	assert.Equal(t, booking.TotalPrice, resp.Amount)
	assert.Equal(t, int64(61), resp.RewardPointsEarned)

	stored, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)

	assert.Contains(t, store.published(), models.EventPaymentCompleted)
}

func TestProcessUPI_InvalidVPAFailsPayment(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "upi",
	})
	require.NoError(t, err)

	_, err = payments.ProcessUPI(context.Background(), booking.UserID, &models.UPIPaymentRequest{
		PaymentID: initResp.PaymentID,
		VPA:       "not a handle",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidVPA)

	stored, err := store.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)

	assert.Contains(t, store.published(), models.EventPaymentFailed)
}

func TestPaymentHistory(t *testing.T) {
	_, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	// Nothing settled yet.
	history, err := payments.History(context.Background(), booking.UserID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, history.Payments)
	assert.Zero(t, history.Total)

	_, err = payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	require.NoError(t, err)

	history, err = payments.History(context.Background(), booking.UserID, 1, 20)
	require.NoError(t, err)
	require.Len(t, history.Payments, 1)
	assert.Equal(t, 1, history.Total)

	record := history.Payments[0]
	assert.Equal(t, initResp.PaymentID, record.PaymentID)
	assert.Equal(t, booking.PNR, record.PNR)
	assert.Equal(t, booking.TotalPrice, record.Amount)
	assert.Equal(t, models.PaymentCompleted, record.PaymentStatus)

	// Another user sees nothing.
	history, err = payments.History(context.Background(), booking.UserID+1, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, history.Payments)
}

func TestPaymentStatus_SurvivesRestart(t *testing.T) {
	store, _, payments, booking := newPaymentFixture(t)

	initResp, err := payments.Initiate(context.Background(), booking.UserID, &models.InitiatePaymentRequest{
		BookingID:     booking.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	_, err = payments.ProcessCard(context.Background(), booking.UserID, validCardRequest(initResp.PaymentID))
	require.NoError(t, err)

	// A fresh service has no in-memory intents; the booking row still
	// answers for the payment id.
	fresh := NewPaymentService(store, userStoreAdapter{store}, store)

	status, err := fresh.Status(context.Background(), booking.UserID, initResp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, status.PaymentStatus)
	assert.Equal(t, booking.PNR, status.PNR)

	_, err = fresh.Status(context.Background(), booking.UserID+1, initResp.PaymentID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestPaymentStatus_NotFound(t *testing.T) {
	_, _, payments, _ := newPaymentFixture(t)

	_, err := payments.Status(context.Background(), 1, "PAY_missing")
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
}
