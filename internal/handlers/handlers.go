package handlers

import (
	"errors"
	"net/http"

	"koel/internal/apperrors"
	"koel/internal/middleware"
	"koel/internal/search"
	"koel/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
	stations *search.StationIndex
}

func NewHandlers(services *service.Services, stations *search.StationIndex) *Handlers {
	return &Handlers{
		services: services,
		stations: stations,
	}
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrTrainNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrPaymentNotFound):
		return http.StatusNotFound

	case errors.Is(err, apperrors.ErrAlreadyCancelled),
		errors.Is(err, apperrors.ErrAlreadyPaid),
		errors.Is(err, apperrors.ErrEmailTaken),
		errors.Is(err, apperrors.ErrInsufficientSeats):
		return http.StatusConflict

	case errors.Is(err, apperrors.ErrStationNotFound),
		errors.Is(err, apperrors.ErrClassUnavailable),
		errors.Is(err, apperrors.ErrTrainNotRunning),
		errors.Is(err, apperrors.ErrJourneyDateInPast),
		errors.Is(err, apperrors.ErrPaymentNotCompleted),
		errors.Is(err, apperrors.ErrInvalidCard),
		errors.Is(err, apperrors.ErrInvalidVPA),
		errors.Is(err, apperrors.ErrPaymentExpired):
		return http.StatusBadRequest

	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response. Internal errors are masked; domain
// errors carry their message.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

// currentUserID extracts the authenticated user from the request
// context set by the BasicAuth middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}
