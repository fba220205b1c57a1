package handlers

import (
	"net/http"
	"strconv"

	"koel/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking - POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.services.Bookings.Create(c.Request.Context(), userID, &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateBookingResponse{
		ID:  booking.ID,
		PNR: booking.PNR,
		Breakdown: models.PriceBreakdown{
			BasePrice:      booking.BasePrice,
			Tax:            booking.Tax,
			ConvenienceFee: booking.ConvenienceFee,
			Discount:       booking.Discount,
		},
		TotalPrice:      booking.TotalPrice,
		PaymentRequired: true,
	})
}

// ListBookings - GET /api/bookings?status=Confirmed&page=1&limit=20
func (h *Handlers) ListBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := c.Query("status")

	resp, err := h.services.Bookings.List(c.Request.Context(), userID, status, page, limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBooking - GET /api/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.services.Bookings.Get(c.Request.Context(), userID, bookingID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetBookingByPNR - GET /api/pnr/:pnr
// Public PNR status lookup.
func (h *Handlers) GetBookingByPNR(c *gin.Context) {
	booking, err := h.services.Bookings.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking - POST /api/bookings/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, refund, err := h.services.Bookings.Cancel(c.Request.Context(), userID, bookingID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CancelBookingResponse{
		PNR:                booking.PNR,
		RefundAmount:       refund.Amount,
		CancellationCharge: refund.CancellationCharge,
		RefundPercentage:   int(refund.Fraction * 100),
	})
}

// UpcomingBookings - GET /api/bookings/upcoming
func (h *Handlers) UpcomingBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bookings, err := h.services.Bookings.Upcoming(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// BookingHistory - GET /api/bookings/history?limit=20
func (h *Handlers) BookingHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	bookings, err := h.services.Bookings.History(c.Request.Context(), userID, limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}
