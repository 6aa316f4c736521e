package handler

import (
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/middleware"
	"github.com/driveease/service-rental/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bookingBody is the wire form of a booking request. Dates may be plain days.
type bookingBody struct {
	CustomerID uuid.UUID `json:"customer_id"`
	CarID      uuid.UUID `json:"car_id" binding:"required"`
	PickupDate string    `json:"pickup_date" binding:"required"`
	ReturnDate string    `json:"return_date" binding:"required"`
	Method     string    `json:"method"`
}

// bindBooking reads a bookingBody and resolves its dates in loc. It writes a 400
// and returns false on failure.
func bindBooking(c *gin.Context, loc *time.Location) (bookingBody, time.Time, time.Time, bool) {
	var body bookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return body, time.Time{}, time.Time{}, false
	}
	pickup, err := parseDate(body.PickupDate, loc)
	if err != nil {
		response.BadRequest(c, "invalid pickup_date, use YYYY-MM-DD or RFC 3339")
		return body, time.Time{}, time.Time{}, false
	}
	ret, err := parseDate(body.ReturnDate, loc)
	if err != nil {
		response.BadRequest(c, "invalid return_date, use YYYY-MM-DD or RFC 3339")
		return body, time.Time{}, time.Time{}, false
	}
	return body, pickup, ret, true
}

// BookingHandler handles HTTP requests for a customer's bookings.
type BookingHandler struct {
	bookings *application.BookingService
	payments *application.PaymentService
	feedback *application.FeedbackService
	location *time.Location
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(
	bookings *application.BookingService,
	payments *application.PaymentService,
	feedback *application.FeedbackService,
	location *time.Location,
) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments, feedback: feedback, location: location}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	customerOnly := middleware.RequireRole(auth.RoleCustomer)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", customerOnly, h.CreateBooking)
		bookings.GET("", customerOnly, h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", customerOnly, h.CancelBooking)
		bookings.POST("/:id/pay/card", customerOnly, h.PayByCard)
		bookings.POST("/:id/pay/desk", customerOnly, h.PayAtDesk)
		bookings.GET("/:id/payments", h.ListPayments)
		bookings.POST("/:id/feedback", customerOnly, h.SubmitFeedback)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	body, pickup, ret, ok := bindBooking(c, h.location)
	if !ok {
		return
	}

	result, err := h.bookings.CreateBooking(c.Request.Context(), p, application.CreateBookingRequest{
		CarID:      body.CarID,
		PickupDate: pickup,
		ReturnDate: ret,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings, the caller's own bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.bookings.ListMyBookings(c.Request.Context(), p, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.bookings.GetBooking(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	var req application.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.bookings.RequestCancellation(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PayByCard handles POST /api/v1/bookings/:id/pay/card.
func (h *BookingHandler) PayByCard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	var req application.CardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.payments.PayByCard(c.Request.Context(), p, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// PayAtDesk handles POST /api/v1/bookings/:id/pay/desk.
func (h *BookingHandler) PayAtDesk(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.payments.ChoosePayAtDesk(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListPayments handles GET /api/v1/bookings/:id/payments.
func (h *BookingHandler) ListPayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.payments.ListBookingPayments(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SubmitFeedback handles POST /api/v1/bookings/:id/feedback.
func (h *BookingHandler) SubmitFeedback(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	var req application.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.feedback.Submit(c.Request.Context(), p, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
