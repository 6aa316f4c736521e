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

// AdminServices groups the services behind the admin API.
type AdminServices struct {
	Bookings  *application.BookingService
	Approvals *application.AdminApprovalService
	Payments  *application.PaymentService
	Accounts  *application.AccountService
	Reports   *application.ReportService
	Feedback  *application.FeedbackService
	Reminders *application.ReminderService
}

// AdminHandler handles admin HTTP requests for rental management.
type AdminHandler struct {
	svc      AdminServices
	location *time.Location
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc AdminServices, location *time.Location) *AdminHandler {
	return &AdminHandler{svc: svc, location: location}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.POST("/bookings", h.CreateBooking)
		admin.GET("/bookings/:id", h.GetBooking)
		admin.POST("/bookings/:id/cancel", h.CancelBooking)
		admin.POST("/bookings/:id/confirm-payment", h.ConfirmPayment)
		admin.GET("/stats/bookings", h.BookingStats)

		admin.GET("/cancellations", h.ListCancellations)
		admin.POST("/cancellations/:id/approve", h.ApproveRefund)

		admin.GET("/payments", h.ListPayments)

		admin.GET("/customers", h.ListCustomers)
		admin.POST("/customers", h.CreateCustomer)
		admin.GET("/customers/:id", h.GetCustomer)
		admin.PUT("/customers/:id", h.UpdateCustomer)
		admin.DELETE("/customers/:id", h.DeleteCustomer)

		admin.GET("/reports/dashboard", h.Dashboard)
		admin.GET("/reports/advanced", h.AdvancedReport)
		admin.GET("/feedback", h.ListFeedback)
		admin.POST("/reminders/run", h.RunReminders)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	bookings, total, err := h.svc.Bookings.ListAllBookings(c.Request.Context(), p, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// CreateBooking handles POST /api/v1/admin/bookings, a walk-in booking paid on the spot.
func (h *AdminHandler) CreateBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	body, pickup, ret, ok := bindBooking(c, h.location)
	if !ok {
		return
	}
	if body.CustomerID == uuid.Nil {
		response.BadRequest(c, "customer_id is required")
		return
	}

	result, err := h.svc.Bookings.CreateAdminBooking(c.Request.Context(), p, application.AdminBookingRequest{
		CustomerID: body.CustomerID,
		CarID:      body.CarID,
		PickupDate: pickup,
		ReturnDate: ret,
		Method:     body.Method,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetBooking handles GET /api/v1/admin/bookings/:id.
func (h *AdminHandler) GetBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.svc.Bookings.GetBooking(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/admin/bookings/:id/cancel.
func (h *AdminHandler) CancelBooking(c *gin.Context) {
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

	result, err := h.svc.Bookings.AdminCancel(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmPayment handles POST /api/v1/admin/bookings/:id/confirm-payment.
func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.svc.Approvals.ConfirmInPersonPayment(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stats, err := h.svc.Bookings.GetBookingStats(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListCancellations handles GET /api/v1/admin/cancellations.
func (h *AdminHandler) ListCancellations(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	bookings, total, err := h.svc.Approvals.ListCancellationRequests(c.Request.Context(), p, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// ApproveRefund handles POST /api/v1/admin/cancellations/:id/approve.
func (h *AdminHandler) ApproveRefund(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.svc.Approvals.ApproveRefund(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListPayments handles GET /api/v1/admin/payments.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	payments, total, err := h.svc.Payments.ListAllPayments(c.Request.Context(), p, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, payments, total, page, limit)
}

// ListCustomers handles GET /api/v1/admin/customers?search=.
func (h *AdminHandler) ListCustomers(c *gin.Context) {
	page, limit := parsePagination(c)

	customers, total, err := h.svc.Accounts.ListCustomers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, customers, total, page, limit)
}

// CreateCustomer handles POST /api/v1/admin/customers.
func (h *AdminHandler) CreateCustomer(c *gin.Context) {
	var req application.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Accounts.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetCustomer handles GET /api/v1/admin/customers/:id.
func (h *AdminHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	result, err := h.svc.Accounts.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateCustomer handles PUT /api/v1/admin/customers/:id.
func (h *AdminHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	var req application.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Accounts.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteCustomer handles DELETE /api/v1/admin/customers/:id.
func (h *AdminHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "id", "customer")
	if !ok {
		return
	}

	if err := h.svc.Accounts.DeleteCustomer(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "customer deleted"})
}

// Dashboard handles GET /api/v1/admin/reports/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	result, err := h.svc.Reports.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AdvancedReport handles GET /api/v1/admin/reports/advanced.
func (h *AdminHandler) AdvancedReport(c *gin.Context) {
	result, err := h.svc.Reports.Advanced(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListFeedback handles GET /api/v1/admin/feedback.
func (h *AdminHandler) ListFeedback(c *gin.Context) {
	page, limit := parsePagination(c)

	items, total, err := h.svc.Feedback.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, items, total, page, limit)
}

// RunReminders handles POST /api/v1/admin/reminders/run.
func (h *AdminHandler) RunReminders(c *gin.Context) {
	result, err := h.svc.Reminders.SendDueReminders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
