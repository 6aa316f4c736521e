package handler

import (
	"strconv"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/middleware"
	"github.com/driveease/service-rental/internal/common/response"
	"github.com/gin-gonic/gin"
)

// CarHandler handles the public catalogue and car administration.
type CarHandler struct {
	cars         *application.CarService
	availability *application.AvailabilityService
	feedback     *application.FeedbackService
	location     *time.Location
}

// NewCarHandler creates a new CarHandler. Dates without a time are read in location.
func NewCarHandler(
	cars *application.CarService,
	availability *application.AvailabilityService,
	feedback *application.FeedbackService,
	location *time.Location,
) *CarHandler {
	return &CarHandler{cars: cars, availability: availability, feedback: feedback, location: location}
}

// RegisterRoutes registers catalogue and admin car routes.
func (h *CarHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	cars := r.Group("/api/v1/cars")
	{
		cars.GET("", h.ListCars)
		cars.GET("/:id", h.GetCar)
		cars.GET("/:id/availability", h.CheckAvailability)
		cars.GET("/:id/feedback", h.ListFeedback)
	}

	admin := r.Group("/api/v1/admin/cars")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.AdminListCars)
		admin.GET("/:id", h.AdminGetCar)
		admin.POST("", h.CreateCar)
		admin.PUT("/:id", h.UpdateCar)
		admin.DELETE("/:id", h.DeleteCar)
		admin.PUT("/:id/availability", h.SetAvailability)
		admin.POST("/:id/image", h.uploadImage(application.ImageKindPhoto))
		admin.POST("/:id/logo", h.uploadImage(application.ImageKindLogo))
	}
}

// ListCars handles GET /api/v1/cars.
func (h *CarHandler) ListCars(c *gin.Context) {
	h.listCars(c, false)
}

// AdminListCars handles GET /api/v1/admin/cars, including disabled cars.
func (h *CarHandler) AdminListCars(c *gin.Context) {
	h.listCars(c, true)
}

func (h *CarHandler) listCars(c *gin.Context, includeDisabled bool) {
	pickup, ok := optionalDateQuery(c, "pickup_date", h.location)
	if !ok {
		return
	}
	ret, ok := optionalDateQuery(c, "return_date", h.location)
	if !ok {
		return
	}
	seats, _ := strconv.Atoi(c.Query("seats"))
	maxRate, _ := strconv.ParseInt(c.Query("max_daily_rate_cents"), 10, 64)
	page, limit := parsePagination(c)

	result, err := h.cars.ListCars(c.Request.Context(), application.CarQuery{
		Search:            c.Query("search"),
		Seats:             seats,
		MaxDailyRateCents: maxRate,
		PickupDate:        pickup,
		ReturnDate:        ret,
	}, includeDisabled, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetCar handles GET /api/v1/cars/:id.
func (h *CarHandler) GetCar(c *gin.Context) {
	h.getCar(c, false)
}

// AdminGetCar handles GET /api/v1/admin/cars/:id.
func (h *CarHandler) AdminGetCar(c *gin.Context) {
	h.getCar(c, true)
}

func (h *CarHandler) getCar(c *gin.Context, includeDisabled bool) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	result, err := h.cars.GetCar(c.Request.Context(), id, includeDisabled)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckAvailability handles GET /api/v1/cars/:id/availability?pickup_date=&return_date=.
func (h *CarHandler) CheckAvailability(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}
	pickup, ok := optionalDateQuery(c, "pickup_date", h.location)
	if !ok {
		return
	}
	ret, ok := optionalDateQuery(c, "return_date", h.location)
	if !ok {
		return
	}
	if pickup == nil || ret == nil {
		response.BadRequest(c, "pickup_date and return_date are required")
		return
	}

	result, err := h.availability.Check(c.Request.Context(), id, *pickup, *ret)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListFeedback handles GET /api/v1/cars/:id/feedback.
func (h *CarHandler) ListFeedback(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	result, err := h.feedback.ListForCar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateCar handles POST /api/v1/admin/cars.
func (h *CarHandler) CreateCar(c *gin.Context) {
	var req application.CarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cars.CreateCar(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateCar handles PUT /api/v1/admin/cars/:id.
func (h *CarHandler) UpdateCar(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	var req application.CarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cars.UpdateCar(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteCar handles DELETE /api/v1/admin/cars/:id.
func (h *CarHandler) DeleteCar(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	if err := h.cars.DeleteCar(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "car deleted"})
}

// SetAvailability handles PUT /api/v1/admin/cars/:id/availability.
func (h *CarHandler) SetAvailability(c *gin.Context) {
	id, ok := parseID(c, "id", "car")
	if !ok {
		return
	}

	var body struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.cars.SetAvailability(c.Request.Context(), id, *body.Available)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// uploadImage handles multipart uploads with a single "file" field.
func (h *CarHandler) uploadImage(kind application.ImageKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id", "car")
		if !ok {
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, "file is required")
			return
		}
		f, err := header.Open()
		if err != nil {
			response.BadRequest(c, "cannot read uploaded file")
			return
		}
		defer f.Close()

		result, err := h.cars.UploadImage(c.Request.Context(), id, kind, application.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      f,
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Success(c, result)
	}
}
