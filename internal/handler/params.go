package handler

import (
	"strconv"
	"time"

	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/middleware"
	"github.com/driveease/service-rental/internal/common/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateOnly = "2006-01-02"

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// parseID reads a UUID path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// principal returns the authenticated caller, writing a 401 when there is none.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return auth.Principal{}, false
	}
	return p, true
}

// parseDate accepts "2006-01-02" in loc or a full RFC 3339 timestamp.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateOnly, value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// optionalDateQuery reads an optional date query parameter. The second result
// is false when a 400 has been written.
func optionalDateQuery(c *gin.Context, name string, loc *time.Location) (*time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return nil, true
	}
	t, err := parseDate(value, loc)
	if err != nil {
		response.BadRequest(c, "invalid "+name+", use YYYY-MM-DD or RFC 3339")
		return nil, false
	}
	return &t, true
}
