package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"khpanel/internal/models"
	"khpanel/internal/repository"
)

func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}

func paginatedResponse(data interface{}, total int64, page, limit int) models.PaginatedResponse {
	return models.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		limit = 50
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// idParam parses the :id path parameter.
func idParam(c echo.Context) uint {
	id, _ := strconv.Atoi(c.Param("id"))
	if id < 0 {
		return 0
	}
	return uint(id)
}

// queryInt parses an integer query parameter with a default.
func queryInt(c echo.Context, key string, defaultVal int) int {
	if v := c.QueryParam(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// Repos bundles all repositories needed by API handlers.
type Repos struct {
	Account *repository.AccountRepository
	Server  *repository.ServerRepository
	Plan    *repository.PlanRepository
	Service *repository.ServiceRepository
	PreMade *repository.PreMadeRepository
	Coupon  *repository.CouponRepository
	Ticket  *repository.TicketRepository
	Invoice *repository.InvoiceRepository
	Audit   *repository.AuditRepository
}
