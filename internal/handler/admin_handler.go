package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shareit-platform/service-booking/internal/application"
	"github.com/shareit-platform/service-booking/internal/middleware"
	"github.com/shareit-platform/service-booking/internal/response"
)

// AdminHandler handles operator requests: booking statistics and manual replica upserts.
type AdminHandler struct {
	bookings  *application.BookingService
	directory *application.DirectoryService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.BookingService, directory *application.DirectoryService) *AdminHandler {
	return &AdminHandler{bookings: bookings, directory: directory}
}

// RegisterRoutes registers admin routes guarded by the shared admin token.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, adminToken string) {
	admin := r.Group("/admin")
	admin.Use(middleware.AdminTokenMiddleware(adminToken))
	{
		admin.GET("/stats/bookings", h.BookingStats)
		admin.PUT("/users/:id", h.UpsertUser)
		admin.PUT("/items/:id", h.UpsertItem)
	}
}

// BookingStats handles GET /admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// UpsertUser handles PUT /admin/users/:id. The path id wins over the body.
func (h *AdminHandler) UpsertUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	var cmd application.UpsertUserCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cmd.ID = id

	result, err := h.directory.UpsertUser(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpsertItem handles PUT /admin/items/:id. A stale version leaves the stored item unchanged.
func (h *AdminHandler) UpsertItem(c *gin.Context) {
	id, ok := pathID(c, "item")
	if !ok {
		return
	}
	var cmd application.UpsertItemCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cmd.ID = id

	result, err := h.directory.UpsertItem(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func pathID(c *gin.Context, entity string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}
