package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shareit-platform/service-booking/internal/application"
	"github.com/shareit-platform/service-booking/internal/middleware"
	"github.com/shareit-platform/service-booking/internal/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.UserIDMiddleware())
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookerBookings)
		bookings.GET("/owner", h.ListOwnerBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.SetApproval)
		bookings.DELETE("/:id", h.CancelBooking)
	}
}

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// SetApproval handles PATCH /bookings/:id?approved=true|false.
func (h *BookingHandler) SetApproval(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	raw, present := c.GetQuery("approved")
	if !present {
		response.BadRequest(c, "missing approved parameter")
		return
	}
	approved, err := strconv.ParseBool(raw)
	if err != nil {
		response.BadRequest(c, "invalid approved parameter: "+raw)
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.service.SetApproval(c.Request.Context(), bookingID, userID, approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles DELETE /bookings/:id.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	if err := h.service.CancelBooking(c.Request.Context(), bookingID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListBookerBookings handles GET /bookings?state=&from=&size=.
func (h *BookingHandler) ListBookerBookings(c *gin.Context) {
	state, from, size, ok := listParams(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.service.ListBookerBookings(c.Request.Context(), userID, state, from, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListOwnerBookings handles GET /bookings/owner?state=&from=&size=.
func (h *BookingHandler) ListOwnerBookings(c *gin.Context) {
	state, from, size, ok := listParams(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	result, err := h.service.ListOwnerBookings(c.Request.Context(), userID, state, from, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func bookingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid booking ID")
		return 0, false
	}
	return id, true
}

// listParams reads state, from and size. An absent or blank state means ALL.
func listParams(c *gin.Context) (state string, from, size *int, ok bool) {
	state = strings.TrimSpace(c.Query("state"))
	if state == "" {
		state = "ALL"
	}
	if from, ok = optionalInt(c, "from"); !ok {
		return "", nil, nil, false
	}
	if size, ok = optionalInt(c, "size"); !ok {
		return "", nil, nil, false
	}
	return state, from, size, true
}

func optionalInt(c *gin.Context, name string) (*int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(c, "invalid "+name+" parameter: "+raw)
		return nil, false
	}
	return &v, true
}
