package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shareit-platform/service-booking/internal/domain"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUserNotFound, domain.KindItemNotFound, domain.KindBookingNotFound, domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindAccessDenied:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Error writes err with the status of its kind. Errors without a kind are reported
// as internal without exposing their text.
func Error(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	msg := err.Error()
	if kind == domain.KindInternal {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(StatusFor(kind), ErrorBody{Error: msg, Kind: string(kind)})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: message, Kind: string(domain.KindBadRequest)})
}

// Success writes a 200 with data as the body.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 with data as the body.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
