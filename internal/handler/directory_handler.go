package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shareit-platform/service-booking/internal/application"
	"github.com/shareit-platform/service-booking/internal/middleware"
	"github.com/shareit-platform/service-booking/internal/response"
)

// DirectoryHandler exposes the local user and item replicas read-only.
type DirectoryHandler struct {
	service *application.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(service *application.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

// RegisterRoutes registers the replica lookup routes.
func (h *DirectoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("")
	g.Use(middleware.UserIDMiddleware())
	{
		g.GET("/users/:id", h.GetUser)
		g.GET("/items/:id", h.GetItem)
	}
}

// GetUser handles GET /users/:id.
func (h *DirectoryHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}

	result, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetItem handles GET /items/:id.
func (h *DirectoryHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c, "item")
	if !ok {
		return
	}

	result, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
