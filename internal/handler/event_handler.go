package handler

import (
	"net/http"

	"fest-ticketing/internal/model"
	"fest-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth, requireAdmin gin.HandlerFunc) {
	router := api.Group("/events")
	{
		router.GET("", h.List)
		router.GET(":id", h.GetByEventID)
		router.POST("", requireAuth, requireAdmin, h.Create)
		router.PUT(":id", requireAuth, requireAdmin, h.UpdateByEventID)
		router.DELETE(":id", requireAuth, requireAdmin, h.DeleteByEventID)
	}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "List")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetByEventID(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	event, err := h.service.Get(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err, "GetByEventID")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req model.CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	created, err := h.service.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, err, "Create")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) UpdateByEventID(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	updated, err := h.service.Update(c.Request.Context(), identity(c), eventID, req.Params())
	if err != nil {
		respondError(c, err, "UpdateByEventID")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) DeleteByEventID(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity(c), eventID); err != nil {
		respondError(c, err, "DeleteByEventID")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}
