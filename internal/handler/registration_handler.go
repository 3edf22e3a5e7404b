package handler

import (
	"net/http"

	"fest-ticketing/internal/model"
	"fest-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	service service.RegistrationService
}

func NewRegistrationHandler(service service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// RegisterRoutes 報名路由全部需要登入；建立報名另外套用限流
func (h *RegistrationHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth, requireAdmin, rateLimit gin.HandlerFunc) {
	router := api.Group("/registrations", requireAuth)
	{
		router.POST("", rateLimit, h.CreateRegistration)
		router.GET("my-tickets", h.MyTickets)
		router.GET("ticket/:code", h.GetTicket)
		router.GET("event/:event_id", requireAdmin, h.ListByEvent)
	}
}

func (h *RegistrationHandler) CreateRegistration(c *gin.Context) {
	var req model.CreateRegistrationRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	registration, err := h.service.CreateRegistration(c.Request.Context(), identity(c), req)
	if err != nil {
		respondError(c, err, "CreateRegistration")
		return
	}
	c.JSON(http.StatusCreated, registration)
}

func (h *RegistrationHandler) MyTickets(c *gin.Context) {
	tickets, err := h.service.ListTicketsForUser(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "MyTickets")
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *RegistrationHandler) GetTicket(c *gin.Context) {
	ticket, err := h.service.GetTicketByCode(c.Request.Context(), identity(c), c.Param("code"))
	if err != nil {
		respondError(c, err, "GetTicket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *RegistrationHandler) ListByEvent(c *gin.Context) {
	eventID, ok := parseUUIDParam(c, "event_id")
	if !ok {
		return
	}
	registrations, err := h.service.ListRegistrationsForEvent(c.Request.Context(), identity(c), eventID)
	if err != nil {
		respondError(c, err, "ListByEvent")
		return
	}
	c.JSON(http.StatusOK, registrations)
}
