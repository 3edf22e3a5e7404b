package handler

import (
	"net/http"

	"fest-ticketing/internal/model"
	"fest-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	router := api.Group("/auth")
	{
		router.POST("signup", h.SignUp)
		router.POST("signin", h.SignIn)
		router.GET("me", requireAuth, h.Me)
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	resp, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "SignUp")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	resp, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "SignIn")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "Me")
		return
	}
	c.JSON(http.StatusOK, user)
}
