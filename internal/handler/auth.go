package handler

import (
	"net/http"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/middleware"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary      Login de usuario
// @Description  Valida credenciales, aplica el limite de usuarios concurrentes del plan y abre una sesion.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.LoginRequest true "Credenciales"
// @Success      200  {object} dto.OKResponse{data=dto.LoginResponse}
// @Failure      401  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Failure      429  {object} apierror.APIError
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Refresh godoc
// @Summary      Renovar tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.RefreshRequest true "Refresh token"
// @Success      200  {object} dto.OKResponse{data=dto.LoginResponse}
// @Failure      401  {object} apierror.APIError
// @Router       /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Logout closes the session the access token belongs to.
// @Summary      Cerrar sesion
// @Tags         auth
// @Security     BearerAuth
// @Success      200 {object} dto.OKResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Sesion no valida"))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), claims.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Sesion cerrada"})
}
