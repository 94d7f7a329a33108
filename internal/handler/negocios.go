package handler

import (
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

// NegociosHandler serves tenant registration, settings and branches.
type NegociosHandler struct{ svc service.NegocioService }

func NewNegociosHandler(svc service.NegocioService) *NegociosHandler {
	return &NegociosHandler{svc: svc}
}

// Registrar godoc
// @Summary      Registrar negocio
// @Description  Crea negocio, configuracion, sucursal principal y propietario en una sola transaccion.
// @Tags         negocios
// @Accept       json
// @Produce      json
// @Security     AdminKey
// @Param        body body dto.RegistrarNegocioRequest true "Datos del negocio"
// @Success      201  {object} dto.OKResponse{data=dto.NegocioResponse}
// @Failure      409  {object} apierror.APIError
// @Router       /v1/negocios [post]
func (h *NegociosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarNegocioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

// ObtenerConfiguracion godoc
// @Summary      Configuracion del negocio
// @Tags         configuracion
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ConfiguracionResponse
// @Router       /v1/configuracion [get]
func (h *NegociosHandler) ObtenerConfiguracion(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.ObtenerConfiguracion(c.Request.Context(), nid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarConfiguracion godoc
// @Summary      Actualizar configuracion
// @Tags         configuracion
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ActualizarConfiguracionRequest true "Campos a cambiar"
// @Success      200  {object} dto.OKResponse{data=dto.ConfiguracionResponse}
// @Router       /v1/configuracion [put]
func (h *NegociosHandler) ActualizarConfiguracion(c *gin.Context) {
	var req dto.ActualizarConfiguracionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ActualizarConfiguracion(c.Request.Context(), nid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

func (h *NegociosHandler) ListarSucursales(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.ListarSucursales(c.Request.Context(), nid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearSucursal godoc
// @Summary      Crear sucursal
// @Tags         sucursales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SucursalRequest true "Sucursal"
// @Success      201  {object} dto.OKResponse{data=dto.SucursalResponse}
// @Router       /v1/sucursales [post]
func (h *NegociosHandler) CrearSucursal(c *gin.Context) {
	var req dto.SucursalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.CrearSucursal(c.Request.Context(), nid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

func (h *NegociosHandler) ActualizarSucursal(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SucursalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ActualizarSucursal(c.Request.Context(), nid, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}
