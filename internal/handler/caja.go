package handler

import (
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre la caja del dia de una sucursal
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.OKResponse{data=dto.CajaResponse}
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.Abrir(c.Request.Context(), nid, uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Cierra la caja con el efectivo contado
// @Description Calcula el esperado (inicial + ventas en efectivo - gastos) y guarda la diferencia.
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id   path string                true "UUID de la caja"
// @Param body body dto.CerrarCajaRequest true "Efectivo contado"
// @Success 200 {object} dto.OKResponse{data=dto.CajaResponse}
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.Cerrar(c.Request.Context(), nid, id, uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Estado godoc
// @Summary Estado de la caja de hoy
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query string false "UUID de la sucursal (default: la del usuario)"
// @Success 200 {object} dto.EstadoCajaResponse
// @Router /v1/caja/estado [get]
func (h *CajaHandler) Estado(c *gin.Context) {
	nid, uid := actor(c)
	resp, err := h.svc.Estado(c.Request.Context(), nid, uid, optString(c, "sucursal_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) ObtenerCaja(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ObtenerCaja(c.Request.Context(), nid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) Historial(c *gin.Context) {
	var filter dto.CajaHistorialFilter
	if !bindQuery(c, &filter) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Historial(c.Request.Context(), nid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarGasto godoc
// @Summary Registra una salida de efectivo
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.GastoRequest true "Gasto"
// @Success 201 {object} dto.OKResponse{data=dto.GastoResponse}
// @Router /v1/caja/gastos [post]
func (h *CajaHandler) RegistrarGasto(c *gin.Context) {
	var req dto.GastoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.RegistrarGasto(c.Request.Context(), nid, uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

func (h *CajaHandler) ListarGastos(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.ListarGastos(c.Request.Context(), nid, c.Query("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
