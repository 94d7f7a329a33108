package handler

import (
	"net/http"

	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

// ConsultaPreciosHandler serves the public price checker kiosk.
// No authentication and no side effects beyond the price cache.
type ConsultaPreciosHandler struct{ svc service.ProductoService }

func NewConsultaPreciosHandler(svc service.ProductoService) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{svc: svc}
}

// ConsultarPrecio godoc
// @Summary Consulta de precio por codigo (sin autenticacion)
// @Tags precio
// @Produce json
// @Param negocio path string true "UUID del negocio"
// @Param codigo  path string true "Codigo de barras"
// @Success 200 {object} dto.ConsultaPrecioResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{negocio}/{codigo} [get]
func (h *ConsultaPreciosHandler) ConsultarPrecio(c *gin.Context) {
	nid, ok := paramUUID(c, "negocio")
	if !ok {
		return
	}
	resp, err := h.svc.ConsultarPrecio(c.Request.Context(), nid, c.Param("codigo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
