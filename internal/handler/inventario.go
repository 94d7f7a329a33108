package handler

import (
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct {
	svc       service.InventarioService
	productos service.ProductoService
}

func NewInventarioHandler(svc service.InventarioService, productos service.ProductoService) *InventarioHandler {
	return &InventarioHandler{svc: svc, productos: productos}
}

// StockBajo godoc
// @Summary      Productos con stock bajo
// @Description  Productos activos con stock en o por debajo de su minimo (o del umbral del negocio).
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.StockBajoItem
// @Router       /v1/inventario/stock-bajo [get]
func (h *InventarioHandler) StockBajo(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.productos.ReporteStockBajo(c.Request.Context(), nid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarMovimientos godoc
// @Summary      Historial de movimientos de stock
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        producto_id query string false "UUID del producto"
// @Param        tipo        query string false "entrada | salida | ajuste | venta | compra | devolucion | merma"
// @Param        desde       query string false "YYYY-MM-DD"
// @Param        hasta       query string false "YYYY-MM-DD"
// @Param        limit       query int    false "Maximo de registros (default 100)"
// @Success      200 {object} dto.MovimientoListResponse
// @Router       /v1/inventario/movimientos [get]
func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), nid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerificarConsistencia godoc
// @Summary      Verificar historial de stock
// @Description  Compara el stock de cada producto con su historial. Con reparar=true corrige las cadenas intactas.
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        reparar query bool false "Corregir el stock almacenado"
// @Success      200 {object} dto.OKResponse{data=dto.ConsistenciaResponse}
// @Router       /v1/inventario/verificar [post]
func (h *InventarioHandler) VerificarConsistencia(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.VerificarConsistencia(c.Request.Context(), nid, c.Query("reparar") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}
