package handler

import (
	"net/http"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear producto
// @Description  El stock inicial, si es mayor a 0, se registra como movimiento de entrada.
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProductoRequest true "Producto"
// @Success      201  {object} dto.OKResponse{data=dto.ProductoResponse}
// @Failure      409  {object} apierror.APIError
// @Router       /v1/productos [post]
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.Crear(c.Request.Context(), nid, uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Listar(c.Request.Context(), nid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), nid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Buscar godoc
// @Summary      Buscar producto por codigo o nombre
// @Description  Prueba el codigo escaneado y sus variantes (ceros a la izquierda, EAN/UPC) y luego busca por nombre.
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        q query string true "Codigo de barras o nombre"
// @Success      200 {array} dto.ProductoResponse
// @Router       /v1/productos/buscar [get]
func (h *ProductosHandler) Buscar(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, apierror.New("El parametro q es requerido"))
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Buscar(c.Request.Context(), nid, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Actualizar(c.Request.Context(), nid, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar producto
// @Description  Borra el producto si nunca se vendio; si tiene ventas solo lo desactiva.
// @Tags         productos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      200 {object} dto.EliminarProductoResponse
// @Router       /v1/productos/{id} [delete]
func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Eliminar(c.Request.Context(), nid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Reactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	if err := h.svc.Reactivar(c.Request.Context(), nid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Producto reactivado"})
}

// AjustarStock godoc
// @Summary      Ajuste manual de stock
// @Description  Registra un movimiento en el historial. Cantidad positiva para entradas, negativa para salidas.
// @Tags         productos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "UUID del producto"
// @Param        body body dto.AjustarStockRequest true "Movimiento"
// @Success      201  {object} dto.OKResponse{data=dto.MovimientoStockResponse}
// @Failure      400  {object} apierror.APIError
// @Router       /v1/productos/{id}/stock [post]
func (h *ProductosHandler) AjustarStock(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AjustarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.AjustarStock(c.Request.Context(), nid, id, uid, req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}
