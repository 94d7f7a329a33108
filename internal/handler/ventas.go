package handler

import (
	"context"
	"fmt"
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// RegistrarVenta godoc
// @Summary      Registrar una nueva venta
// @Description  Venta atomica: bloquea los productos, descuenta stock en el historial y asigna folio. El ticket PDF se genera en segundo plano.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVentaRequest true "Detalle de la venta"
// @Success      201  {object} dto.OKResponse{data=dto.VentaResponse}
// @Failure      400  {object} apierror.APIError
// @Failure      403  {object} apierror.APIError
// @Router       /v1/ventas [post]
func (h *VentasHandler) RegistrarVenta(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), nid, uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

// CancelarVenta godoc
// @Summary      Cancelar venta
// @Description  Cancela una venta completada y regresa el stock con movimientos de devolucion.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                   true "UUID de la venta"
// @Param        body body     dto.CancelarVentaRequest true "Motivo"
// @Success      200  {object} dto.OKResponse{data=dto.VentaResponse}
// @Failure      409  {object} apierror.APIError
// @Router       /v1/ventas/{id}/cancelar [post]
func (h *VentasHandler) CancelarVenta(c *gin.Context) {
	h.revertir(c, h.svc.CancelarVenta)
}

// DevolverVenta godoc
// @Summary      Devolver venta
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                   true "UUID de la venta"
// @Param        body body     dto.CancelarVentaRequest true "Motivo"
// @Success      200  {object} dto.OKResponse{data=dto.VentaResponse}
// @Router       /v1/ventas/{id}/devolver [post]
func (h *VentasHandler) DevolverVenta(c *gin.Context) {
	h.revertir(c, h.svc.DevolverVenta)
}

type revertirFunc func(ctx context.Context, negocioID, id, actor uuid.UUID, motivo string) (*dto.VentaResponse, error)

func (h *VentasHandler) revertir(c *gin.Context, fn revertirFunc) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := fn(c.Request.Context(), nid, id, uid, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

func (h *VentasHandler) ObtenerVenta(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), nid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarVentas godoc
// @Summary      Listar ventas
// @Description  Retorna lista paginada de ventas filtrada por fecha, estado y sucursal.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        fecha       query string false "Fecha YYYY-MM-DD (default: hoy)"
// @Param        estado      query string false "completada | cancelada | devuelta | all"
// @Param        sucursal_id query string false "UUID de la sucursal"
// @Param        page        query int    false "Pagina (default 1)"
// @Param        limit       query int    false "Registros por pagina (default 50)"
// @Success      200    {object} dto.VentaListResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/ventas [get]
func (h *VentasHandler) ListarVentas(c *gin.Context) {
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ListarVentas(c.Request.Context(), nid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ticket godoc
// @Summary      Descargar ticket PDF
// @Tags         ventas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {file} binary
// @Router       /v1/ventas/{id}/ticket [get]
func (h *VentasHandler) Ticket(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	pdf, folio, err := h.svc.TicketPDF(c.Request.Context(), nid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="ticket_%s.pdf"`, folio))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
