package handler

import (
	"fmt"
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Diario godoc
// @Summary      Reporte del dia
// @Description  Totales, ventas por metodo de pago, productos mas vendidos, gastos y stock bajo.
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Param        fecha       query string false "YYYY-MM-DD (default: hoy)"
// @Param        sucursal_id query string false "UUID de la sucursal"
// @Success      200 {object} dto.ReporteDiarioResponse
// @Router       /v1/reportes/diario [get]
func (h *ReportesHandler) Diario(c *gin.Context) {
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.ReporteDiario(c.Request.Context(), nid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarVentas godoc
// @Summary      Exportar ventas a Excel
// @Tags         reportes
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        desde query string true "YYYY-MM-DD"
// @Param        hasta query string true "YYYY-MM-DD"
// @Success      200 {file} binary
// @Router       /v1/reportes/ventas.xlsx [get]
func (h *ReportesHandler) ExportarVentas(c *gin.Context) {
	var filter dto.ExportFilter
	if !bindQuery(c, &filter) {
		return
	}
	nid, _ := actor(c)
	data, err := h.svc.ExportarVentasXLSX(c.Request.Context(), nid, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ventas_%s_%s.xlsx"`, filter.Desde, filter.Hasta))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// EnviarDiario mails the daily report now instead of waiting for the cron.
func (h *ReportesHandler) EnviarDiario(c *gin.Context) {
	nid, _ := actor(c)
	if err := h.svc.EnviarReporteDiario(c.Request.Context(), nid, c.Query("fecha")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Reporte enviado"})
}
