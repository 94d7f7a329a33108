package dto

import "github.com/shopspring/decimal"

type ReporteFilter struct {
	Fecha      string `form:"fecha"` // YYYY-MM-DD; empty = today
	SucursalID string `form:"sucursal_id" validate:"omitempty,uuid"`
}

type ExportFilter struct {
	Desde string `form:"desde" validate:"required"` // YYYY-MM-DD
	Hasta string `form:"hasta" validate:"required"` // YYYY-MM-DD, inclusive
}

type MetodoPagoResumen struct {
	MetodoPago string          `json:"metodo_pago"`
	Ventas     int64           `json:"ventas"`
	Total      decimal.Decimal `json:"total"`
}

type ProductoVendido struct {
	ProductoID string          `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	Cantidad   decimal.Decimal `json:"cantidad"`
	Total      decimal.Decimal `json:"total"`
}

type ReporteDiarioResponse struct {
	Fecha          string              `json:"fecha"`
	SucursalID     *string             `json:"sucursal_id,omitempty"`
	TotalVendido   decimal.Decimal     `json:"total_vendido"`
	NumeroVentas   int64               `json:"numero_ventas"`
	TicketPromedio decimal.Decimal     `json:"ticket_promedio"`
	PorMetodoPago  []MetodoPagoResumen `json:"por_metodo_pago"`
	TopProductos   []ProductoVendido   `json:"top_productos"`
	StockBajo      []StockBajoItem     `json:"stock_bajo"`
	TotalGastos    decimal.Decimal     `json:"total_gastos"`
	Gastos         []GastoResponse     `json:"gastos"`
}
