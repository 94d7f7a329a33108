package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha      string `form:"fecha"`                     // YYYY-MM-DD; empty = today
	Estado     string `form:"estado,default=completada"` // completada | cancelada | devuelta | all
	SucursalID string `form:"sucursal_id" validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemVentaRequest is one cart line. Cantidad may carry up to three
// decimals for products sold by weight.
type ItemVentaRequest struct {
	ProductoID        string          `json:"producto_id"        validate:"required,uuid"`
	Cantidad          decimal.Decimal `json:"cantidad"           validate:"gt=0"`
	DescuentoUnitario decimal.Decimal `json:"descuento_unitario" validate:"min=0"`
}

type RegistrarVentaRequest struct {
	SucursalID  *string            `json:"sucursal_id"  validate:"omitempty,uuid"`
	Items       []ItemVentaRequest `json:"items"        validate:"required,min=1,dive"`
	MontoPagado decimal.Decimal    `json:"monto_pagado" validate:"min=0"`
	MetodoPago  string             `json:"metodo_pago"  validate:"required,oneof=efectivo tarjeta transferencia credito mixto"`
	Descuento   decimal.Decimal    `json:"descuento"    validate:"min=0"`
	// ClienteEmail: optional; when present the ticket worker mails the PDF receipt.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

// CancelarVentaRequest is used both for cancellations and returns.
type CancelarVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID         string          `json:"producto_id"`
	Producto           string          `json:"producto"`
	Cantidad           decimal.Decimal `json:"cantidad"`
	PrecioUnitario     decimal.Decimal `json:"precio_unitario"`
	DescuentoUnitario  decimal.Decimal `json:"descuento_unitario"`
	PorcentajeImpuesto decimal.Decimal `json:"porcentaje_impuesto"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Impuestos          decimal.Decimal `json:"impuestos"`
}

type VentaResponse struct {
	ID                string              `json:"id"`
	Folio             string              `json:"folio"`
	SucursalID        string              `json:"sucursal_id"`
	UsuarioID         string              `json:"usuario_id"`
	Cajero            string              `json:"cajero,omitempty"`
	CajaID            *string             `json:"caja_id"`
	Items             []ItemVentaResponse `json:"items"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	Impuestos         decimal.Decimal     `json:"impuestos"`
	Descuento         decimal.Decimal     `json:"descuento"`
	Total             decimal.Decimal     `json:"total"`
	MetodoPago        string              `json:"metodo_pago"`
	MontoPagado       decimal.Decimal     `json:"monto_pagado"`
	Cambio            decimal.Decimal     `json:"cambio"`
	Estado            string              `json:"estado"`
	ClienteEmail      *string             `json:"cliente_email,omitempty"`
	MotivoCancelacion *string             `json:"motivo_cancelacion,omitempty"`
	CreatedAt         string              `json:"created_at"`
}
