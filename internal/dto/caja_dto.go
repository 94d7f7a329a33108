package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	SucursalID   *string         `json:"sucursal_id"   validate:"omitempty,uuid"`
	MontoInicial decimal.Decimal `json:"monto_inicial"`
	Notas        *string         `json:"notas"`
}

type CerrarCajaRequest struct {
	MontoContado decimal.Decimal `json:"monto_contado"`
	Notas        *string         `json:"notas"`
}

type GastoRequest struct {
	Concepto  string          `json:"concepto"  validate:"required,min=3,max=200"`
	Monto     decimal.Decimal `json:"monto"`
	Categoria string          `json:"categoria" validate:"omitempty,oneof=compra gasto_operativo retiro otro"`
}

type CajaHistorialFilter struct {
	SucursalID string `form:"sucursal_id" validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=30" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// EsperadoResponse is the live cash reconciliation of a session.
type EsperadoResponse struct {
	MontoInicial  decimal.Decimal `json:"monto_inicial"`
	TotalVentas   decimal.Decimal `json:"total_ventas"`
	TotalEfectivo decimal.Decimal `json:"total_efectivo"`
	TotalTarjetas decimal.Decimal `json:"total_tarjetas"`
	TotalGastos   decimal.Decimal `json:"total_gastos"`
	NumeroVentas  int64           `json:"numero_ventas"`
	MontoEsperado decimal.Decimal `json:"monto_esperado"`
}

type CajaResponse struct {
	ID                string           `json:"id"`
	SucursalID        string           `json:"sucursal_id"`
	Sucursal          string           `json:"sucursal,omitempty"`
	Fecha             string           `json:"fecha"`
	Estado            string           `json:"estado"`
	UsuarioAperturaID string           `json:"usuario_apertura_id"`
	UsuarioCierreID   *string          `json:"usuario_cierre_id"`
	MontoInicial      decimal.Decimal  `json:"monto_inicial"`
	MontoFinal        *decimal.Decimal `json:"monto_final"`
	MontoEsperado     *decimal.Decimal `json:"monto_esperado"`
	Diferencia        *decimal.Decimal `json:"diferencia"`
	TotalVentas       decimal.Decimal  `json:"total_ventas"`
	TotalEfectivo     decimal.Decimal  `json:"total_efectivo"`
	TotalTarjetas     decimal.Decimal  `json:"total_tarjetas"`
	TotalGastos       decimal.Decimal  `json:"total_gastos"`
	NotasApertura     *string          `json:"notas_apertura"`
	NotasCierre       *string          `json:"notas_cierre"`
	AbiertaAt         string           `json:"abierta_at"`
	CerradaAt         *string          `json:"cerrada_at"`
}

// EstadoCajaResponse is today's session of a branch. Caja is nil when no
// session was opened yet.
type EstadoCajaResponse struct {
	Fecha    string            `json:"fecha"`
	Abierta  bool              `json:"abierta"`
	Caja     *CajaResponse     `json:"caja"`
	Esperado *EsperadoResponse `json:"esperado,omitempty"`
}

type CajaListResponse struct {
	Data  []CajaResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type GastoResponse struct {
	ID        string          `json:"id"`
	CajaID    *string         `json:"caja_id"`
	Concepto  string          `json:"concepto"`
	Monto     decimal.Decimal `json:"monto"`
	Categoria string          `json:"categoria"`
	UsuarioID string          `json:"usuario_id"`
	CreatedAt string          `json:"created_at"`
}
