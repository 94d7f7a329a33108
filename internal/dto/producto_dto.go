package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Codigo             string           `json:"codigo"              validate:"required,min=1,max=50"`
	Nombre             string           `json:"nombre"              validate:"required,min=2,max=200"`
	Descripcion        *string          `json:"descripcion"`
	CategoriaID        *string          `json:"categoria_id"        validate:"omitempty,uuid"`
	Precio             decimal.Decimal  `json:"precio"`
	PrecioCompra       *decimal.Decimal `json:"precio_compra"       validate:"omitempty,min=0"`
	Stock              int              `json:"stock"               validate:"min=0"`
	StockMinimo        *int             `json:"stock_minimo"        validate:"omitempty,min=0"`
	PorcentajeImpuesto decimal.Decimal  `json:"porcentaje_impuesto" validate:"min=0,max=100"`
	RequierePeso       bool             `json:"requiere_peso"`
	PermiteDecimales   bool             `json:"permite_decimales"`
}

// ActualizarProductoRequest never carries stock: stock only moves through
// the ledger.
type ActualizarProductoRequest struct {
	Codigo             *string          `json:"codigo"              validate:"omitempty,min=1,max=50"`
	Nombre             *string          `json:"nombre"              validate:"omitempty,min=2,max=200"`
	Descripcion        *string          `json:"descripcion"`
	CategoriaID        *string          `json:"categoria_id"        validate:"omitempty,uuid"`
	Precio             *decimal.Decimal `json:"precio"`
	PrecioCompra       *decimal.Decimal `json:"precio_compra"       validate:"omitempty,min=0"`
	StockMinimo        *int             `json:"stock_minimo"        validate:"omitempty,min=0"`
	PorcentajeImpuesto *decimal.Decimal `json:"porcentaje_impuesto" validate:"omitempty,min=0,max=100"`
	RequierePeso       *bool            `json:"requiere_peso"`
	PermiteDecimales   *bool            `json:"permite_decimales"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Codigo      string `form:"codigo"`
	Nombre      string `form:"nombre"`
	CategoriaID string `form:"categoria_id" validate:"omitempty,uuid"`
	Activo      string `form:"activo,default=true" validate:"oneof=true false all"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID                 string           `json:"id"`
	Codigo             string           `json:"codigo"`
	Nombre             string           `json:"nombre"`
	Descripcion        *string          `json:"descripcion"`
	CategoriaID        *string          `json:"categoria_id"`
	Categoria          string           `json:"categoria"`
	Precio             decimal.Decimal  `json:"precio"`
	PrecioCompra       *decimal.Decimal `json:"precio_compra"`
	MargenPct          *decimal.Decimal `json:"margen_pct"`
	Stock              int              `json:"stock"`
	StockMinimo        int              `json:"stock_minimo"`
	StockBajo          bool             `json:"stock_bajo"`
	PorcentajeImpuesto decimal.Decimal  `json:"porcentaje_impuesto"`
	RequierePeso       bool             `json:"requiere_peso"`
	PermiteDecimales   bool             `json:"permite_decimales"`
	Activo             bool             `json:"activo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// EliminarProductoResponse reports whether the product was removed or only
// deactivated because it has sales.
type EliminarProductoResponse struct {
	Success bool   `json:"success"`
	Accion  string `json:"accion"` // eliminado | desactivado
	Mensaje string `json:"mensaje"`
}

// ConsultaPrecioResponse is returned by the public price check endpoint (no auth required).
type ConsultaPrecioResponse struct {
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	Precio          decimal.Decimal `json:"precio"`
	StockDisponible int             `json:"stock_disponible"`
	Categoria       string          `json:"categoria"`
}
