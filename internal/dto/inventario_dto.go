package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AjustarStockRequest records a manual ledger movement. Cantidad is the
// signed delta: entries positive, exits negative, ajuste either sign.
type AjustarStockRequest struct {
	Tipo     string `json:"tipo"     validate:"omitempty,oneof=entrada salida ajuste compra merma"`
	Cantidad int    `json:"cantidad" validate:"required"`
	Motivo   string `json:"motivo"   validate:"required,min=3,max=200"`
}

// MovimientoFilter is bound from the query string of GET /v1/inventario/movimientos.
type MovimientoFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=entrada salida ajuste venta compra devolucion merma"`
	Desde      string `form:"desde"` // YYYY-MM-DD
	Hasta      string `form:"hasta"` // YYYY-MM-DD, inclusive
	Limit      int    `form:"limit,default=100" validate:"min=1,max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoStockResponse struct {
	ID             string  `json:"id"`
	ProductoID     string  `json:"producto_id"`
	ProductoNombre string  `json:"producto_nombre,omitempty"`
	Tipo           string  `json:"tipo"`
	Cantidad       int     `json:"cantidad"`
	StockAnterior  int     `json:"stock_anterior"`
	StockNuevo     int     `json:"stock_nuevo"`
	Motivo         string  `json:"motivo"`
	UsuarioID      *string `json:"usuario_id"`
	VentaID        *string `json:"venta_id"`
	CreatedAt      string  `json:"created_at"`
}

type MovimientoListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Count int                       `json:"count"`
	Limit int                       `json:"limit"`
}

type StockBajoItem struct {
	ProductoID  string `json:"producto_id"`
	Codigo      string `json:"codigo"`
	Nombre      string `json:"nombre"`
	Stock       int    `json:"stock"`
	StockMinimo int    `json:"stock_minimo"`
	Faltante    int    `json:"faltante"`
}

// Inconsistencia describes one product whose stored stock does not match
// its ledger, or whose ledger chain is broken.
type Inconsistencia struct {
	ProductoID      string `json:"producto_id"`
	Codigo          string `json:"codigo"`
	StockAlmacenado int    `json:"stock_almacenado"`
	StockLedger     int    `json:"stock_ledger"`
	SumaMovimientos int    `json:"suma_movimientos"`
	CadenaRota      bool   `json:"cadena_rota"`
	MovimientoID    string `json:"movimiento_id,omitempty"` // first row that breaks the chain
	Reparado        bool   `json:"reparado"`
}

type ConsistenciaResponse struct {
	ProductosRevisados   int              `json:"productos_revisados"`
	MovimientosRevisados int              `json:"movimientos_revisados"`
	Inconsistencias      []Inconsistencia `json:"inconsistencias"`
	Reparados            int              `json:"reparados"`
}
