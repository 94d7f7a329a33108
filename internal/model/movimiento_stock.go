package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TipoMovimiento classifies a ledger entry.
type TipoMovimiento string

const (
	MovEntrada    TipoMovimiento = "entrada"
	MovSalida     TipoMovimiento = "salida"
	MovAjuste     TipoMovimiento = "ajuste"
	MovVenta      TipoMovimiento = "venta"
	MovCompra     TipoMovimiento = "compra"
	MovDevolucion TipoMovimiento = "devolucion"
	MovMerma      TipoMovimiento = "merma"
)

// EsSalida reports whether the type removes stock.
func (t TipoMovimiento) EsSalida() bool {
	return t == MovSalida || t == MovVenta || t == MovMerma
}

// EsEntrada reports whether the type adds stock.
func (t TipoMovimiento) EsEntrada() bool {
	return t == MovEntrada || t == MovCompra || t == MovDevolucion
}

func (t TipoMovimiento) Valido() bool {
	return t.EsSalida() || t.EsEntrada() || t == MovAjuste
}

// MovimientoStock is an append-only ledger row. Rows are never updated or
// deleted; a correction is a new row.
type MovimientoStock struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Secuencia     int64          `gorm:"->"` // insertion order, assigned by the database
	NegocioID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	ProductoID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Tipo          TipoMovimiento `gorm:"type:varchar(20);not null"`
	Cantidad      int            `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int            `gorm:"not null"`
	StockNuevo    int            `gorm:"not null"`
	Motivo        string
	UsuarioID     *uuid.UUID `gorm:"type:uuid"`
	VentaID       *uuid.UUID `gorm:"type:uuid;index"`
	IPAddress     *string    `gorm:"type:varchar(45)"`
	CreatedAt     time.Time

	// ProductoNombre is filled by ledger reads that join productos.
	ProductoNombre string `gorm:"->;-:migration"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (MovimientoStock) TableName() string { return "movimientos_stock" }

// BeforeCreate rejects rows whose snapshots do not add up.
func (m *MovimientoStock) BeforeCreate(_ *gorm.DB) error {
	return m.Validar()
}

// Validar checks stock_anterior + cantidad == stock_nuevo.
func (m *MovimientoStock) Validar() error {
	if m.StockAnterior+m.Cantidad != m.StockNuevo {
		return fmt.Errorf("movimiento inconsistente: %d + %d != %d", m.StockAnterior, m.Cantidad, m.StockNuevo)
	}
	return nil
}
