package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoVenta: pendiente → completada → cancelada | devuelta.
type EstadoVenta string

const (
	VentaPendiente  EstadoVenta = "pendiente"
	VentaCompletada EstadoVenta = "completada"
	VentaCancelada  EstadoVenta = "cancelada"
	VentaDevuelta   EstadoVenta = "devuelta"
)

// PuedeTransicionar reports whether the state machine allows from → to.
func (from EstadoVenta) PuedeTransicionar(to EstadoVenta) bool {
	switch from {
	case VentaPendiente:
		return to == VentaCompletada
	case VentaCompletada:
		return to == VentaCancelada || to == VentaDevuelta
	}
	return false
}

// MetodoPago values.
const (
	PagoEfectivo      = "efectivo"
	PagoTarjeta       = "tarjeta"
	PagoTransferencia = "transferencia"
	PagoCredito       = "credito"
	PagoMixto         = "mixto"
)

// Venta is a sale receipt. Immutable once completed except for Estado.
type Venta struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SucursalID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID         uuid.UUID       `gorm:"type:uuid;not null"`
	CajaID            *uuid.UUID      `gorm:"type:uuid;index"`
	Folio             string          `gorm:"type:varchar(32);not null"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuestos         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago        string          `gorm:"type:varchar(20);not null"`
	MontoPagado       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cambio            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Estado            EstadoVenta     `gorm:"type:varchar(20);not null;default:'pendiente'"`
	ClienteEmail      *string
	MotivoCancelacion *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Detalles []VentaDetalle `gorm:"foreignKey:VentaID"`
	Usuario  *Usuario       `gorm:"foreignKey:UsuarioID"`
}

func (Venta) TableName() string { return "ventas" }

// VentaDetalle is one line of a sale.
// Subtotal = (PrecioUnitario - DescuentoUnitario) * Cantidad.
type VentaDetalle struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad           decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	PrecioUnitario     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DescuentoUnitario  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PorcentajeImpuesto decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuestos          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (VentaDetalle) TableName() string { return "venta_detalles" }
