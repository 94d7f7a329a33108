package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a sellable item of one negocio.
// Stock is a cache of the ledger: it only changes through MovimientoStock.
type Producto struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	CategoriaID        *uuid.UUID `gorm:"type:uuid;index"`
	Codigo             string     `gorm:"type:varchar(50);not null"`
	Nombre             string     `gorm:"index;not null"`
	Descripcion        *string
	Precio             decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	PrecioCompra       *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Stock              int              `gorm:"not null;default:0"`
	StockMinimo        int              `gorm:"not null;default:0"`
	PorcentajeImpuesto decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0"`
	RequierePeso       bool             `gorm:"not null;default:false"`
	PermiteDecimales   bool             `gorm:"not null;default:false"`
	Activo             bool             `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}

func (Producto) TableName() string { return "productos" }

// StockBajo reports whether the product should appear in low-stock alerts.
// A minimum of 0 disables the alert.
func (p *Producto) StockBajo() bool {
	return p.Activo && p.StockMinimo > 0 && p.Stock <= p.StockMinimo
}
