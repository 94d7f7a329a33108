package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// Caja is the daily cash-register session of one sucursal.
// (negocio_id, sucursal_id, fecha) is unique: one session per branch per day.
type Caja struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	SucursalID        uuid.UUID        `gorm:"type:uuid;not null"`
	Fecha             time.Time        `gorm:"type:date;not null"`
	UsuarioAperturaID uuid.UUID        `gorm:"type:uuid;not null"`
	UsuarioCierreID   *uuid.UUID       `gorm:"type:uuid"`
	MontoInicial      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoFinal        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MontoEsperado     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalVentas       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalEfectivo     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalTarjetas     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalGastos       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Diferencia        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado            string           `gorm:"type:varchar(20);not null;default:'abierta'"`
	NotasApertura     *string
	NotasCierre       *string
	AbiertaAt         time.Time
	CerradaAt         *time.Time

	Sucursal *Sucursal `gorm:"foreignKey:SucursalID"`
}

func (Caja) TableName() string { return "cajas" }

// Categorías de gasto.
const (
	GastoCompra    = "compra"
	GastoOperativo = "gasto_operativo"
	GastoRetiro    = "retiro"
	GastoOtro      = "otro"
)

// GastoCaja is money taken out of the register. Monto > 0.
type GastoCaja struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CajaID    *uuid.UUID      `gorm:"type:uuid;index"`
	Concepto  string          `gorm:"not null"`
	Monto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Categoria string          `gorm:"type:varchar(20);not null;default:'gasto_operativo'"`
	UsuarioID uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

func (GastoCaja) TableName() string { return "gastos_caja" }
