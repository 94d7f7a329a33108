package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Negocio is the tenant: every other row belongs to exactly one negocio.
type Negocio struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre                  string    `gorm:"not null"`
	Email                   string    `gorm:"not null"`
	Telefono                string
	Direccion               string
	MaxUsuariosConcurrentes int             `gorm:"not null;default:2"`
	SuscripcionActiva       bool            `gorm:"not null"`
	Plan                    string          `gorm:"type:varchar(20);not null;default:'basico'"`
	CostoMensual            decimal.Decimal `gorm:"type:decimal(8,2);not null;default:299"`
	CreatedAt               time.Time

	Configuracion *ConfiguracionNegocio `gorm:"foreignKey:NegocioID"`
}

func (Negocio) TableName() string { return "negocios" }

// ConfiguracionNegocio holds per-tenant preferences.
type ConfiguracionNegocio struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	SimboloMoneda       string    `gorm:"type:varchar(5);not null;default:'$'"`
	ZonaHoraria         string    `gorm:"type:varchar(50);not null;default:'America/Mexico_City'"`
	UmbralStockBajo     int       `gorm:"not null;default:5"`
	MostrarAlertasStock bool      `gorm:"not null"`
	EnviarReporteDiario bool      `gorm:"not null;default:false"`
	EmailReporte        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (ConfiguracionNegocio) TableName() string { return "configuraciones_negocio" }

// Location resolves the negocio time zone. Calendar days (caja, reports)
// are computed in this zone.
func (c *ConfiguracionNegocio) Location() *time.Location {
	if c == nil || c.ZonaHoraria == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.ZonaHoraria)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Sucursal is a physical branch of a negocio.
type Sucursal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre      string    `gorm:"not null"`
	Direccion   string
	Telefono    string
	Encargado   string
	Activa      bool `gorm:"not null"`
	EsPrincipal bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Sucursal) TableName() string { return "sucursales" }
