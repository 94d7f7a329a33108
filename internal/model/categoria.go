package model

import (
	"time"

	"github.com/google/uuid"
)

// Categoria groups products of one negocio. Nombre is unique per negocio.
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre      string    `gorm:"not null"`
	Descripcion *string
	Activa      bool `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Categoria) TableName() string { return "categorias" }
