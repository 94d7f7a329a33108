package model

import (
	"time"

	"github.com/google/uuid"
)

// EstadoProspecto is a step of the subscription funnel.
type EstadoProspecto string

const (
	ProspectoNuevo            EstadoProspecto = "nuevo"
	ProspectoMensajeEnviado   EstadoProspecto = "mensaje_enviado"
	ProspectoContactado       EstadoProspecto = "contactado"
	ProspectoPagoPendiente    EstadoProspecto = "pago_pendiente"
	ProspectoPagoCompletado   EstadoProspecto = "pago_completado"
	ProspectoLinkEnviado      EstadoProspecto = "link_enviado"
	ProspectoRegistroCompleto EstadoProspecto = "registro_completo"
	ProspectoActivo           EstadoProspecto = "activo"
	ProspectoVencido          EstadoProspecto = "vencido"
	ProspectoCancelado        EstadoProspecto = "cancelado"
)

// FlujoProspecto is the forward order of the funnel.
var FlujoProspecto = []EstadoProspecto{
	ProspectoNuevo, ProspectoMensajeEnviado, ProspectoContactado,
	ProspectoPagoPendiente, ProspectoPagoCompletado, ProspectoLinkEnviado,
	ProspectoRegistroCompleto, ProspectoActivo,
}

// Prospecto is a lead that may become a paying negocio.
type Prospecto struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NombreCompleto     string          `gorm:"not null"`
	Email              string          `gorm:"uniqueIndex;not null"`
	Telefono           string          `gorm:"not null"`
	Ciudad             string          `gorm:"not null"`
	Estado             EstadoProspecto `gorm:"type:varchar(20);not null;default:'nuevo'"`
	Notas              string
	Origen             string `gorm:"not null;default:'formulario_web'"`
	MensajeEnviadoAt   *time.Time
	ContactadoAt       *time.Time
	PagoPendienteAt    *time.Time
	PagoCompletadoAt   *time.Time
	LinkEnviadoAt      *time.Time
	RegistroCompletoAt *time.Time
	TokenRegistro      *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	TokenExpira        *time.Time
	TokenUsado         bool `gorm:"not null;default:false"`
	TokenUsadoAt       *time.Time
	NegocioID          *uuid.UUID `gorm:"type:uuid"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Prospecto) TableName() string { return "prospectos" }

// Progreso is the position in the funnel as a 0-100 percentage.
func (p *Prospecto) Progreso() int {
	for i, e := range FlujoProspecto {
		if e == p.Estado {
			return i * 100 / (len(FlujoProspecto) - 1)
		}
	}
	return 0
}

// Siguiente returns the next state in the funnel, or "" at the end.
func (p *Prospecto) Siguiente() EstadoProspecto {
	for i, e := range FlujoProspecto {
		if e == p.Estado && i+1 < len(FlujoProspecto) {
			return FlujoProspecto[i+1]
		}
	}
	return ""
}

// TokenValido reports whether the registration link can still be used.
func (p *Prospecto) TokenValido(now time.Time) bool {
	if p.TokenRegistro == nil || p.TokenUsado {
		return false
	}
	return p.TokenExpira == nil || !now.After(*p.TokenExpira)
}

// ProspectoLog is the audit trail of a lead.
type ProspectoLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProspectoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Accion      string    `gorm:"type:varchar(50);not null"`
	Descripcion string    `gorm:"not null"`
	CreadoPor   *string
	CreatedAt   time.Time
}

func (ProspectoLog) TableName() string { return "prospecto_logs" }
