package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProspectoRequest struct {
	NombreCompleto string `json:"nombre_completo" validate:"required,min=3,max=100"`
	Email          string `json:"email"           validate:"required,email"`
	Telefono       string `json:"telefono"        validate:"required,min=10,max=20"`
	Ciudad         string `json:"ciudad"          validate:"required,min=2,max=50"`
	Origen         string `json:"origen"          validate:"omitempty,max=50"`
}

// AvanzarProspectoRequest moves a lead. An empty Estado means the next
// state in the funnel.
type AvanzarProspectoRequest struct {
	Estado string `json:"estado" validate:"omitempty,oneof=mensaje_enviado contactado pago_pendiente pago_completado link_enviado registro_completo activo vencido cancelado"`
	Notas  string `json:"notas"`
}

type ProspectoFilter struct {
	Estado string `form:"estado"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProspectoResponse struct {
	ID             string  `json:"id"`
	NombreCompleto string  `json:"nombre_completo"`
	Email          string  `json:"email"`
	Telefono       string  `json:"telefono"`
	Ciudad         string  `json:"ciudad"`
	Estado         string  `json:"estado"`
	Progreso       int     `json:"progreso"`
	Origen         string  `json:"origen"`
	Notas          string  `json:"notas"`
	TokenRegistro  *string `json:"token_registro,omitempty"`
	TokenExpira    *string `json:"token_expira,omitempty"`
	TokenUsado     bool    `json:"token_usado"`
	NegocioID      *string `json:"negocio_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}
