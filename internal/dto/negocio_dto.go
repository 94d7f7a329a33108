package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegistrarNegocioRequest creates a tenant with its principal branch and
// owner account.
type RegistrarNegocioRequest struct {
	Nombre                  string  `json:"nombre"          validate:"required,min=2,max=100"`
	Email                   string  `json:"email"           validate:"required,email"`
	Telefono                string  `json:"telefono"        validate:"omitempty,max=20"`
	Direccion               string  `json:"direccion"`
	Plan                    string  `json:"plan"            validate:"omitempty,oneof=basico intermedio profesional"`
	MaxUsuariosConcurrentes int     `json:"max_usuarios_concurrentes" validate:"omitempty,min=1,max=50"`
	SucursalNombre          string  `json:"sucursal_nombre" validate:"omitempty,max=200"`
	PropietarioUsername     string  `json:"propietario_username" validate:"required,min=3,max=150"`
	PropietarioNombre       string  `json:"propietario_nombre"   validate:"required,min=2,max=150"`
	PropietarioPassword     string  `json:"propietario_password" validate:"required,min=8"`
	PropietarioEmail        *string `json:"propietario_email"    validate:"omitempty,email"`
}

type ActualizarConfiguracionRequest struct {
	SimboloMoneda       *string `json:"simbolo_moneda"        validate:"omitempty,max=5"`
	ZonaHoraria         *string `json:"zona_horaria"          validate:"omitempty,timezone"`
	UmbralStockBajo     *int    `json:"umbral_stock_bajo"     validate:"omitempty,min=0"`
	MostrarAlertasStock *bool   `json:"mostrar_alertas_stock"`
	EnviarReporteDiario *bool   `json:"enviar_reporte_diario"`
	EmailReporte        *string `json:"email_reporte"         validate:"omitempty,email"`
}

type SucursalRequest struct {
	Nombre    string `json:"nombre"    validate:"required,min=2,max=200"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono"  validate:"omitempty,max=15"`
	Encargado string `json:"encargado" validate:"omitempty,max=200"`
	Activa    *bool  `json:"activa"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type NegocioResponse struct {
	ID                      string                 `json:"id"`
	Nombre                  string                 `json:"nombre"`
	Email                   string                 `json:"email"`
	Plan                    string                 `json:"plan"`
	MaxUsuariosConcurrentes int                    `json:"max_usuarios_concurrentes"`
	SuscripcionActiva       bool                   `json:"suscripcion_activa"`
	Configuracion           *ConfiguracionResponse `json:"configuracion,omitempty"`
	SucursalPrincipal       *SucursalResponse      `json:"sucursal_principal,omitempty"`
	Propietario             *UsuarioResponse       `json:"propietario,omitempty"`
}

type ConfiguracionResponse struct {
	SimboloMoneda       string `json:"simbolo_moneda"`
	ZonaHoraria         string `json:"zona_horaria"`
	UmbralStockBajo     int    `json:"umbral_stock_bajo"`
	MostrarAlertasStock bool   `json:"mostrar_alertas_stock"`
	EnviarReporteDiario bool   `json:"enviar_reporte_diario"`
	EmailReporte        string `json:"email_reporte"`
}

type SucursalResponse struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Direccion   string `json:"direccion"`
	Telefono    string `json:"telefono"`
	Encargado   string `json:"encargado"`
	Activa      bool   `json:"activa"`
	EsPrincipal bool   `json:"es_principal"`
}
