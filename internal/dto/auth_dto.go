package dto

import (
	"dulceriapos/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PermisosRequest overrides individual capability flags. Nil fields keep
// the current (or default) value.
type PermisosRequest struct {
	AccesoPOS              *bool            `json:"acceso_pos"`
	AccesoInventario       *bool            `json:"acceso_inventario"`
	AccesoReportes         *bool            `json:"acceso_reportes"`
	AccesoConfiguracion    *bool            `json:"acceso_configuracion"`
	AgregarProductos       *bool            `json:"agregar_productos"`
	EditarProductos        *bool            `json:"editar_productos"`
	EliminarProductos      *bool            `json:"eliminar_productos"`
	AjustarStock           *bool            `json:"ajustar_stock"`
	ProcesarVentas         *bool            `json:"procesar_ventas"`
	AplicarDescuentos      *bool            `json:"aplicar_descuentos"`
	CancelarVentas         *bool            `json:"cancelar_ventas"`
	AccesoCaja             *bool            `json:"acceso_caja"`
	GestionarUsuarios      *bool            `json:"gestionar_usuarios"`
	VerReportesFinancieros *bool            `json:"ver_reportes_financieros"`
	RespaldarDatos         *bool            `json:"respaldar_datos"`
	MontoMaximoVenta       *decimal.Decimal `json:"monto_maximo_venta"   validate:"omitempty,gt=0"`
	DescuentoMaximoPct     *decimal.Decimal `json:"descuento_maximo_pct" validate:"omitempty,min=0,max=100"`
	TimeoutSesionMinutos   *int             `json:"timeout_sesion_minutos" validate:"omitempty,min=5"`
}

type CrearUsuarioRequest struct {
	Username      string           `json:"username"       validate:"required,min=3,max=150"`
	Nombre        string           `json:"nombre"         validate:"required,min=2,max=150"`
	Email         *string          `json:"email"          validate:"omitempty,email"`
	Password      string           `json:"password"       validate:"required,min=8"`
	SucursalID    *string          `json:"sucursal_id"    validate:"omitempty,uuid"`
	EsPropietario bool             `json:"es_propietario"`
	Permisos      *PermisosRequest `json:"permisos"`
}

type ActualizarUsuarioRequest struct {
	Nombre     string           `json:"nombre"      validate:"omitempty,min=2,max=150"`
	Email      *string          `json:"email"       validate:"omitempty,email"`
	SucursalID *string          `json:"sucursal_id" validate:"omitempty,uuid"`
	Password   string           `json:"password"    validate:"omitempty,min=8"`
	Permisos   *PermisosRequest `json:"permisos"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID            string         `json:"id"`
	NegocioID     string         `json:"negocio_id"`
	SucursalID    *string        `json:"sucursal_id"`
	Username      string         `json:"username"`
	Nombre        string         `json:"nombre"`
	Email         *string        `json:"email"`
	EsPropietario bool           `json:"es_propietario"`
	Activo        bool           `json:"activo"`
	Permisos      model.Permisos `json:"permisos"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	User         UsuarioResponse `json:"user"`
}

// SesionActivaResponse is a connected device counted against the seat limit.
type SesionActivaResponse struct {
	UsuarioID       string  `json:"usuario_id"`
	Username        string  `json:"username"`
	Nombre          string  `json:"nombre"`
	IPAddress       *string `json:"ip_address"`
	UserAgent       string  `json:"user_agent"`
	Desde           string  `json:"desde"`
	UltimaActividad string  `json:"ultima_actividad"`
}

type SesionesActivasResponse struct {
	Data            []SesionActivaResponse `json:"data"`
	TotalConectados int                    `json:"total_conectados"`
	LimiteUsuarios  int                    `json:"limite_usuarios"`
}
