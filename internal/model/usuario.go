package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Usuario stores system users. Access is governed by the embedded Permisos
// capability set, not by a role name.
type Usuario struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NegocioID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	SucursalID    *uuid.UUID `gorm:"type:uuid"`
	Username      string     `gorm:"uniqueIndex;not null"`
	Nombre        string     `gorm:"not null"`
	Email         *string
	PasswordHash  string   `gorm:"not null"`
	EsPropietario bool     `gorm:"not null;default:false"`
	Activo        bool     `gorm:"not null"`
	Permisos      Permisos `gorm:"embedded"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Usuario) TableName() string { return "usuarios" }

// Permisos is the capability set checked at every operation boundary.
type Permisos struct {
	AccesoPOS              bool             `gorm:"column:puede_acceso_pos;not null" json:"acceso_pos"`
	AccesoInventario       bool             `gorm:"column:puede_acceso_inventario;not null" json:"acceso_inventario"`
	AccesoReportes         bool             `gorm:"column:puede_acceso_reportes;not null;default:false" json:"acceso_reportes"`
	AccesoConfiguracion    bool             `gorm:"column:puede_acceso_configuracion;not null;default:false" json:"acceso_configuracion"`
	AgregarProductos       bool             `gorm:"column:puede_agregar_productos;not null" json:"agregar_productos"`
	EditarProductos        bool             `gorm:"column:puede_editar_productos;not null" json:"editar_productos"`
	EliminarProductos      bool             `gorm:"column:puede_eliminar_productos;not null;default:false" json:"eliminar_productos"`
	AjustarStock           bool             `gorm:"column:puede_ajustar_stock;not null" json:"ajustar_stock"`
	ProcesarVentas         bool             `gorm:"column:puede_procesar_ventas;not null" json:"procesar_ventas"`
	AplicarDescuentos      bool             `gorm:"column:puede_aplicar_descuentos;not null;default:false" json:"aplicar_descuentos"`
	CancelarVentas         bool             `gorm:"column:puede_cancelar_ventas;not null;default:false" json:"cancelar_ventas"`
	AccesoCaja             bool             `gorm:"column:puede_acceso_caja;not null" json:"acceso_caja"`
	GestionarUsuarios      bool             `gorm:"column:puede_gestionar_usuarios;not null;default:false" json:"gestionar_usuarios"`
	VerReportesFinancieros bool             `gorm:"column:puede_ver_reportes_financieros;not null;default:false" json:"ver_reportes_financieros"`
	RespaldarDatos         bool             `gorm:"column:puede_respaldar_datos;not null;default:false" json:"respaldar_datos"`
	MontoMaximoVenta       *decimal.Decimal `gorm:"column:monto_maximo_venta;type:decimal(12,2)" json:"monto_maximo_venta"`
	DescuentoMaximoPct     decimal.Decimal  `gorm:"column:descuento_maximo_pct;type:decimal(5,2);not null;default:0" json:"descuento_maximo_pct"`
	TimeoutSesionMinutos   int              `gorm:"column:timeout_sesion_minutos;not null;default:480" json:"timeout_sesion_minutos"`
}

// Permiso names one boolean capability.
type Permiso string

const (
	PermisoAccesoPOS              Permiso = "acceso_pos"
	PermisoAccesoInventario       Permiso = "acceso_inventario"
	PermisoAccesoReportes         Permiso = "acceso_reportes"
	PermisoAccesoConfiguracion    Permiso = "acceso_configuracion"
	PermisoAgregarProductos       Permiso = "agregar_productos"
	PermisoEditarProductos        Permiso = "editar_productos"
	PermisoEliminarProductos      Permiso = "eliminar_productos"
	PermisoAjustarStock           Permiso = "ajustar_stock"
	PermisoProcesarVentas         Permiso = "procesar_ventas"
	PermisoAplicarDescuentos      Permiso = "aplicar_descuentos"
	PermisoCancelarVentas         Permiso = "cancelar_ventas"
	PermisoAccesoCaja             Permiso = "acceso_caja"
	PermisoGestionarUsuarios      Permiso = "gestionar_usuarios"
	PermisoVerReportesFinancieros Permiso = "ver_reportes_financieros"
	PermisoRespaldarDatos         Permiso = "respaldar_datos"
)

// Tiene reports whether the capability is granted. Unknown names are denied.
func (p Permisos) Tiene(permiso Permiso) bool {
	switch permiso {
	case PermisoAccesoPOS:
		return p.AccesoPOS
	case PermisoAccesoInventario:
		return p.AccesoInventario
	case PermisoAccesoReportes:
		return p.AccesoReportes
	case PermisoAccesoConfiguracion:
		return p.AccesoConfiguracion
	case PermisoAgregarProductos:
		return p.AgregarProductos
	case PermisoEditarProductos:
		return p.EditarProductos
	case PermisoEliminarProductos:
		return p.EliminarProductos
	case PermisoAjustarStock:
		return p.AjustarStock
	case PermisoProcesarVentas:
		return p.ProcesarVentas
	case PermisoAplicarDescuentos:
		return p.AplicarDescuentos
	case PermisoCancelarVentas:
		return p.CancelarVentas
	case PermisoAccesoCaja:
		return p.AccesoCaja
	case PermisoGestionarUsuarios:
		return p.GestionarUsuarios
	case PermisoVerReportesFinancieros:
		return p.VerReportesFinancieros
	case PermisoRespaldarDatos:
		return p.RespaldarDatos
	}
	return false
}

// Lista returns the granted boolean capabilities, used for JWT claims.
func (p Permisos) Lista() []Permiso {
	todos := []Permiso{
		PermisoAccesoPOS, PermisoAccesoInventario, PermisoAccesoReportes, PermisoAccesoConfiguracion,
		PermisoAgregarProductos, PermisoEditarProductos, PermisoEliminarProductos, PermisoAjustarStock,
		PermisoProcesarVentas, PermisoAplicarDescuentos, PermisoCancelarVentas, PermisoAccesoCaja,
		PermisoGestionarUsuarios, PermisoVerReportesFinancieros, PermisoRespaldarDatos,
	}
	out := make([]Permiso, 0, len(todos))
	for _, permiso := range todos {
		if p.Tiene(permiso) {
			out = append(out, permiso)
		}
	}
	return out
}

// PermisosPropietario grants every capability.
func PermisosPropietario() Permisos {
	return Permisos{
		AccesoPOS: true, AccesoInventario: true, AccesoReportes: true, AccesoConfiguracion: true,
		AgregarProductos: true, EditarProductos: true, EliminarProductos: true, AjustarStock: true,
		ProcesarVentas: true, AplicarDescuentos: true, CancelarVentas: true, AccesoCaja: true,
		GestionarUsuarios: true, VerReportesFinancieros: true, RespaldarDatos: true,
		DescuentoMaximoPct:   decimal.NewFromInt(100),
		TimeoutSesionMinutos: 480,
	}
}

// PermisosEmpleado is the basic cashier set.
func PermisosEmpleado() Permisos {
	return Permisos{
		AccesoPOS: true, AccesoInventario: true,
		AgregarProductos: true, EditarProductos: true, AjustarStock: true,
		ProcesarVentas: true, AccesoCaja: true,
		DescuentoMaximoPct:   decimal.Zero,
		TimeoutSesionMinutos: 480,
	}
}

// SesionUsuario tracks a logged-in device for the concurrent seat limit.
// SessionKey is the JWT ID (jti) of the access token.
type SesionUsuario struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID       uuid.UUID `gorm:"type:uuid;not null;index"`
	NegocioID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SessionKey      string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	IPAddress       *string
	UserAgent       string
	Activa          bool `gorm:"not null"`
	CreatedAt       time.Time
	UltimaActividad time.Time
}

func (SesionUsuario) TableName() string { return "sesiones_usuario" }
