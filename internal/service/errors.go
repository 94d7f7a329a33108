package service

import "dulceriapos/internal/apierror"

// Sentinel business errors. Wrap them with fmt.Errorf("%w: ...") to add
// detail; handlers map the kind to a status code.
var (
	ErrProductoNoEncontrado   = apierror.NotFound("producto no encontrado")
	ErrCodigoDuplicado        = apierror.Conflict("ya existe un producto con ese código")
	ErrPrecioInvalido         = apierror.Validation("el precio debe ser mayor a 0")
	ErrProductoInactivo       = apierror.Validation("el producto está inactivo")
	ErrCategoriaNoEncontrada  = apierror.NotFound("categoría no encontrada")
	ErrCategoriaDuplicada     = apierror.Conflict("ya existe una categoría con ese nombre")
	ErrCantidadCero           = apierror.Validation("la cantidad no puede ser 0")
	ErrTipoMovimientoInvalido = apierror.Validation("tipo de movimiento inválido")
	ErrSignoMovimiento        = apierror.Validation("el signo de la cantidad no corresponde al tipo de movimiento")
	ErrStockInsuficiente      = apierror.InsufficientStock("stock insuficiente")

	ErrVentaNoEncontrada    = apierror.NotFound("venta no encontrada")
	ErrVentaSinItems        = apierror.Validation("la venta debe tener al menos un producto")
	ErrCantidadInvalida     = apierror.Validation("la cantidad debe ser mayor a 0 con máximo 3 decimales")
	ErrCantidadFraccionaria = apierror.Validation("el producto no admite cantidades decimales")
	ErrDescuentoInvalido    = apierror.Validation("el descuento no puede superar el importe")
	ErrPagoInsuficiente     = apierror.InsufficientPayment("el monto pagado es insuficiente")
	ErrVentaNoCompletada    = apierror.Conflict("solo se puede cancelar o devolver una venta completada")
	ErrFolioAgotado         = apierror.Conflict("no se pudo generar un folio único")

	ErrSinPermiso          = apierror.PermissionDenied("permisos insuficientes")
	ErrDescuentoExcedido   = apierror.PermissionDenied("el descuento supera el máximo permitido")
	ErrMontoMaximoExcedido = apierror.PermissionDenied("el total supera el monto máximo de venta permitido")

	ErrCajaNoEncontrada = apierror.NotFound("caja no encontrada")
	ErrCajaYaAbierta    = apierror.Conflict("ya hay una caja abierta para esta sucursal hoy")
	ErrCajaYaCerrada    = apierror.Conflict("la caja de esta sucursal ya fue cerrada hoy")
	ErrCajaNoAbierta    = apierror.Conflict("la caja no está abierta")
	ErrMontoNegativo    = apierror.Validation("el monto no puede ser negativo")
	ErrMontoInvalido    = apierror.Validation("el monto debe ser mayor a 0")
	ErrFechaInvalida    = apierror.Validation("fecha inválida, use AAAA-MM-DD")

	ErrNegocioNoEncontrado   = apierror.NotFound("negocio no encontrado")
	ErrNegocioDuplicado      = apierror.Conflict("ya existe un negocio con ese nombre o email")
	ErrSucursalNoEncontrada  = apierror.NotFound("sucursal no encontrada")
	ErrSucursalDuplicada     = apierror.Conflict("ya existe una sucursal con ese nombre")
	ErrUsuarioNoEncontrado   = apierror.NotFound("usuario no encontrado")
	ErrUsernameDuplicado     = apierror.Conflict("el nombre de usuario ya existe")
	ErrOperacionPropia       = apierror.Validation("no puedes aplicar esta operación a tu propio usuario")
	ErrCredencialesInvalidas = apierror.Unauthorized("credenciales invalidas")
	ErrTokenInvalido         = apierror.Unauthorized("token invalido o expirado")
	ErrSesionInvalida        = apierror.Unauthorized("la sesión expiró o fue cerrada")
	ErrUsuarioInactivo       = apierror.Unauthorized("usuario inactivo")
	ErrSuscripcionInactiva   = apierror.PermissionDenied("la suscripción del negocio no está activa")
	ErrLimiteSesiones        = apierror.PermissionDenied("se alcanzó el límite de usuarios conectados")

	ErrProspectoNoEncontrado = apierror.NotFound("prospecto no encontrado")
	ErrProspectoDuplicado    = apierror.Conflict("ya existe un prospecto con ese email")
	ErrTransicionInvalida    = apierror.Conflict("transición de estado no permitida")
	ErrTokenRegistroInvalido = apierror.Validation("el enlace de registro no es válido o expiró")
)
