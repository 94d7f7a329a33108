package service_test

import (
	"testing"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venta(metodo, pagado string, items ...dto.ItemVentaRequest) dto.RegistrarVentaRequest {
	return dto.RegistrarVentaRequest{Items: items, MetodoPago: metodo, MontoPagado: dec(pagado)}
}

// ── Scenarios ────────────────────────────────────────────────────────────────

func TestRegistrarVenta_DescuentaStockYRegistraMovimiento(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta Payaso", "12.50", 10, 5)

	resp, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "50", item(p, "3")))
	require.NoError(t, err)

	assert.Equal(t, 7, e.productos.stock(p.ID))
	movs := e.movs.de(p.ID)
	require.Len(t, movs, 2, "inventario inicial + venta")
	mov := movs[1]
	assert.Equal(t, model.MovVenta, mov.Tipo)
	assert.Equal(t, -3, mov.Cantidad)
	assert.Equal(t, 10, mov.StockAnterior)
	assert.Equal(t, 7, mov.StockNuevo)
	require.NotNil(t, mov.VentaID)
	assert.Equal(t, resp.ID, mov.VentaID.String())

	bajo, err := e.productoSvc.ReporteStockBajo(e.ctx, e.negocioID)
	require.NoError(t, err)
	assert.Empty(t, bajo)

	assert.Equal(t, "completada", resp.Estado)
	assert.True(t, resp.Total.Equal(dec("37.50")))
	assert.True(t, resp.Cambio.Equal(dec("12.50")))
	assert.NotEmpty(t, resp.Folio)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Paleta Payaso", resp.Items[0].Producto)
}

func TestRegistrarVenta_StockInsuficienteNoDejaRastro(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta Payaso", "10", 10, 0)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "500", item(p, "12")))
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.Equal(t, apierror.KindInsufficientStock, apierror.KindOf(err))

	assert.Empty(t, e.ventas.ventas)
	assert.Len(t, e.movs.de(p.ID), 1)
	assert.Equal(t, 10, e.productos.stock(p.ID))
	assert.Empty(t, e.jobs.tickets)
}

func TestRegistrarVenta_StockInsuficienteSumandoLineasDelMismoProducto(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta Payaso", "10", 5, 0)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID,
		venta(model.PagoEfectivo, "100", item(p, "3"), item(p, "3")))
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.Equal(t, 5, e.productos.stock(p.ID))
}

func TestRegistrarVenta_PagoInsuficienteSinEfectos(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "MAZ", "Mazapán", "100", 10, 0)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "90", item(p, "1")))
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrPagoInsuficiente)
	assert.Equal(t, apierror.KindInsufficientPayment, apierror.KindOf(err))

	assert.Empty(t, e.ventas.ventas)
	assert.Len(t, e.movs.de(p.ID), 1)
	assert.Equal(t, 10, e.productos.stock(p.ID))
}

// ── Line math ───────────────────────────────────────────────────────────────

func TestRegistrarVenta_ImpuestosYDescuentoPorLinea(t *testing.T) {
	e := nuevoEntorno(t)
	minimo := 0
	resp, err := e.productoSvc.Crear(e.ctx, e.negocioID, e.owner.ID, dto.CrearProductoRequest{
		Codigo: "CHO", Nombre: "Chocolate", Precio: dec("20"), Stock: 10,
		StockMinimo: &minimo, PorcentajeImpuesto: dec("16"),
	})
	require.NoError(t, err)

	req := venta(model.PagoTarjeta, "100", dto.ItemVentaRequest{ProductoID: resp.ID, Cantidad: dec("2"), DescuentoUnitario: dec("2")})
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.owner.ID, req)
	require.NoError(t, err)

	// (20-2)*2 = 36, 16% = 5.76
	assert.True(t, v.Subtotal.Equal(dec("36")), v.Subtotal.String())
	assert.True(t, v.Impuestos.Equal(dec("5.76")), v.Impuestos.String())
	assert.True(t, v.Total.Equal(dec("41.76")), v.Total.String())
}

func TestRegistrarVenta_CantidadFraccionariaRedondeaStockHaciaArriba(t *testing.T) {
	e := nuevoEntorno(t)
	minimo := 0
	resp, err := e.productoSvc.Crear(e.ctx, e.negocioID, e.owner.ID, dto.CrearProductoRequest{
		Codigo: "GOM", Nombre: "Gomitas a granel", Precio: dec("80"), Stock: 5,
		StockMinimo: &minimo, RequierePeso: true, PermiteDecimales: true,
	})
	require.NoError(t, err)

	req := venta(model.PagoEfectivo, "100", dto.ItemVentaRequest{ProductoID: resp.ID, Cantidad: dec("0.250")})
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, req)
	require.NoError(t, err)

	assert.True(t, v.Total.Equal(dec("20")))
	p, _ := e.productos.FindByCodigo(e.ctx, e.negocioID, "GOM")
	assert.Equal(t, 4, p.Stock)
}

func TestRegistrarVenta_RechazaCantidadesInvalidas(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "10", 10, 0)

	cases := []struct {
		name     string
		cantidad string
		want     error
	}{
		{"cero", "0", service.ErrCantidadInvalida},
		{"negativa", "-1", service.ErrCantidadInvalida},
		{"cuatro decimales", "1.0005", service.ErrCantidadInvalida},
		{"fraccion sin permiso", "1.5", service.ErrCantidadFraccionaria},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "100", item(p, tc.cantidad)))
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, e.productos.stock(p.ID))
}

func TestRegistrarVenta_ProductoInactivo(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "10", 10, 0)
	require.NoError(t, e.productos.SetActivo(e.ctx, e.negocioID, p.ID, false))

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "100", item(p, "1")))
	assert.ErrorIs(t, err, service.ErrProductoNoEncontrado)
}

func TestRegistrarVenta_SinItems(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "100"))
	assert.ErrorIs(t, err, service.ErrVentaSinItems)
}

// ── Permissions ─────────────────────────────────────────────────────────────

func TestRegistrarVenta_DescuentoRequierePermiso(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "100", 10, 0)

	req := venta(model.PagoEfectivo, "100", item(p, "1"))
	req.Descuento = dec("5")
	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, req)
	assert.ErrorIs(t, err, service.ErrSinPermiso)
	assert.Equal(t, apierror.KindPermissionDenied, apierror.KindOf(err))
}

func TestRegistrarVenta_DescuentoMaximo(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "100", 10, 0)
	permisos := model.PermisosEmpleado()
	permisos.AplicarDescuentos = true
	permisos.DescuentoMaximoPct = dec("10")
	supervisor := e.nuevoUsuario(t, "supervisor", permisos, false)

	req := venta(model.PagoEfectivo, "100", item(p, "1"))
	req.Descuento = dec("15")
	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, supervisor.ID, req)
	assert.ErrorIs(t, err, service.ErrDescuentoExcedido)

	req.Descuento = dec("10")
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, supervisor.ID, req)
	require.NoError(t, err)
	assert.True(t, v.Total.Equal(dec("90")))
}

func TestRegistrarVenta_MontoMaximo(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "100", 10, 0)
	permisos := model.PermisosEmpleado()
	maximo := dec("150")
	permisos.MontoMaximoVenta = &maximo
	limitado := e.nuevoUsuario(t, "limitado", permisos, false)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, limitado.ID, venta(model.PagoEfectivo, "500", item(p, "2")))
	assert.ErrorIs(t, err, service.ErrMontoMaximoExcedido)
	assert.Equal(t, 10, e.productos.stock(p.ID))
}

func TestRegistrarVenta_SinPermisoDeVentas(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "10", 10, 0)
	almacen := e.nuevoUsuario(t, "almacen", model.Permisos{AccesoInventario: true}, false)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, almacen.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	assert.ErrorIs(t, err, service.ErrSinPermiso)
}

// ── Folio ────────────────────────────────────────────────────────────────────

func TestRegistrarVenta_FolioDuplicadoSeRegenera(t *testing.T) {
	e := nuevoEntorno(t)
	e.ventaSvc = e.nuevoVentaSvc(folioFijo("V-20261016-000001"))
	p := e.producto(t, "ABC", "Paleta", "10", 10, 0)

	v1, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)
	v2, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)

	assert.Equal(t, "V-20261016-000001", v1.Folio)
	assert.NotEqual(t, v1.Folio, v2.Folio)
	assert.Contains(t, v2.Folio, "V-20261016-000001")
	assert.Equal(t, 8, e.productos.stock(p.ID))
}

func TestRegistrarVenta_FolioAgotado(t *testing.T) {
	e := nuevoEntorno(t)
	e.ventas.siempreDuplicado = true
	p := e.producto(t, "ABC", "Paleta", "10", 10, 0)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	assert.ErrorIs(t, err, service.ErrFolioAgotado)
}

// ── Caja link and ticket job ────────────────────────────────────────────────

func TestRegistrarVenta_VinculaCajaAbiertaYEncolaTicket(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "ABC", "Paleta", "10", 10, 0)
	caja, err := e.cajaSvc.Abrir(e.ctx, e.negocioID, e.cajero.ID, dto.AbrirCajaRequest{MontoInicial: dec("100")})
	require.NoError(t, err)

	email := "cliente@example.com"
	req := venta(model.PagoEfectivo, "10", item(p, "1"))
	req.ClienteEmail = &email
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, req)
	require.NoError(t, err)

	require.NotNil(t, v.CajaID)
	assert.Equal(t, caja.ID, *v.CajaID)
	require.Len(t, e.jobs.tickets, 1)
	assert.Equal(t, v.ID, e.jobs.tickets[0].VentaID)
	assert.Equal(t, email, e.jobs.tickets[0].ClienteEmail)
}

// ── Cancelar / Devolver ──────────────────────────────────────────────────────

func TestCancelarVenta_RestauraStockConMovimientoDeDevolucion(t *testing.T) {
	e := nuevoEntorno(t)
	a := e.producto(t, "A", "Paleta", "10", 10, 0)
	b := e.producto(t, "B", "Chicle", "2", 20, 0)

	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "100", item(a, "3"), item(b, "5")))
	require.NoError(t, err)
	require.Equal(t, 7, e.productos.stock(a.ID))
	require.Equal(t, 15, e.productos.stock(b.ID))

	cancelada, err := e.ventaSvc.CancelarVenta(e.ctx, e.negocioID, uuidOf(t, v.ID), e.owner.ID, "cliente se arrepintió")
	require.NoError(t, err)

	assert.Equal(t, "cancelada", cancelada.Estado)
	require.NotNil(t, cancelada.MotivoCancelacion)
	assert.Equal(t, "cliente se arrepintió", *cancelada.MotivoCancelacion)
	assert.Equal(t, 10, e.productos.stock(a.ID))
	assert.Equal(t, 20, e.productos.stock(b.ID))

	movs := e.movs.de(a.ID)
	require.Len(t, movs, 3)
	assert.Equal(t, model.MovDevolucion, movs[2].Tipo)
	assert.Equal(t, 3, movs[2].Cantidad)
}

func TestCancelarVenta_DosVecesEsConflicto(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "A", "Paleta", "10", 10, 0)
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)
	id := uuidOf(t, v.ID)

	_, err = e.ventaSvc.CancelarVenta(e.ctx, e.negocioID, id, e.owner.ID, "error de captura")
	require.NoError(t, err)
	_, err = e.ventaSvc.DevolverVenta(e.ctx, e.negocioID, id, e.owner.ID, "error de captura")
	assert.ErrorIs(t, err, service.ErrVentaNoCompletada)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))

	assert.Equal(t, 10, e.productos.stock(p.ID))
	assert.Len(t, e.movs.de(p.ID), 3)
}

func TestCancelarVenta_RequierePermiso(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "A", "Paleta", "10", 10, 0)
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)

	_, err = e.ventaSvc.CancelarVenta(e.ctx, e.negocioID, uuidOf(t, v.ID), e.cajero.ID, "sin permiso")
	assert.ErrorIs(t, err, service.ErrSinPermiso)
	assert.Equal(t, 9, e.productos.stock(p.ID))
}

func TestDevolverVenta_FraccionDevuelveUnidadCompleta(t *testing.T) {
	e := nuevoEntorno(t)
	minimo := 0
	resp, err := e.productoSvc.Crear(e.ctx, e.negocioID, e.owner.ID, dto.CrearProductoRequest{
		Codigo: "GOM", Nombre: "Gomitas", Precio: dec("80"), Stock: 5, StockMinimo: &minimo, PermiteDecimales: true,
	})
	require.NoError(t, err)
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID,
		venta(model.PagoEfectivo, "120", dto.ItemVentaRequest{ProductoID: resp.ID, Cantidad: dec("1.5")}))
	require.NoError(t, err)
	p, _ := e.productos.FindByCodigo(e.ctx, e.negocioID, "GOM")
	assert.Equal(t, 3, p.Stock)

	devuelta, err := e.ventaSvc.DevolverVenta(e.ctx, e.negocioID, uuidOf(t, v.ID), e.owner.ID, "producto en mal estado")
	require.NoError(t, err)
	assert.Equal(t, "devuelta", devuelta.Estado)

	p, _ = e.productos.FindByCodigo(e.ctx, e.negocioID, "GOM")
	assert.Equal(t, 5, p.Stock)
}

func TestCancelarVenta_NoEncontrada(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.ventaSvc.CancelarVenta(e.ctx, e.negocioID, uuidOf(t, "00000000-0000-0000-0000-000000000001"), e.owner.ID, "no existe")
	assert.ErrorIs(t, err, service.ErrVentaNoEncontrada)
}

// ── Listado ──────────────────────────────────────────────────────────────────

func TestListarVentas_SoloCompletadasPorDefecto(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "A", "Paleta", "10", 10, 0)
	v1, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)
	_, err = e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)
	_, err = e.ventaSvc.CancelarVenta(e.ctx, e.negocioID, uuidOf(t, v1.ID), e.owner.ID, "duplicada")
	require.NoError(t, err)

	list, err := e.ventaSvc.ListarVentas(e.ctx, e.negocioID, dto.VentaFilter{})
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)

	todas, err := e.ventaSvc.ListarVentas(e.ctx, e.negocioID, dto.VentaFilter{Estado: "all"})
	require.NoError(t, err)
	assert.Len(t, todas.Data, 2)
}
