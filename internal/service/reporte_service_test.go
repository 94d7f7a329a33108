package service_test

import (
	"bytes"
	"errors"
	"testing"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/model"
	"dulceriapos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReporteDiario_TotalesTopYGastos(t *testing.T) {
	e := nuevoEntorno(t)
	paleta := e.producto(t, "A", "Paleta", "10", 50, 0)
	// ends the day at 10 units, on its minimum
	chicle := e.producto(t, "B", "Chicle", "2", 11, 10)

	_, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "100", item(paleta, "5"), item(chicle, "1")))
	require.NoError(t, err)
	_, err = e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoTarjeta, "20", item(paleta, "2")))
	require.NoError(t, err)
	_, err = e.cajaSvc.RegistrarGasto(e.ctx, e.negocioID, e.cajero.ID, dto.GastoRequest{Concepto: "Escoba", Monto: dec("48")})
	require.NoError(t, err)

	rep, err := e.reporteSvc.ReporteDiario(e.ctx, e.negocioID, dto.ReporteFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), rep.NumeroVentas)
	assert.True(t, rep.TotalVendido.Equal(dec("72")), rep.TotalVendido.String())
	assert.True(t, rep.TicketPromedio.Equal(dec("36")))
	require.Len(t, rep.PorMetodoPago, 2)
	require.NotEmpty(t, rep.TopProductos)
	assert.Equal(t, "Paleta", rep.TopProductos[0].Nombre)
	assert.True(t, rep.TopProductos[0].Cantidad.Equal(dec("7")))
	require.Len(t, rep.StockBajo, 1)
	assert.Equal(t, "B", rep.StockBajo[0].Codigo)
	assert.True(t, rep.TotalGastos.Equal(dec("48")))
	assert.Len(t, rep.Gastos, 1)
}

func TestReporteDiario_FechaInvalida(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.reporteSvc.ReporteDiario(e.ctx, e.negocioID, dto.ReporteFilter{Fecha: "16/10/2026"})
	assert.ErrorIs(t, err, service.ErrFechaInvalida)
}

func TestExportarVentasXLSX_RangoInvertido(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.reporteSvc.ExportarVentasXLSX(e.ctx, e.negocioID, dto.ExportFilter{Desde: "2026-10-10", Hasta: "2026-10-01"})
	assert.ErrorIs(t, err, service.ErrFechaInvalida)
}

func TestEnviarReporteDiario_AdjuntaXLSX(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.producto(t, "A", "Paleta", "10", 50, 0)
	v, err := e.ventaSvc.RegistrarVenta(e.ctx, e.negocioID, e.cajero.ID, venta(model.PagoEfectivo, "10", item(p, "1")))
	require.NoError(t, err)

	cfg, _ := e.negocios.FindConfiguracion(e.ctx, e.negocioID)
	cfg.EmailReporte = "contabilidad@example.com"
	require.NoError(t, e.negocios.UpdateConfiguracion(e.ctx, cfg))

	require.NoError(t, e.reporteSvc.EnviarReporteDiario(e.ctx, e.negocioID, ""))

	require.Len(t, e.mailer.enviados, 1)
	mail := e.mailer.enviados[0]
	assert.Equal(t, "contabilidad@example.com", mail.To)
	assert.Contains(t, mail.Subject, "Dulcería La Piñata")
	assert.Contains(t, mail.Body, "Total vendido:   $10.00")
	require.Len(t, mail.Adjuntos, 1)

	f, err := excelize.OpenReader(bytes.NewReader(mail.Adjuntos[0].Datos))
	require.NoError(t, err)
	defer f.Close()
	folio, err := f.GetCellValue("Ventas", "A2")
	require.NoError(t, err)
	assert.Equal(t, v.Folio, folio)
}

func TestEnviarReporteDiario_UsaEmailDelNegocioPorDefecto(t *testing.T) {
	e := nuevoEntorno(t)
	require.NoError(t, e.reporteSvc.EnviarReporteDiario(e.ctx, e.negocioID, "2026-10-01"))
	require.Len(t, e.mailer.enviados, 1)
	assert.Equal(t, "pinata@example.com", e.mailer.enviados[0].To)
}

func TestEnviarReporteDiario_ErrorDelMailer(t *testing.T) {
	e := nuevoEntorno(t)
	e.mailer.err = errors.New("smtp caído")
	err := e.reporteSvc.EnviarReporteDiario(e.ctx, e.negocioID, "")
	assert.EqualError(t, err, "smtp caído")
}

func TestEnviarReporteDiario_SinMailer(t *testing.T) {
	e := nuevoEntorno(t)
	svc := service.NewReporteService(e.ventas, e.productos, e.cajas, e.negocios, nil, nil)
	err := svc.EnviarReporteDiario(e.ctx, e.negocioID, "")
	assert.ErrorIs(t, err, infra.ErrMailerNoConfigurado)
}
