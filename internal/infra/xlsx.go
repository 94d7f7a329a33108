package infra

import (
	"bytes"
	"fmt"
	"time"

	"dulceriapos/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	hojaVentas  = "Ventas"
	hojaDetalle = "Detalle"
)

// ExportarVentasXLSX builds a workbook with one row per sale and one row per
// sale line. Sales must come with Detalles (and Producto) preloaded.
func ExportarVentasXLSX(ventas []model.Venta, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", hojaVentas); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(hojaDetalle); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	encabezados := []string{"Folio", "Fecha", "Cajero", "Metodo", "Subtotal", "Impuestos", "Descuento", "Total", "Pagado", "Cambio", "Estado"}
	if err := f.SetSheetRow(hojaVentas, "A1", &encabezados); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(hojaVentas, "A1", "K1", bold)

	detalleEnc := []string{"Folio", "Codigo", "Producto", "Cantidad", "Precio", "Descuento", "Subtotal", "Impuestos"}
	if err := f.SetSheetRow(hojaDetalle, "A1", &detalleEnc); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(hojaDetalle, "A1", "H1", bold)

	filaDetalle := 2
	for i, v := range ventas {
		cajero := ""
		if v.Usuario != nil {
			cajero = v.Usuario.Nombre
		}
		fila := []interface{}{
			v.Folio,
			v.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			cajero,
			v.MetodoPago,
			v.Subtotal.InexactFloat64(),
			v.Impuestos.InexactFloat64(),
			v.Descuento.InexactFloat64(),
			v.Total.InexactFloat64(),
			v.MontoPagado.InexactFloat64(),
			v.Cambio.InexactFloat64(),
			string(v.Estado),
		}
		if err := f.SetSheetRow(hojaVentas, fmt.Sprintf("A%d", i+2), &fila); err != nil {
			return nil, err
		}

		for _, d := range v.Detalles {
			codigo, nombre := "", d.ProductoID.String()
			if d.Producto != nil {
				codigo, nombre = d.Producto.Codigo, d.Producto.Nombre
			}
			det := []interface{}{
				v.Folio, codigo, nombre,
				d.Cantidad.InexactFloat64(),
				d.PrecioUnitario.InexactFloat64(),
				d.DescuentoUnitario.InexactFloat64(),
				d.Subtotal.InexactFloat64(),
				d.Impuestos.InexactFloat64(),
			}
			if err := f.SetSheetRow(hojaDetalle, fmt.Sprintf("A%d", filaDetalle), &det); err != nil {
				return nil, err
			}
			filaDetalle++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
