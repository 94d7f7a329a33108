package infra

// pdf.go renders the 80mm thermal receipt of a sale with go-pdf/fpdf:
// business header, folio and date, line table, tax and discount lines,
// bold total, payment and change.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dulceriapos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerarTicketPDF writes the receipt to storagePath/ticket_{folio}.pdf and
// returns the file path.
func GenerarTicketPDF(venta *model.Venta, negocio string, loc *time.Location, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: crear directorio: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("ticket_%s.pdf", venta.Folio))

	pdf := construirTicket(venta, negocio, loc)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: escribir archivo: %w", err)
	}
	return filePath, nil
}

// TicketPDFBytes renders the receipt in memory for direct download.
func TicketPDFBytes(venta *model.Venta, negocio string, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	if err := construirTicket(venta, negocio, loc).Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

func construirTicket(venta *model.Venta, negocio string, loc *time.Location) *fpdf.Fpdf {
	if loc == nil {
		loc = time.UTC
	}
	// Height grows with the number of lines so the roll never cuts the total.
	alto := 90.0 + 5.0*float64(len(venta.Detalles))

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: alto},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(negocio), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, "Ticket de venta", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Folio: "+venta.Folio, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.CreatedAt.In(loc).Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	if venta.Estado != model.VentaCompletada {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, tr("*** "+string(venta.Estado)+" ***"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	colNombre := contentW * 0.50
	colCant := contentW * 0.18
	colImporte := contentW * 0.32

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(colNombre, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colCant, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colImporte, 5, "Importe", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range venta.Detalles {
		nombre := d.ProductoID.String()[:8]
		if d.Producto != nil {
			nombre = d.Producto.Nombre
		}
		if r := []rune(nombre); len(r) > 24 {
			nombre = string(r[:23]) + "."
		}
		pdf.CellFormat(colNombre, 5, tr(nombre), "", 0, "L", false, 0, "")
		pdf.CellFormat(colCant, 5, d.Cantidad.String(), "", 0, "C", false, 0, "")
		pdf.CellFormat(colImporte, 5, "$"+d.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	fila := func(etiqueta, valor string) {
		pdf.CellFormat(colNombre+colCant, 4, tr(etiqueta), "", 0, "L", false, 0, "")
		pdf.CellFormat(colImporte, 4, valor, "", 1, "R", false, 0, "")
	}
	fila("Subtotal:", "$"+venta.Subtotal.StringFixed(2))
	if !venta.Impuestos.IsZero() {
		fila("Impuestos:", "$"+venta.Impuestos.StringFixed(2))
	}
	if !venta.Descuento.IsZero() {
		fila("Descuento:", "-$"+venta.Descuento.StringFixed(2))
	}
	pdf.SetFont("Helvetica", "B", 9)
	fila("TOTAL:", "$"+venta.Total.StringFixed(2))
	pdf.SetFont("Helvetica", "", 7)
	fila("Pago ("+venta.MetodoPago+"):", "$"+venta.MontoPagado.StringFixed(2))
	fila("Cambio:", "$"+venta.Cambio.StringFixed(2))

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")
	return pdf
}
