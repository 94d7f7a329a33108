package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const topProductosLimite = 10

// Mailer is the outbound mail port; *infra.Mailer implements it.
type Mailer interface {
	Enviar(to, subject, body, archivo string, adjuntos ...infra.Adjunto) error
}

type ReporteService interface {
	ReporteDiario(ctx context.Context, negocioID uuid.UUID, filter dto.ReporteFilter) (*dto.ReporteDiarioResponse, error)
	ExportarVentasXLSX(ctx context.Context, negocioID uuid.UUID, filter dto.ExportFilter) ([]byte, error)
	// EnviarReporteDiario mails the report of fecha (YYYY-MM-DD, empty =
	// today) to the negocio's report address with the day's XLSX attached.
	EnviarReporteDiario(ctx context.Context, negocioID uuid.UUID, fecha string) error
}

type reporteService struct {
	ventaRepo    repository.VentaRepository
	productoRepo repository.ProductoRepository
	cajaRepo     repository.CajaRepository
	negocioRepo  repository.NegocioRepository
	mailer       Mailer
	loc          *time.Location
	now          func() time.Time
}

func NewReporteService(
	ventaRepo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	cajaRepo repository.CajaRepository,
	negocioRepo repository.NegocioRepository,
	mailer Mailer,
	loc *time.Location,
) ReporteService {
	if loc == nil {
		loc = time.UTC
	}
	return &reporteService{
		ventaRepo:    ventaRepo,
		productoRepo: productoRepo,
		cajaRepo:     cajaRepo,
		negocioRepo:  negocioRepo,
		mailer:       mailer,
		loc:          loc,
		now:          time.Now,
	}
}

func (s *reporteService) ReporteDiario(ctx context.Context, negocioID uuid.UUID, filter dto.ReporteFilter) (*dto.ReporteDiarioResponse, error) {
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	dia, err := parseFecha(filter.Fecha, s.now(), loc)
	if err != nil {
		return nil, err
	}
	desde, hasta := rangoDia(dia, loc)

	var sucursalID *uuid.UUID
	if filter.SucursalID != "" {
		id, err := uuid.Parse(filter.SucursalID)
		if err != nil {
			return nil, ErrSucursalNoEncontrada
		}
		sucursalID = &id
	}

	totales, err := s.ventaRepo.Totales(ctx, negocioID, sucursalID, desde, hasta)
	if err != nil {
		return nil, err
	}
	metodos, err := s.ventaRepo.PorMetodoPago(ctx, negocioID, sucursalID, desde, hasta)
	if err != nil {
		return nil, err
	}
	top, err := s.ventaRepo.TopProductos(ctx, negocioID, sucursalID, desde, hasta, topProductosLimite)
	if err != nil {
		return nil, err
	}
	bajos, err := s.productoRepo.StockBajo(ctx, negocioID)
	if err != nil {
		return nil, err
	}
	gastos, err := s.cajaRepo.ListGastos(ctx, negocioID, desde, hasta)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReporteDiarioResponse{
		Fecha:         dia.Format(fechaLayout),
		SucursalID:    uuidPtrString(sucursalID),
		TotalVendido:  totales.TotalVentas,
		NumeroVentas:  totales.NumeroVentas,
		PorMetodoPago: make([]dto.MetodoPagoResumen, 0, len(metodos)),
		TopProductos:  make([]dto.ProductoVendido, 0, len(top)),
		StockBajo:     stockBajoItems(bajos),
		TotalGastos:   decimal.Zero,
		Gastos:        make([]dto.GastoResponse, 0, len(gastos)),
	}
	if totales.NumeroVentas > 0 {
		resp.TicketPromedio = totales.TotalVentas.Div(decimal.NewFromInt(totales.NumeroVentas)).Round(2)
	}
	for _, m := range metodos {
		resp.PorMetodoPago = append(resp.PorMetodoPago, dto.MetodoPagoResumen{MetodoPago: m.MetodoPago, Ventas: m.Ventas, Total: m.Total})
	}
	for _, p := range top {
		resp.TopProductos = append(resp.TopProductos, dto.ProductoVendido{
			ProductoID: p.ProductoID.String(),
			Nombre:     p.Nombre,
			Cantidad:   p.Cantidad,
			Total:      p.Total,
		})
	}
	for i := range gastos {
		resp.TotalGastos = resp.TotalGastos.Add(gastos[i].Monto)
		resp.Gastos = append(resp.Gastos, gastoToResponse(&gastos[i]))
	}
	return resp, nil
}

// ExportarVentasXLSX exports every sale (any state) between two calendar
// days, both inclusive.
func (s *reporteService) ExportarVentasXLSX(ctx context.Context, negocioID uuid.UUID, filter dto.ExportFilter) ([]byte, error) {
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	now := s.now()
	desde, err := parseFecha(filter.Desde, now, loc)
	if err != nil {
		return nil, err
	}
	hastaDia, err := parseFecha(filter.Hasta, now, loc)
	if err != nil {
		return nil, err
	}
	if hastaDia.Before(desde) {
		return nil, fmt.Errorf("%w: hasta es anterior a desde", ErrFechaInvalida)
	}
	_, hasta := rangoDia(hastaDia, loc)

	ventas, err := s.ventaRepo.ListRango(ctx, negocioID, desde, hasta)
	if err != nil {
		return nil, err
	}
	return infra.ExportarVentasXLSX(ventas, loc)
}

func (s *reporteService) EnviarReporteDiario(ctx context.Context, negocioID uuid.UUID, fecha string) error {
	if s.mailer == nil {
		return infra.ErrMailerNoConfigurado
	}
	negocio, err := s.negocioRepo.FindByID(ctx, negocioID)
	if err != nil {
		return notFound(err, ErrNegocioNoEncontrado)
	}
	destino := negocio.Email
	if negocio.Configuracion != nil && negocio.Configuracion.EmailReporte != "" {
		destino = negocio.Configuracion.EmailReporte
	}

	rep, err := s.ReporteDiario(ctx, negocioID, dto.ReporteFilter{Fecha: fecha})
	if err != nil {
		return err
	}
	xlsx, err := s.ExportarVentasXLSX(ctx, negocioID, dto.ExportFilter{Desde: rep.Fecha, Hasta: rep.Fecha})
	if err != nil {
		return err
	}

	asunto := fmt.Sprintf("Reporte diario %s - %s", rep.Fecha, negocio.Nombre)
	adjunto := infra.Adjunto{
		Nombre:      fmt.Sprintf("ventas_%s.xlsx", rep.Fecha),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Datos:       xlsx,
	}
	if err := s.mailer.Enviar(destino, asunto, textoReporte(negocio.Nombre, rep), "", adjunto); err != nil {
		return err
	}
	log.Info().
		Str("negocio_id", negocioID.String()).
		Str("fecha", rep.Fecha).
		Str("destino", destino).
		Msg("reporte diario enviado")
	return nil
}

// textoReporte renders the plain-text mail body.
func textoReporte(negocio string, r *dto.ReporteDiarioResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nReporte del %s\n\n", negocio, r.Fecha)
	fmt.Fprintf(&b, "Total vendido:   $%s\n", r.TotalVendido.StringFixed(2))
	fmt.Fprintf(&b, "Ventas:          %d\n", r.NumeroVentas)
	fmt.Fprintf(&b, "Ticket promedio: $%s\n", r.TicketPromedio.StringFixed(2))
	fmt.Fprintf(&b, "Gastos:          $%s\n", r.TotalGastos.StringFixed(2))

	if len(r.PorMetodoPago) > 0 {
		b.WriteString("\nPor método de pago:\n")
		for _, m := range r.PorMetodoPago {
			fmt.Fprintf(&b, "  %-14s %4d  $%s\n", m.MetodoPago, m.Ventas, m.Total.StringFixed(2))
		}
	}
	if len(r.TopProductos) > 0 {
		b.WriteString("\nMás vendidos:\n")
		for i, p := range r.TopProductos {
			fmt.Fprintf(&b, "  %2d. %s x%s  $%s\n", i+1, p.Nombre, p.Cantidad.String(), p.Total.StringFixed(2))
		}
	}
	if len(r.StockBajo) > 0 {
		b.WriteString("\nStock bajo:\n")
		for _, p := range r.StockBajo {
			fmt.Fprintf(&b, "  %s (%s): %d de %d\n", p.Nombre, p.Codigo, p.Stock, p.StockMinimo)
		}
	}
	return b.String()
}
