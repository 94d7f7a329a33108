package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CajaService interface {
	Abrir(ctx context.Context, negocioID, actor uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	// CalcularEsperado is a pure read; calling it twice gives the same answer
	// when nothing was sold in between.
	CalcularEsperado(ctx context.Context, negocioID uuid.UUID, caja *model.Caja) (*dto.EsperadoResponse, error)
	Cerrar(ctx context.Context, negocioID, cajaID, actor uuid.UUID, req dto.CerrarCajaRequest) (*dto.CajaResponse, error)
	RegistrarGasto(ctx context.Context, negocioID, actor uuid.UUID, req dto.GastoRequest) (*dto.GastoResponse, error)
	ListarGastos(ctx context.Context, negocioID uuid.UUID, fecha string) ([]dto.GastoResponse, error)
	Estado(ctx context.Context, negocioID, actor uuid.UUID, sucursalID *string) (*dto.EstadoCajaResponse, error)
	ObtenerCaja(ctx context.Context, negocioID, id uuid.UUID) (*dto.CajaResponse, error)
	Historial(ctx context.Context, negocioID uuid.UUID, filter dto.CajaHistorialFilter) (*dto.CajaListResponse, error)
}

type cajaService struct {
	repo        repository.CajaRepository
	ventaRepo   repository.VentaRepository
	usuarioRepo repository.UsuarioRepository
	negocioRepo repository.NegocioRepository
	jobs        Encolador
	loc         *time.Location
	now         func() time.Time
}

func NewCajaService(
	repo repository.CajaRepository,
	ventaRepo repository.VentaRepository,
	usuarioRepo repository.UsuarioRepository,
	negocioRepo repository.NegocioRepository,
	jobs Encolador,
	loc *time.Location,
) CajaService {
	if loc == nil {
		loc = time.UTC
	}
	return &cajaService{
		repo:        repo,
		ventaRepo:   ventaRepo,
		usuarioRepo: usuarioRepo,
		negocioRepo: negocioRepo,
		jobs:        jobs,
		loc:         loc,
		now:         time.Now,
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// One session per branch per calendar day. The unique index on
// (negocio_id, sucursal_id, fecha) settles concurrent opens.

func (s *cajaService) Abrir(ctx context.Context, negocioID, actor uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, ErrMontoNegativo
	}
	u, err := cargarActor(ctx, s.usuarioRepo, negocioID, actor, model.PermisoAccesoCaja)
	if err != nil {
		return nil, err
	}
	sucursalID, err := resolverSucursal(ctx, s.negocioRepo, negocioID, req.SucursalID, u)
	if err != nil {
		return nil, err
	}

	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	now := s.now()
	if existente, err := s.repo.FindByFecha(ctx, negocioID, sucursalID, inicioDia(now, loc)); err == nil {
		if existente.Estado == model.CajaAbierta {
			return nil, ErrCajaYaAbierta
		}
		return nil, ErrCajaYaCerrada
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	caja := &model.Caja{
		NegocioID:         negocioID,
		SucursalID:        sucursalID,
		Fecha:             fechaCalendario(now, loc),
		UsuarioAperturaID: u.ID,
		MontoInicial:      req.MontoInicial.Round(2),
		Estado:            model.CajaAbierta,
		NotasApertura:     req.Notas,
		AbiertaAt:         now,
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		return nil, duplicated(err, ErrCajaYaAbierta)
	}

	log.Info().
		Str("negocio_id", negocioID.String()).
		Str("sucursal_id", sucursalID.String()).
		Str("monto_inicial", caja.MontoInicial.StringFixed(2)).
		Msg("caja abierta")
	return cajaToResponse(caja), nil
}

// ── CalcularEsperado ─────────────────────────────────────────────────────────

// CalcularEsperado = monto_inicial + monto_pagado of the completed cash
// sales of the branch and day - expenses of the negocio for that day.
func (s *cajaService) CalcularEsperado(ctx context.Context, negocioID uuid.UUID, caja *model.Caja) (*dto.EsperadoResponse, error) {
	return s.calcularEsperado(ctx, nil, negocioID, caja)
}

// calcularEsperado reads the aggregates through tx when it is not nil.
func (s *cajaService) calcularEsperado(ctx context.Context, tx *gorm.DB, negocioID uuid.UUID, caja *model.Caja) (*dto.EsperadoResponse, error) {
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	desde, hasta := rangoDia(diaLocal(caja.Fecha, loc), loc)

	var (
		totales repository.TotalesVentas
		gastos  decimal.Decimal
		err     error
	)
	if tx != nil {
		totales, err = s.ventaRepo.TotalesTx(tx, negocioID, &caja.SucursalID, desde, hasta)
	} else {
		totales, err = s.ventaRepo.Totales(ctx, negocioID, &caja.SucursalID, desde, hasta)
	}
	if err != nil {
		return nil, err
	}
	if tx != nil {
		gastos, err = s.repo.SumGastosTx(tx, negocioID, desde, hasta)
	} else {
		gastos, err = s.repo.SumGastos(ctx, negocioID, desde, hasta)
	}
	if err != nil {
		return nil, err
	}
	return &dto.EsperadoResponse{
		MontoInicial:  caja.MontoInicial,
		TotalVentas:   totales.TotalVentas,
		TotalEfectivo: totales.TotalEfectivo,
		TotalTarjetas: totales.TotalTarjetas,
		TotalGastos:   gastos,
		NumeroVentas:  totales.NumeroVentas,
		MontoEsperado: caja.MontoInicial.Add(totales.TotalEfectivo).Sub(gastos),
	}, nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// The caja row is locked for the whole close so two closes serialize and
// the second one sees estado=cerrada. Sales hold FOR SHARE on the same row
// while linking to it, so the totals below include every sale of the caja.

func (s *cajaService) Cerrar(ctx context.Context, negocioID, cajaID, actor uuid.UUID, req dto.CerrarCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoContado.IsNegative() {
		return nil, ErrMontoNegativo
	}
	u, err := cargarActor(ctx, s.usuarioRepo, negocioID, actor, model.PermisoAccesoCaja)
	if err != nil {
		return nil, err
	}

	var caja *model.Caja
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.LockByIDTx(tx, negocioID, cajaID)
		if err != nil {
			return notFound(err, ErrCajaNoEncontrada)
		}
		if c.Estado != model.CajaAbierta {
			return ErrCajaNoAbierta
		}

		esperado, err := s.calcularEsperado(ctx, tx, negocioID, c)
		if err != nil {
			return err
		}
		contado := req.MontoContado.Round(2)
		diferencia := contado.Sub(esperado.MontoEsperado)
		now := s.now()

		c.MontoFinal = &contado
		c.MontoEsperado = &esperado.MontoEsperado
		c.Diferencia = &diferencia
		c.TotalVentas = esperado.TotalVentas
		c.TotalEfectivo = esperado.TotalEfectivo
		c.TotalTarjetas = esperado.TotalTarjetas
		c.TotalGastos = esperado.TotalGastos
		c.Estado = model.CajaCerrada
		c.UsuarioCierreID = &u.ID
		c.NotasCierre = req.Notas
		c.CerradaAt = &now
		if err := s.repo.UpdateTx(tx, c); err != nil {
			return err
		}
		caja = c
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	ev := log.Info()
	if !caja.Diferencia.IsZero() {
		ev = log.Warn()
	}
	ev.Str("negocio_id", negocioID.String()).
		Str("caja_id", caja.ID.String()).
		Str("esperado", caja.MontoEsperado.StringFixed(2)).
		Str("contado", caja.MontoFinal.StringFixed(2)).
		Str("diferencia", caja.Diferencia.StringFixed(2)).
		Msg("caja cerrada")

	s.encolarReporte(ctx, negocioID, caja.Fecha)
	return cajaToResponse(caja), nil
}

// encolarReporte queues the daily report when the negocio asked for it.
// Failures are logged, the close already committed.
func (s *cajaService) encolarReporte(ctx context.Context, negocioID uuid.UUID, fecha time.Time) {
	if s.jobs == nil {
		return
	}
	cfg, err := s.negocioRepo.FindConfiguracion(ctx, negocioID)
	if err != nil || !cfg.EnviarReporteDiario {
		return
	}
	payload := dto.ReporteJobPayload{NegocioID: negocioID.String(), Fecha: fecha.Format(fechaLayout)}
	if err := s.jobs.EncolarReporte(ctx, payload); err != nil {
		log.Warn().Err(err).Str("negocio_id", negocioID.String()).Msg("caja: no se pudo encolar el reporte diario")
	}
}

// ── Gastos ───────────────────────────────────────────────────────────────────

func (s *cajaService) RegistrarGasto(ctx context.Context, negocioID, actor uuid.UUID, req dto.GastoRequest) (*dto.GastoResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}
	u, err := cargarActor(ctx, s.usuarioRepo, negocioID, actor, model.PermisoAccesoCaja)
	if err != nil {
		return nil, err
	}
	categoria := req.Categoria
	if categoria == "" {
		categoria = model.GastoOperativo
	}
	g := &model.GastoCaja{
		NegocioID: negocioID,
		Concepto:  strings.TrimSpace(req.Concepto),
		Monto:     req.Monto.Round(2),
		Categoria: categoria,
		UsuarioID: u.ID,
	}

	// Attach to the open session of the actor's branch, if any.
	if sucursalID, err := resolverSucursal(ctx, s.negocioRepo, negocioID, nil, u); err == nil {
		loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
		if c, err := s.repo.FindByFecha(ctx, negocioID, sucursalID, inicioDia(s.now(), loc)); err == nil && c.Estado == model.CajaAbierta {
			g.CajaID = &c.ID
		}
	}

	if err := s.repo.CreateGasto(ctx, g); err != nil {
		return nil, err
	}
	log.Info().
		Str("negocio_id", negocioID.String()).
		Str("concepto", g.Concepto).
		Str("monto", g.Monto.StringFixed(2)).
		Msg("gasto registrado")
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	resp := gastoToResponse(g)
	return &resp, nil
}

func (s *cajaService) ListarGastos(ctx context.Context, negocioID uuid.UUID, fecha string) ([]dto.GastoResponse, error) {
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	dia, err := parseFecha(fecha, s.now(), loc)
	if err != nil {
		return nil, err
	}
	desde, hasta := rangoDia(dia, loc)
	gastos, err := s.repo.ListGastos(ctx, negocioID, desde, hasta)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GastoResponse, 0, len(gastos))
	for i := range gastos {
		out = append(out, gastoToResponse(&gastos[i]))
	}
	return out, nil
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

// Estado returns today's session of a branch with the live expected amount.
func (s *cajaService) Estado(ctx context.Context, negocioID, actor uuid.UUID, sucursalID *string) (*dto.EstadoCajaResponse, error) {
	u, err := cargarActor(ctx, s.usuarioRepo, negocioID, actor)
	if err != nil {
		return nil, err
	}
	sid, err := resolverSucursal(ctx, s.negocioRepo, negocioID, sucursalID, u)
	if err != nil {
		return nil, err
	}
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	hoy := inicioDia(s.now(), loc)
	resp := &dto.EstadoCajaResponse{Fecha: hoy.Format(fechaLayout)}

	c, err := s.repo.FindByFecha(ctx, negocioID, sid, hoy)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, err
	}
	resp.Caja = cajaToResponse(c)
	resp.Abierta = c.Estado == model.CajaAbierta
	if resp.Abierta {
		esperado, err := s.CalcularEsperado(ctx, negocioID, c)
		if err != nil {
			return nil, err
		}
		resp.Esperado = esperado
	}
	return resp, nil
}

func (s *cajaService) ObtenerCaja(ctx context.Context, negocioID, id uuid.UUID) (*dto.CajaResponse, error) {
	c, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrCajaNoEncontrada)
	}
	return cajaToResponse(c), nil
}

func (s *cajaService) Historial(ctx context.Context, negocioID uuid.UUID, filter dto.CajaHistorialFilter) (*dto.CajaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 30
	}
	var sucursalID *uuid.UUID
	if filter.SucursalID != "" {
		id, err := uuid.Parse(filter.SucursalID)
		if err != nil {
			return nil, ErrSucursalNoEncontrada
		}
		sucursalID = &id
	}
	cajas, total, err := s.repo.List(ctx, negocioID, sucursalID, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CajaResponse, 0, len(cajas))
	for i := range cajas {
		data = append(data, *cajaToResponse(&cajas[i]))
	}
	return &dto.CajaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func cajaToResponse(c *model.Caja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:                c.ID.String(),
		SucursalID:        c.SucursalID.String(),
		Fecha:             c.Fecha.Format(fechaLayout),
		Estado:            c.Estado,
		UsuarioAperturaID: c.UsuarioAperturaID.String(),
		UsuarioCierreID:   uuidPtrString(c.UsuarioCierreID),
		MontoInicial:      c.MontoInicial,
		MontoFinal:        c.MontoFinal,
		MontoEsperado:     c.MontoEsperado,
		Diferencia:        c.Diferencia,
		TotalVentas:       c.TotalVentas,
		TotalEfectivo:     c.TotalEfectivo,
		TotalTarjetas:     c.TotalTarjetas,
		TotalGastos:       c.TotalGastos,
		NotasApertura:     c.NotasApertura,
		NotasCierre:       c.NotasCierre,
		AbiertaAt:         formatTime(c.AbiertaAt),
		CerradaAt:         formatTimePtr(c.CerradaAt),
	}
	if c.Sucursal != nil {
		resp.Sucursal = c.Sucursal.Nombre
	}
	return resp
}

func gastoToResponse(g *model.GastoCaja) dto.GastoResponse {
	return dto.GastoResponse{
		ID:        g.ID.String(),
		CajaID:    uuidPtrString(g.CajaID),
		Concepto:  g.Concepto,
		Monto:     g.Monto,
		Categoria: g.Categoria,
		UsuarioID: g.UsuarioID.String(),
		CreatedAt: formatTime(g.CreatedAt),
	}
}
