package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MovimientoInput is one requested stock change. Cantidad is the signed delta.
type MovimientoInput struct {
	NegocioID  uuid.UUID
	ProductoID uuid.UUID
	Tipo       model.TipoMovimiento
	Cantidad   int
	Motivo     string
	UsuarioID  *uuid.UUID
	VentaID    *uuid.UUID
	IPAddress  *string
}

// InventarioService is the stock movement ledger. Every stock change in the
// system goes through Registrar.
type InventarioService interface {
	// Registrar locks the product row, appends the ledger entry and updates
	// the cached stock. It joins tx when given, otherwise opens its own.
	Registrar(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*model.MovimientoStock, error)
	// Historial returns a newest-first cursor over the ledger. Callers must Close it.
	Historial(ctx context.Context, negocioID uuid.UUID, filtro repository.MovimientoStockFilter) (repository.MovimientoCursor, error)
	ListarMovimientos(ctx context.Context, negocioID uuid.UUID, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	VerificarConsistencia(ctx context.Context, negocioID uuid.UUID, reparar bool) (*dto.ConsistenciaResponse, error)
}

type inventarioService struct {
	productoRepo repository.ProductoRepository
	movRepo      repository.MovimientoStockRepository
	precios      PrecioCache
	loc          *time.Location
}

func NewInventarioService(
	productoRepo repository.ProductoRepository,
	movRepo repository.MovimientoStockRepository,
	precios PrecioCache,
	loc *time.Location,
) InventarioService {
	if loc == nil {
		loc = time.UTC
	}
	if precios == nil {
		precios = NewPrecioCache(nil)
	}
	return &inventarioService{productoRepo: productoRepo, movRepo: movRepo, precios: precios, loc: loc}
}

func validarMovimiento(tipo model.TipoMovimiento, cantidad int) error {
	if !tipo.Valido() {
		return fmt.Errorf("%w: %q", ErrTipoMovimientoInvalido, tipo)
	}
	if cantidad == 0 {
		return ErrCantidadCero
	}
	if (tipo.EsEntrada() && cantidad < 0) || (tipo.EsSalida() && cantidad > 0) {
		return fmt.Errorf("%w: %s %d", ErrSignoMovimiento, tipo, cantidad)
	}
	return nil
}

func (s *inventarioService) Registrar(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*model.MovimientoStock, error) {
	if err := validarMovimiento(in.Tipo, in.Cantidad); err != nil {
		return nil, err
	}

	var mov *model.MovimientoStock
	var codigo string
	err := joinTx(ctx, s.productoRepo.DB(), tx, func(tx *gorm.DB) error {
		p, err := s.productoRepo.LockByIDTx(tx, in.NegocioID, in.ProductoID)
		if err != nil {
			return notFound(err, ErrProductoNoEncontrado)
		}
		codigo = p.Codigo

		nuevo := p.Stock + in.Cantidad
		if nuevo < 0 {
			return fmt.Errorf("%w: %s (disponible %d, solicitado %d)", ErrStockInsuficiente, p.Nombre, p.Stock, -in.Cantidad)
		}

		mov = &model.MovimientoStock{
			NegocioID:     in.NegocioID,
			ProductoID:    p.ID,
			Tipo:          in.Tipo,
			Cantidad:      in.Cantidad,
			StockAnterior: p.Stock,
			StockNuevo:    nuevo,
			Motivo:        in.Motivo,
			UsuarioID:     in.UsuarioID,
			VentaID:       in.VentaID,
			IPAddress:     in.IPAddress,
		}
		if err := mov.Validar(); err != nil {
			return err
		}
		if err := s.movRepo.CreateTx(tx, mov); err != nil {
			return err
		}
		mov.Producto = p
		return s.productoRepo.SetStockTx(tx, p.ID, nuevo)
	})
	if err != nil {
		return nil, err
	}

	s.precios.Invalidar(ctx, in.NegocioID, codigo)
	log.Debug().
		Str("negocio_id", in.NegocioID.String()).
		Str("producto_id", in.ProductoID.String()).
		Str("tipo", string(in.Tipo)).
		Int("cantidad", in.Cantidad).
		Int("stock_nuevo", mov.StockNuevo).
		Msg("inventario: movimiento registrado")
	return mov, nil
}

func (s *inventarioService) Historial(ctx context.Context, negocioID uuid.UUID, filtro repository.MovimientoStockFilter) (repository.MovimientoCursor, error) {
	filtro.Ascendente = false
	return s.movRepo.Cursor(ctx, negocioID, filtro)
}

// ListarMovimientos drains the history cursor into one page of at most
// filter.Limit rows.
func (s *inventarioService) ListarMovimientos(ctx context.Context, negocioID uuid.UUID, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	filtro := repository.MovimientoStockFilter{Tipo: filter.Tipo}
	if filter.ProductoID != "" {
		pid, err := uuid.Parse(filter.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("%w: producto_id", ErrProductoNoEncontrado)
		}
		filtro.ProductoID = &pid
	}
	if filter.Desde != "" {
		d, err := parseFecha(filter.Desde, time.Now(), s.loc)
		if err != nil {
			return nil, err
		}
		filtro.Desde = &d
	}
	if filter.Hasta != "" {
		h, err := parseFecha(filter.Hasta, time.Now(), s.loc)
		if err != nil {
			return nil, err
		}
		h = h.AddDate(0, 0, 1)
		filtro.Hasta = &h
	}
	limit := filter.Limit
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	cur, err := s.Historial(ctx, negocioID, filtro)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	data := make([]dto.MovimientoStockResponse, 0, limit)
	for len(data) < limit && cur.Next() {
		m := cur.Movimiento()
		data = append(data, movimientoToResponse(&m))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return &dto.MovimientoListResponse{Data: data, Count: len(data), Limit: limit}, nil
}

type replayProducto struct {
	movimientos int
	ultimo      int
	suma        int
	rota        bool
	primerRoto  uuid.UUID
}

// VerificarConsistencia replays the ledger oldest-first. A product is
// inconsistent when its chain breaks (stock_anterior differs from the
// previous stock_nuevo, starting from 0) or when its stored stock differs
// from the last stock_nuevo. Repair only rewrites stock for intact chains.
func (s *inventarioService) VerificarConsistencia(ctx context.Context, negocioID uuid.UUID, reparar bool) (*dto.ConsistenciaResponse, error) {
	productos, err := s.productoRepo.ListAll(ctx, negocioID)
	if err != nil {
		return nil, err
	}

	cur, err := s.movRepo.Cursor(ctx, negocioID, repository.MovimientoStockFilter{Ascendente: true})
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	estados := make(map[uuid.UUID]*replayProducto, len(productos))
	total := 0
	for cur.Next() {
		m := cur.Movimiento()
		total++
		e, ok := estados[m.ProductoID]
		if !ok {
			e = &replayProducto{}
			estados[m.ProductoID] = e
		}
		if !e.rota && (m.StockAnterior != e.ultimo || m.StockAnterior+m.Cantidad != m.StockNuevo) {
			e.rota = true
			e.primerRoto = m.ID
		}
		e.movimientos++
		e.ultimo = m.StockNuevo
		e.suma += m.Cantidad
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	resp := &dto.ConsistenciaResponse{
		ProductosRevisados:   len(productos),
		MovimientosRevisados: total,
		Inconsistencias:      []dto.Inconsistencia{},
	}
	for _, p := range productos {
		e, ok := estados[p.ID]
		if !ok {
			e = &replayProducto{}
		}
		if !e.rota && p.Stock == e.ultimo && e.suma == e.ultimo {
			continue
		}
		inc := dto.Inconsistencia{
			ProductoID:      p.ID.String(),
			Codigo:          p.Codigo,
			StockAlmacenado: p.Stock,
			StockLedger:     e.ultimo,
			SumaMovimientos: e.suma,
			CadenaRota:      e.rota,
		}
		if e.rota {
			inc.MovimientoID = e.primerRoto.String()
		}
		log.Warn().
			Str("negocio_id", negocioID.String()).
			Str("producto_id", p.ID.String()).
			Int("stock", p.Stock).
			Int("stock_ledger", e.ultimo).
			Bool("cadena_rota", e.rota).
			Msg("inventario: drift detectado")

		if reparar && !e.rota && e.ultimo >= 0 {
			if err := s.reparar(ctx, negocioID, p.ID, e.ultimo); err != nil {
				return nil, err
			}
			s.precios.Invalidar(ctx, negocioID, p.Codigo)
			inc.Reparado = true
			resp.Reparados++
		}
		resp.Inconsistencias = append(resp.Inconsistencias, inc)
	}
	return resp, nil
}

func (s *inventarioService) reparar(ctx context.Context, negocioID, productoID uuid.UUID, stock int) error {
	return runTx(ctx, s.productoRepo.DB(), func(tx *gorm.DB) error {
		if _, err := s.productoRepo.LockByIDTx(tx, negocioID, productoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return s.productoRepo.SetStockTx(tx, productoID, stock)
	})
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoStockResponse {
	resp := dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          string(m.Tipo),
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		UsuarioID:     uuidPtrString(m.UsuarioID),
		VentaID:       uuidPtrString(m.VentaID),
		CreatedAt:     formatTime(m.CreatedAt),
	}
	resp.ProductoNombre = m.ProductoNombre
	if resp.ProductoNombre == "" && m.Producto != nil {
		resp.ProductoNombre = m.Producto.Nombre
	}
	return resp
}
