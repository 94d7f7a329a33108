package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const folioIntentos = 5

var cien = decimal.NewFromInt(100)

type VentaService interface {
	RegistrarVenta(ctx context.Context, negocioID, cajeroID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	CancelarVenta(ctx context.Context, negocioID, id, actor uuid.UUID, motivo string) (*dto.VentaResponse, error)
	DevolverVenta(ctx context.Context, negocioID, id, actor uuid.UUID, motivo string) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, negocioID, id uuid.UUID) (*dto.VentaResponse, error)
	ListarVentas(ctx context.Context, negocioID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	// TicketPDF renders the receipt on demand and returns it with its folio.
	TicketPDF(ctx context.Context, negocioID, id uuid.UUID) ([]byte, string, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	productoRepo repository.ProductoRepository
	cajaRepo     repository.CajaRepository
	usuarioRepo  repository.UsuarioRepository
	negocioRepo  repository.NegocioRepository
	inventario   InventarioService
	folios       FolioGenerator
	precios      PrecioCache
	jobs         Encolador
	loc          *time.Location
	now          func() time.Time
}

// VentaDeps groups the collaborators of the sale service.
type VentaDeps struct {
	Repo         repository.VentaRepository
	ProductoRepo repository.ProductoRepository
	CajaRepo     repository.CajaRepository
	UsuarioRepo  repository.UsuarioRepository
	NegocioRepo  repository.NegocioRepository
	Inventario   InventarioService
	Folios       FolioGenerator
	Precios      PrecioCache
	Jobs         Encolador // optional
	Location     *time.Location
}

func NewVentaService(d VentaDeps) VentaService {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Precios == nil {
		d.Precios = NewPrecioCache(nil)
	}
	if d.Folios == nil {
		d.Folios = NewFolioGenerator(nil)
	}
	return &ventaService{
		repo:         d.Repo,
		productoRepo: d.ProductoRepo,
		cajaRepo:     d.CajaRepo,
		usuarioRepo:  d.UsuarioRepo,
		negocioRepo:  d.NegocioRepo,
		inventario:   d.Inventario,
		folios:       d.Folios,
		precios:      d.Precios,
		jobs:         d.Jobs,
		loc:          d.Location,
		now:          time.Now,
	}
}

// lineaVenta is a cart line resolved against the catalog.
type lineaVenta struct {
	producto  *model.Producto
	cantidad  decimal.Decimal
	delta     int // whole units leaving stock
	precio    decimal.Decimal
	descuento decimal.Decimal
	subtotal  decimal.Decimal
	impuestos decimal.Decimal
}

// cantidadValida: positive with at most 3 decimals.
func cantidadValida(c decimal.Decimal) bool {
	return c.IsPositive() && c.Equal(c.Truncate(3))
}

// unidadesStock is the stock delta of a line quantity: fractions round up
// to the next whole unit.
func unidadesStock(c decimal.Decimal) int {
	return int(c.Ceil().IntPart())
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Pre-flight outside the transaction (permissions, catalog, totals, payment),
// then one transaction: lock product rows, insert sale and lines, one ledger
// entry per line, link the open caja. The ticket job is enqueued after commit.

func (s *ventaService) RegistrarVenta(ctx context.Context, negocioID, cajeroID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	cajero, err := cargarActor(ctx, s.usuarioRepo, negocioID, cajeroID, model.PermisoProcesarVentas)
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrVentaSinItems
	}
	if req.Descuento.IsNegative() || req.MontoPagado.IsNegative() {
		return nil, ErrMontoNegativo
	}
	sucursalID, err := resolverSucursal(ctx, s.negocioRepo, negocioID, req.SucursalID, cajero)
	if err != nil {
		return nil, err
	}

	// 1. Resolve products, check stock (pre-flight)
	lineas := make([]lineaVenta, 0, len(req.Items))
	demanda := make(map[uuid.UUID]int, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductoNoEncontrado, item.ProductoID)
		}
		p, err := s.productoRepo.FindByID(ctx, negocioID, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductoNoEncontrado, item.ProductoID)
			}
			return nil, err
		}
		if !p.Activo {
			return nil, fmt.Errorf("%w: %s está inactivo", ErrProductoNoEncontrado, p.Nombre)
		}
		if !cantidadValida(item.Cantidad) {
			return nil, ErrCantidadInvalida
		}
		if !p.PermiteDecimales && !item.Cantidad.IsInteger() {
			return nil, fmt.Errorf("%w: %s", ErrCantidadFraccionaria, p.Nombre)
		}
		delta := unidadesStock(item.Cantidad)
		demanda[p.ID] += delta
		if demanda[p.ID] > p.Stock {
			return nil, fmt.Errorf("%w: %s (disponible %d, solicitado %d)", ErrStockInsuficiente, p.Nombre, p.Stock, demanda[p.ID])
		}
		if item.DescuentoUnitario.IsNegative() || item.DescuentoUnitario.GreaterThan(p.Precio) {
			return nil, fmt.Errorf("%w: %s", ErrDescuentoInvalido, p.Nombre)
		}

		// 2. Line math, rounded to cents
		subtotal := p.Precio.Sub(item.DescuentoUnitario).Mul(item.Cantidad).Round(2)
		impuestos := subtotal.Mul(p.PorcentajeImpuesto).Div(cien).Round(2)
		lineas = append(lineas, lineaVenta{
			producto:  p,
			cantidad:  item.Cantidad,
			delta:     delta,
			precio:    p.Precio,
			descuento: item.DescuentoUnitario,
			subtotal:  subtotal,
			impuestos: impuestos,
		})
	}

	subtotal, impuestos, bruto, descuentoLineas := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range lineas {
		subtotal = subtotal.Add(l.subtotal)
		impuestos = impuestos.Add(l.impuestos)
		bruto = bruto.Add(l.precio.Mul(l.cantidad))
		descuentoLineas = descuentoLineas.Add(l.descuento.Mul(l.cantidad))
	}
	descuento := req.Descuento.Round(2)
	if descuento.GreaterThan(subtotal.Add(impuestos)) {
		return nil, ErrDescuentoInvalido
	}
	if err := validarDescuento(cajero.Permisos, descuento.Add(descuentoLineas), bruto); err != nil {
		return nil, err
	}
	total := subtotal.Add(impuestos).Sub(descuento)
	if maximo := cajero.Permisos.MontoMaximoVenta; maximo != nil && total.GreaterThan(*maximo) {
		return nil, fmt.Errorf("%w: %s", ErrMontoMaximoExcedido, maximo.StringFixed(2))
	}

	// 3. Payment
	montoPagado := req.MontoPagado.Round(2)
	if montoPagado.LessThan(total) {
		return nil, fmt.Errorf("%w: total %s, pagado %s", ErrPagoInsuficiente, total.StringFixed(2), montoPagado.StringFixed(2))
	}
	cambio := montoPagado.Sub(total)

	// 4. ACID transaction
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	now := s.now()
	venta := model.Venta{
		NegocioID:    negocioID,
		SucursalID:   sucursalID,
		UsuarioID:    cajero.ID,
		Subtotal:     subtotal,
		Impuestos:    impuestos,
		Descuento:    descuento,
		Total:        total,
		MetodoPago:   req.MetodoPago,
		MontoPagado:  montoPagado,
		Cambio:       cambio,
		Estado:       model.VentaCompletada,
		ClienteEmail: req.ClienteEmail,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, 0, len(demanda))
		for id := range demanda {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		bloqueados, err := s.productoRepo.LockByIDsTx(tx, negocioID, ids)
		if err != nil {
			return err
		}
		if len(bloqueados) != len(ids) {
			return ErrProductoNoEncontrado
		}
		for _, p := range bloqueados {
			if demanda[p.ID] > p.Stock {
				return fmt.Errorf("%w: %s (disponible %d, solicitado %d)", ErrStockInsuficiente, p.Nombre, p.Stock, demanda[p.ID])
			}
		}

		// Shared lock on the open caja: a close waits for this sale to commit.
		if caja, err := s.cajaRepo.FindAbiertaTx(tx, negocioID, sucursalID, inicioDia(now, loc)); err == nil {
			venta.CajaID = &caja.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		venta.Detalles = make([]model.VentaDetalle, 0, len(lineas))
		for _, l := range lineas {
			venta.Detalles = append(venta.Detalles, model.VentaDetalle{
				ProductoID:         l.producto.ID,
				Cantidad:           l.cantidad,
				PrecioUnitario:     l.precio,
				DescuentoUnitario:  l.descuento,
				PorcentajeImpuesto: l.producto.PorcentajeImpuesto,
				Subtotal:           l.subtotal,
				Impuestos:          l.impuestos,
			})
		}
		if err := s.insertarConFolio(ctx, tx, &venta, now.In(loc)); err != nil {
			return err
		}

		for _, l := range lineas {
			_, err := s.inventario.Registrar(ctx, tx, MovimientoInput{
				NegocioID:  negocioID,
				ProductoID: l.producto.ID,
				Tipo:       model.MovVenta,
				Cantidad:   -l.delta,
				Motivo:     "Venta " + venta.Folio,
				UsuarioID:  &cajero.ID,
				VentaID:    &venta.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	codigos := make([]string, 0, len(lineas))
	for i, l := range lineas {
		codigos = append(codigos, l.producto.Codigo)
		venta.Detalles[i].Producto = l.producto
	}
	s.precios.Invalidar(ctx, negocioID, codigos...)

	log.Info().
		Str("negocio_id", negocioID.String()).
		Str("folio", venta.Folio).
		Str("total", total.StringFixed(2)).
		Str("metodo_pago", venta.MetodoPago).
		Int("lineas", len(lineas)).
		Msg("venta registrada")

	// 6. Async ticket job, best effort
	if s.jobs != nil {
		payload := dto.TicketJobPayload{VentaID: venta.ID.String(), NegocioID: negocioID.String()}
		if req.ClienteEmail != nil {
			payload.ClienteEmail = strings.TrimSpace(*req.ClienteEmail)
		}
		if err := s.jobs.EncolarTicket(ctx, payload); err != nil {
			log.Warn().Err(err).Str("folio", venta.Folio).Msg("venta: no se pudo encolar el ticket")
		}
	}

	venta.Usuario = cajero
	if venta.CreatedAt.IsZero() {
		venta.CreatedAt = now
	}
	return ventaToResponse(&venta), nil
}

// validarDescuento checks the discount permission and the user's maximum
// discount percentage over the gross amount.
func validarDescuento(p model.Permisos, descuento, bruto decimal.Decimal) error {
	if !descuento.IsPositive() {
		return nil
	}
	if !p.AplicarDescuentos {
		return fmt.Errorf("%w: %s", ErrSinPermiso, model.PermisoAplicarDescuentos)
	}
	if !bruto.IsPositive() {
		return nil
	}
	pct := descuento.Div(bruto).Mul(cien)
	if pct.GreaterThan(p.DescuentoMaximoPct) {
		return fmt.Errorf("%w: %s%% > %s%%", ErrDescuentoExcedido, pct.StringFixed(2), p.DescuentoMaximoPct.StringFixed(2))
	}
	return nil
}

// insertarConFolio inserts the sale, regenerating the folio with a random
// suffix on a unique violation.
func (s *ventaService) insertarConFolio(ctx context.Context, tx *gorm.DB, v *model.Venta, at time.Time) error {
	base := s.folios.Siguiente(ctx, v.NegocioID, at)
	v.Folio = base
	for intento := 1; intento <= folioIntentos; intento++ {
		err := s.repo.CreateTx(tx, v)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		log.Warn().Str("folio", v.Folio).Int("intento", intento).Msg("venta: folio duplicado, regenerando")
		v.Folio = conSufijo(base)
	}
	return ErrFolioAgotado
}

// ── Cancelar / Devolver ──────────────────────────────────────────────────────

func (s *ventaService) CancelarVenta(ctx context.Context, negocioID, id, actor uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	return s.revertir(ctx, negocioID, id, actor, motivo, model.VentaCancelada)
}

func (s *ventaService) DevolverVenta(ctx context.Context, negocioID, id, actor uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	return s.revertir(ctx, negocioID, id, actor, motivo, model.VentaDevuelta)
}

// revertir moves a completed sale to a terminal state and puts its stock
// back through the ledger, all in one transaction.
func (s *ventaService) revertir(ctx context.Context, negocioID, id, actor uuid.UUID, motivo string, destino model.EstadoVenta) (*dto.VentaResponse, error) {
	usuario, err := cargarActor(ctx, s.usuarioRepo, negocioID, actor, model.PermisoCancelarVentas)
	if err != nil {
		return nil, err
	}
	motivo = strings.TrimSpace(motivo)

	var codigos []string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		v, err := s.repo.LockByIDTx(tx, negocioID, id)
		if err != nil {
			return notFound(err, ErrVentaNoEncontrada)
		}
		if !v.Estado.PuedeTransicionar(destino) {
			return fmt.Errorf("%w: estado actual %s", ErrVentaNoCompletada, v.Estado)
		}

		// Ascending product order, same as the sale, so locks never cross.
		detalles := append([]model.VentaDetalle(nil), v.Detalles...)
		sort.Slice(detalles, func(i, j int) bool {
			return detalles[i].ProductoID.String() < detalles[j].ProductoID.String()
		})
		etiqueta := "Cancelación"
		if destino == model.VentaDevuelta {
			etiqueta = "Devolución"
		}
		for _, d := range detalles {
			mov, err := s.inventario.Registrar(ctx, tx, MovimientoInput{
				NegocioID:  negocioID,
				ProductoID: d.ProductoID,
				Tipo:       model.MovDevolucion,
				Cantidad:   unidadesStock(d.Cantidad),
				Motivo:     fmt.Sprintf("%s venta %s: %s", etiqueta, v.Folio, motivo),
				UsuarioID:  &usuario.ID,
				VentaID:    &v.ID,
			})
			if err != nil {
				return err
			}
			if mov.Producto != nil {
				codigos = append(codigos, mov.Producto.Codigo)
			}
		}
		return s.repo.UpdateEstadoTx(tx, v.ID, destino, &motivo)
	})
	if txErr != nil {
		return nil, txErr
	}
	s.precios.Invalidar(ctx, negocioID, codigos...)

	log.Info().
		Str("negocio_id", negocioID.String()).
		Str("venta_id", id.String()).
		Str("estado", string(destino)).
		Msg("venta revertida")
	return s.ObtenerVenta(ctx, negocioID, id)
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, negocioID, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrVentaNoEncontrada)
	}
	return ventaToResponse(v), nil
}

// ListarVentas returns a paginated list of sales of one calendar day.
// Default filter: today's completed sales.
func (s *ventaService) ListarVentas(ctx context.Context, negocioID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = string(model.VentaCompletada)
	}
	loc := zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc)
	dia, err := parseFecha(filter.Fecha, s.now(), loc)
	if err != nil {
		return nil, err
	}
	desde, hasta := rangoDia(dia, loc)
	lf := repository.VentaListFilter{
		Desde:  desde,
		Hasta:  hasta,
		Estado: filter.Estado,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.SucursalID != "" {
		sid, err := uuid.Parse(filter.SucursalID)
		if err != nil {
			return nil, ErrSucursalNoEncontrada
		}
		lf.SucursalID = &sid
	}

	ventas, total, err := s.repo.List(ctx, negocioID, lf)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *ventaService) TicketPDF(ctx context.Context, negocioID, id uuid.UUID) ([]byte, string, error) {
	v, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, "", notFound(err, ErrVentaNoEncontrada)
	}
	nombre := ""
	if n, err := s.negocioRepo.FindByID(ctx, negocioID); err == nil {
		nombre = n.Nombre
	}
	pdf, err := infra.TicketPDFBytes(v, nombre, zonaHoraria(ctx, s.negocioRepo, negocioID, s.loc))
	if err != nil {
		return nil, "", err
	}
	return pdf, v.Folio, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, len(v.Detalles))
	for i, d := range v.Detalles {
		items[i] = dto.ItemVentaResponse{
			ProductoID:         d.ProductoID.String(),
			Cantidad:           d.Cantidad,
			PrecioUnitario:     d.PrecioUnitario,
			DescuentoUnitario:  d.DescuentoUnitario,
			PorcentajeImpuesto: d.PorcentajeImpuesto,
			Subtotal:           d.Subtotal,
			Impuestos:          d.Impuestos,
		}
		if d.Producto != nil {
			items[i].Producto = d.Producto.Nombre
		}
	}
	resp := &dto.VentaResponse{
		ID:                v.ID.String(),
		Folio:             v.Folio,
		SucursalID:        v.SucursalID.String(),
		UsuarioID:         v.UsuarioID.String(),
		CajaID:            uuidPtrString(v.CajaID),
		Items:             items,
		Subtotal:          v.Subtotal,
		Impuestos:         v.Impuestos,
		Descuento:         v.Descuento,
		Total:             v.Total,
		MetodoPago:        v.MetodoPago,
		MontoPagado:       v.MontoPagado,
		Cambio:            v.Cambio,
		Estado:            string(v.Estado),
		ClienteEmail:      v.ClienteEmail,
		MotivoCancelacion: v.MotivoCancelacion,
		CreatedAt:         formatTime(v.CreatedAt),
	}
	if v.Usuario != nil {
		resp.Cajero = v.Usuario.Nombre
	}
	return resp
}
