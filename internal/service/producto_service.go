package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AccionEliminado   = "eliminado"
	AccionDesactivado = "desactivado"

	busquedaNombreMin    = 3
	busquedaNombreLimite = 20
)

// ProductoService defines the business logic contract for the catalog.
type ProductoService interface {
	Crear(ctx context.Context, negocioID, actor uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, negocioID, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, negocioID, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	// Buscar looks a scanned code up with its common variations, then falls
	// back to a name search.
	Buscar(ctx context.Context, negocioID uuid.UUID, q string) ([]dto.ProductoResponse, error)
	AjustarStock(ctx context.Context, negocioID, id, actor uuid.UUID, req dto.AjustarStockRequest, ip string) (*dto.MovimientoStockResponse, error)
	ReporteStockBajo(ctx context.Context, negocioID uuid.UUID) ([]dto.StockBajoItem, error)
	Eliminar(ctx context.Context, negocioID, id uuid.UUID) (*dto.EliminarProductoResponse, error)
	Reactivar(ctx context.Context, negocioID, id uuid.UUID) error
	ConsultarPrecio(ctx context.Context, negocioID uuid.UUID, codigo string) (*dto.ConsultaPrecioResponse, error)
}

type productoService struct {
	repo          repository.ProductoRepository
	categoriaRepo repository.CategoriaRepository
	negocioRepo   repository.NegocioRepository
	inventario    InventarioService
	precios       PrecioCache
}

func NewProductoService(
	repo repository.ProductoRepository,
	categoriaRepo repository.CategoriaRepository,
	negocioRepo repository.NegocioRepository,
	inventario InventarioService,
	precios PrecioCache,
) ProductoService {
	if precios == nil {
		precios = NewPrecioCache(nil)
	}
	return &productoService{
		repo:          repo,
		categoriaRepo: categoriaRepo,
		negocioRepo:   negocioRepo,
		inventario:    inventario,
		precios:       precios,
	}
}

func (s *productoService) Crear(ctx context.Context, negocioID, actor uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if !req.Precio.IsPositive() {
		return nil, ErrPrecioInvalido
	}
	codigo := strings.TrimSpace(req.Codigo)
	if existing, err := s.repo.FindByCodigo(ctx, negocioID, codigo); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrCodigoDuplicado, codigo)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	categoriaID, err := s.resolverCategoria(ctx, negocioID, req.CategoriaID)
	if err != nil {
		return nil, err
	}

	stockMinimo := 0
	if req.StockMinimo != nil {
		stockMinimo = *req.StockMinimo
	} else if s.negocioRepo != nil {
		if cfg, err := s.negocioRepo.FindConfiguracion(ctx, negocioID); err == nil {
			stockMinimo = cfg.UmbralStockBajo
		}
	}

	p := &model.Producto{
		NegocioID:          negocioID,
		CategoriaID:        categoriaID,
		Codigo:             codigo,
		Nombre:             strings.TrimSpace(req.Nombre),
		Descripcion:        req.Descripcion,
		Precio:             req.Precio,
		PrecioCompra:       req.PrecioCompra,
		Stock:              0,
		StockMinimo:        stockMinimo,
		PorcentajeImpuesto: req.PorcentajeImpuesto,
		RequierePeso:       req.RequierePeso,
		PermiteDecimales:   req.PermiteDecimales,
		Activo:             true,
	}

	// The initial stock is an entrada in the ledger so that replaying the
	// ledger yields the stored stock.
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return duplicated(err, ErrCodigoDuplicado)
		}
		if req.Stock > 0 {
			mov, err := s.inventario.Registrar(ctx, tx, MovimientoInput{
				NegocioID:  negocioID,
				ProductoID: p.ID,
				Tipo:       model.MovEntrada,
				Cantidad:   req.Stock,
				Motivo:     "Inventario inicial",
				UsuarioID:  &actor,
			})
			if err != nil {
				return err
			}
			p.Stock = mov.StockNuevo
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("negocio_id", negocioID.String()).Str("codigo", p.Codigo).Int("stock", p.Stock).Msg("producto creado")
	return productoToResponse(p), nil
}

func (s *productoService) resolverCategoria(ctx context.Context, negocioID uuid.UUID, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, ErrCategoriaNoEncontrada
	}
	if _, err := s.categoriaRepo.ObtenerPorID(ctx, negocioID, id); err != nil {
		return nil, notFound(err, ErrCategoriaNoEncontrada)
	}
	return &id, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, negocioID, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrProductoNoEncontrado)
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, negocioID, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, negocioID, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrProductoNoEncontrado)
	}
	codigoAnterior := p.Codigo

	if req.Codigo != nil {
		codigo := strings.TrimSpace(*req.Codigo)
		if codigo != p.Codigo {
			if other, err := s.repo.FindByCodigo(ctx, negocioID, codigo); err == nil && other.ID != p.ID {
				return nil, fmt.Errorf("%w: %s", ErrCodigoDuplicado, codigo)
			}
			p.Codigo = codigo
		}
	}
	if req.Nombre != nil {
		p.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.CategoriaID != nil {
		categoriaID, err := s.resolverCategoria(ctx, negocioID, req.CategoriaID)
		if err != nil {
			return nil, err
		}
		p.CategoriaID = categoriaID
		p.Categoria = nil
	}
	if req.Precio != nil {
		if !req.Precio.IsPositive() {
			return nil, ErrPrecioInvalido
		}
		p.Precio = *req.Precio
	}
	if req.PrecioCompra != nil {
		p.PrecioCompra = req.PrecioCompra
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if req.PorcentajeImpuesto != nil {
		p.PorcentajeImpuesto = *req.PorcentajeImpuesto
	}
	if req.RequierePeso != nil {
		p.RequierePeso = *req.RequierePeso
	}
	if req.PermiteDecimales != nil {
		p.PermiteDecimales = *req.PermiteDecimales
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, duplicated(err, ErrCodigoDuplicado)
	}
	s.precios.Invalidar(ctx, negocioID, codigoAnterior, p.Codigo)
	return productoToResponse(p), nil
}

// variacionesCodigo lists the forms a scanned barcode may be stored under:
// as typed, without leading zeros, with a leading zero, and zero-padded to
// EAN-13 and UPC-A length.
func variacionesCodigo(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	out := []string{q}
	add := func(v string) {
		if v == "" {
			return
		}
		for _, existing := range out {
			if existing == v {
				return
			}
		}
		out = append(out, v)
	}
	add(strings.TrimLeft(q, "0"))
	add("0" + q)
	for _, n := range []int{13, 12} {
		if len(q) < n {
			add(strings.Repeat("0", n-len(q)) + q)
		}
	}
	return out
}

// buscarPorCodigo returns the active product matching the earliest code
// variation, or nil.
func (s *productoService) buscarPorCodigo(ctx context.Context, negocioID uuid.UUID, q string) (*model.Producto, error) {
	variaciones := variacionesCodigo(q)
	if len(variaciones) == 0 {
		return nil, nil
	}
	encontrados, err := s.repo.FindActivosByCodigos(ctx, negocioID, variaciones)
	if err != nil {
		return nil, err
	}
	for _, v := range variaciones {
		for i := range encontrados {
			if encontrados[i].Codigo == v {
				return &encontrados[i], nil
			}
		}
	}
	return nil, nil
}

func (s *productoService) Buscar(ctx context.Context, negocioID uuid.UUID, q string) ([]dto.ProductoResponse, error) {
	q = strings.TrimSpace(q)
	p, err := s.buscarPorCodigo(ctx, negocioID, q)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return []dto.ProductoResponse{*productoToResponse(p)}, nil
	}
	if len([]rune(q)) < busquedaNombreMin {
		return []dto.ProductoResponse{}, nil
	}
	list, err := s.repo.SearchByNombre(ctx, negocioID, q, busquedaNombreLimite)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductoResponse, 0, len(list))
	for i := range list {
		out = append(out, *productoToResponse(&list[i]))
	}
	return out, nil
}

func (s *productoService) AjustarStock(ctx context.Context, negocioID, id, actor uuid.UUID, req dto.AjustarStockRequest, ip string) (*dto.MovimientoStockResponse, error) {
	tipo := model.TipoMovimiento(req.Tipo)
	if tipo == "" {
		tipo = model.MovAjuste
	}
	// venta and devolucion are reserved for the sale flow
	if tipo == model.MovVenta || tipo == model.MovDevolucion {
		return nil, fmt.Errorf("%w: %q", ErrTipoMovimientoInvalido, tipo)
	}
	in := MovimientoInput{
		NegocioID:  negocioID,
		ProductoID: id,
		Tipo:       tipo,
		Cantidad:   req.Cantidad,
		Motivo:     strings.TrimSpace(req.Motivo),
		UsuarioID:  &actor,
	}
	if ip != "" {
		in.IPAddress = &ip
	}
	mov, err := s.inventario.Registrar(ctx, nil, in)
	if err != nil {
		return nil, err
	}
	resp := movimientoToResponse(mov)
	return &resp, nil
}

func (s *productoService) ReporteStockBajo(ctx context.Context, negocioID uuid.UUID) ([]dto.StockBajoItem, error) {
	list, err := s.repo.StockBajo(ctx, negocioID)
	if err != nil {
		return nil, err
	}
	return stockBajoItems(list), nil
}

func stockBajoItems(list []model.Producto) []dto.StockBajoItem {
	out := make([]dto.StockBajoItem, 0, len(list))
	for _, p := range list {
		out = append(out, dto.StockBajoItem{
			ProductoID:  p.ID.String(),
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			Stock:       p.Stock,
			StockMinimo: p.StockMinimo,
			Faltante:    p.StockMinimo - p.Stock,
		})
	}
	return out
}

// Eliminar keeps products that appear in any sale (deactivates them) and
// hard-deletes the rest together with their ledger rows.
func (s *productoService) Eliminar(ctx context.Context, negocioID, id uuid.UUID) (*dto.EliminarProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrProductoNoEncontrado)
	}
	conVentas, err := s.repo.HasVentas(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	defer s.precios.Invalidar(ctx, negocioID, p.Codigo)

	if conVentas {
		if err := s.repo.SetActivo(ctx, negocioID, p.ID, false); err != nil {
			return nil, err
		}
		return &dto.EliminarProductoResponse{
			Success: true,
			Accion:  AccionDesactivado,
			Mensaje: fmt.Sprintf("El producto %s tiene ventas registradas y fue desactivado", p.Nombre),
		}, nil
	}
	if err := s.repo.Delete(ctx, negocioID, p.ID); err != nil {
		return nil, err
	}
	log.Info().Str("negocio_id", negocioID.String()).Str("codigo", p.Codigo).Msg("producto eliminado")
	return &dto.EliminarProductoResponse{
		Success: true,
		Accion:  AccionEliminado,
		Mensaje: fmt.Sprintf("El producto %s fue eliminado", p.Nombre),
	}, nil
}

func (s *productoService) Reactivar(ctx context.Context, negocioID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return notFound(err, ErrProductoNoEncontrado)
	}
	if err := s.repo.SetActivo(ctx, negocioID, p.ID, true); err != nil {
		return err
	}
	s.precios.Invalidar(ctx, negocioID, p.Codigo)
	return nil
}

func (s *productoService) ConsultarPrecio(ctx context.Context, negocioID uuid.UUID, codigo string) (*dto.ConsultaPrecioResponse, error) {
	codigo = strings.TrimSpace(codigo)
	if cached, ok := s.precios.Get(ctx, negocioID, codigo); ok {
		return cached, nil
	}
	p, err := s.buscarPorCodigo(ctx, negocioID, codigo)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductoNoEncontrado
	}
	resp := &dto.ConsultaPrecioResponse{
		Codigo:          p.Codigo,
		Nombre:          p.Nombre,
		Precio:          p.Precio,
		StockDisponible: p.Stock,
	}
	if p.Categoria != nil {
		resp.Categoria = p.Categoria.Nombre
	}
	s.precios.Set(ctx, negocioID, codigo, resp)
	return resp, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	resp := &dto.ProductoResponse{
		ID:                 p.ID.String(),
		Codigo:             p.Codigo,
		Nombre:             p.Nombre,
		Descripcion:        p.Descripcion,
		CategoriaID:        uuidPtrString(p.CategoriaID),
		Precio:             p.Precio,
		PrecioCompra:       p.PrecioCompra,
		Stock:              p.Stock,
		StockMinimo:        p.StockMinimo,
		StockBajo:          p.StockBajo(),
		PorcentajeImpuesto: p.PorcentajeImpuesto,
		RequierePeso:       p.RequierePeso,
		PermiteDecimales:   p.PermiteDecimales,
		Activo:             p.Activo,
	}
	if p.Categoria != nil {
		resp.Categoria = p.Categoria.Nombre
	}
	if p.PrecioCompra != nil && p.PrecioCompra.IsPositive() {
		margen := p.Precio.Sub(*p.PrecioCompra).Div(*p.PrecioCompra).Mul(decimal.NewFromInt(100)).Round(2)
		resp.MargenPct = &margen
	}
	return resp
}
