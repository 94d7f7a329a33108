package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/infra"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"
	"dulceriapos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const fechaLayout = "2006-01-02"

// ── Productos ─────────────────────────────────────────────────────────────────

// stubProductoRepo is an in-memory ProductoRepository. Reads return copies
// so the service cannot bypass SetStockTx.
type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[uuid.UUID]*model.Producto
	conVentas map[uuid.UUID]bool
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: map[uuid.UUID]*model.Producto{}, conVentas: map[uuid.UUID]bool{}}
}

func (r *stubProductoRepo) copia(p *model.Producto) *model.Producto {
	c := *p
	return &c
}

func (r *stubProductoRepo) CreateTx(_ *gorm.DB, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.productos {
		if x.NegocioID == p.NegocioID && x.Codigo == p.Codigo {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.productos[p.ID] = r.copia(p)
	return nil
}

func (r *stubProductoRepo) get(negocioID, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok || p.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(negocioID, id)
	if err != nil {
		return nil, err
	}
	return r.copia(p), nil
}

func (r *stubProductoRepo) FindByCodigo(_ context.Context, negocioID uuid.UUID, codigo string) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.productos {
		if p.NegocioID == negocioID && p.Codigo == codigo {
			return r.copia(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) FindActivosByCodigos(_ context.Context, negocioID uuid.UUID, codigos []string) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, p := range r.productos {
		if p.NegocioID != negocioID || !p.Activo {
			continue
		}
		for _, c := range codigos {
			if p.Codigo == c {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

func (r *stubProductoRepo) SearchByNombre(_ context.Context, negocioID uuid.UUID, q string, limit int) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, p := range r.productos {
		if p.NegocioID == negocioID && p.Activo && strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(q)) {
			out = append(out, *p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubProductoRepo) List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	all, _ := r.ListAll(ctx, negocioID)
	var out []model.Producto
	for _, p := range all {
		if (filter.Activo == "true" && !p.Activo) || (filter.Activo == "false" && p.Activo) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ListAll(_ context.Context, negocioID uuid.UUID) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, p := range r.productos {
		if p.NegocioID == negocioID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *stubProductoRepo) StockBajo(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error) {
	all, _ := r.ListAll(ctx, negocioID)
	var out []model.Producto
	for i := range all {
		if all[i].StockBajo() {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, err := r.get(p.NegocioID, p.ID)
	if err != nil {
		return err
	}
	stock := cur.Stock
	*cur = *p
	cur.Stock = stock
	return nil
}

func (r *stubProductoRepo) SetActivo(_ context.Context, negocioID, id uuid.UUID, activo bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(negocioID, id)
	if err != nil {
		return err
	}
	p.Activo = activo
	return nil
}

func (r *stubProductoRepo) HasVentas(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conVentas[id], nil
}

func (r *stubProductoRepo) Delete(_ context.Context, negocioID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.get(negocioID, id); err != nil {
		return err
	}
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) LockByIDTx(_ *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), negocioID, id)
}

func (r *stubProductoRepo) LockByIDsTx(_ *gorm.DB, negocioID uuid.UUID, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		p, err := r.FindByID(context.Background(), negocioID, id)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductoRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock = stock
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

// stock reads the stored stock directly.
func (r *stubProductoRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.productos[id].Stock
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── Ledger ────────────────────────────────────────────────────────────────────

type stubMovRepo struct {
	mu   sync.Mutex
	movs []model.MovimientoStock
	seq  int64
}

func (r *stubMovRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if err := m.Validar(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = uuid.New()
	m.Secuencia = r.seq
	m.CreatedAt = time.Now()
	c := *m
	c.Producto = nil
	r.movs = append(r.movs, c)
	return nil
}

func (r *stubMovRepo) Cursor(_ context.Context, negocioID uuid.UUID, f repository.MovimientoStockFilter) (repository.MovimientoCursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range r.movs {
		if m.NegocioID != negocioID {
			continue
		}
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && string(m.Tipo) != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	if f.Ascendente {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].ProductoID != out[j].ProductoID {
				return out[i].ProductoID.String() < out[j].ProductoID.String()
			}
			return out[i].Secuencia < out[j].Secuencia
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Secuencia > out[j].Secuencia })
	}
	return repository.NewSliceCursor(out), nil
}

// de returns the ledger rows of one product, oldest first.
func (r *stubMovRepo) de(productoID uuid.UUID) []model.MovimientoStock {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range r.movs {
		if m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.MovimientoStockRepository = (*stubMovRepo)(nil)

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	mu     sync.Mutex
	ventas map[uuid.UUID]*model.Venta
	folios map[string]bool
	// siempreDuplicado makes every insert fail with a folio collision.
	siempreDuplicado bool
	productos        *stubProductoRepo
	// txLecturas records the handle every TotalesTx call received.
	txLecturas []*gorm.DB
}

func newStubVentaRepo(productos *stubProductoRepo) *stubVentaRepo {
	return &stubVentaRepo{ventas: map[uuid.UUID]*model.Venta{}, folios: map[string]bool{}, productos: productos}
}

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.siempreDuplicado || r.folios[v.Folio] {
		return gorm.ErrDuplicatedKey
	}
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	for i := range v.Detalles {
		v.Detalles[i].ID = uuid.New()
		v.Detalles[i].VentaID = v.ID
		r.productos.conVentas[v.Detalles[i].ProductoID] = true
	}
	r.folios[v.Folio] = true
	c := *v
	c.Detalles = append([]model.VentaDetalle(nil), v.Detalles...)
	r.ventas[v.ID] = &c
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.Venta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok || v.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	c := *v
	return &c, nil
}

func (r *stubVentaRepo) LockByIDTx(_ *gorm.DB, negocioID, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(context.Background(), negocioID, id)
}

func (r *stubVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado model.EstadoVenta, motivo *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Estado = estado
	v.MotivoCancelacion = motivo
	return nil
}

func (r *stubVentaRepo) filtrar(negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time, estado string) []model.Venta {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Venta
	for _, v := range r.ventas {
		if v.NegocioID != negocioID || v.CreatedAt.Before(desde) || !v.CreatedAt.Before(hasta) {
			continue
		}
		if sucursalID != nil && v.SucursalID != *sucursalID {
			continue
		}
		if estado != "" && estado != "all" && string(v.Estado) != estado {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *stubVentaRepo) List(_ context.Context, negocioID uuid.UUID, f repository.VentaListFilter) ([]model.Venta, int64, error) {
	out := r.filtrar(negocioID, f.SucursalID, f.Desde, f.Hasta, f.Estado)
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) ListRango(_ context.Context, negocioID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error) {
	return r.filtrar(negocioID, nil, desde, hasta, ""), nil
}

func (r *stubVentaRepo) Totales(_ context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) (repository.TotalesVentas, error) {
	var t repository.TotalesVentas
	for _, v := range r.filtrar(negocioID, sucursalID, desde, hasta, string(model.VentaCompletada)) {
		t.NumeroVentas++
		t.TotalVentas = t.TotalVentas.Add(v.Total)
		switch v.MetodoPago {
		case model.PagoEfectivo:
			t.TotalEfectivo = t.TotalEfectivo.Add(v.MontoPagado)
		case model.PagoTarjeta:
			t.TotalTarjetas = t.TotalTarjetas.Add(v.Total)
		}
	}
	return t, nil
}

func (r *stubVentaRepo) TotalesTx(tx *gorm.DB, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) (repository.TotalesVentas, error) {
	r.mu.Lock()
	r.txLecturas = append(r.txLecturas, tx)
	r.mu.Unlock()
	return r.Totales(context.Background(), negocioID, sucursalID, desde, hasta)
}

func (r *stubVentaRepo) PorMetodoPago(_ context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) ([]repository.MetodoPagoRow, error) {
	idx := map[string]*repository.MetodoPagoRow{}
	for _, v := range r.filtrar(negocioID, sucursalID, desde, hasta, string(model.VentaCompletada)) {
		row, ok := idx[v.MetodoPago]
		if !ok {
			row = &repository.MetodoPagoRow{MetodoPago: v.MetodoPago}
			idx[v.MetodoPago] = row
		}
		row.Ventas++
		row.Total = row.Total.Add(v.Total)
	}
	out := make([]repository.MetodoPagoRow, 0, len(idx))
	for _, row := range idx {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MetodoPago < out[j].MetodoPago })
	return out, nil
}

func (r *stubVentaRepo) TopProductos(_ context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time, limit int) ([]repository.ProductoVendidoRow, error) {
	idx := map[uuid.UUID]*repository.ProductoVendidoRow{}
	for _, v := range r.filtrar(negocioID, sucursalID, desde, hasta, string(model.VentaCompletada)) {
		for _, d := range v.Detalles {
			row, ok := idx[d.ProductoID]
			if !ok {
				row = &repository.ProductoVendidoRow{ProductoID: d.ProductoID}
				if p, err := r.productos.FindByID(context.Background(), negocioID, d.ProductoID); err == nil {
					row.Nombre = p.Nombre
				}
				idx[d.ProductoID] = row
			}
			row.Cantidad = row.Cantidad.Add(d.Cantidad)
			row.Total = row.Total.Add(d.Subtotal)
		}
	}
	out := make([]repository.ProductoVendidoRow, 0, len(idx))
	for _, row := range idx {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cantidad.GreaterThan(out[j].Cantidad) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// ── Caja ─────────────────────────────────────────────────────────────────────

type stubCajaRepo struct {
	mu     sync.Mutex
	cajas  []*model.Caja
	gastos []model.GastoCaja
	// db is returned by DB(); nil runs service transactions inline.
	db         *gorm.DB
	txLecturas []*gorm.DB
}

func (r *stubCajaRepo) Create(_ context.Context, c *model.Caja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.cajas {
		if x.NegocioID == c.NegocioID && x.SucursalID == c.SucursalID && x.Fecha.Format(fechaLayout) == c.Fecha.Format(fechaLayout) {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = uuid.New()
	cp := *c
	r.cajas = append(r.cajas, &cp)
	return nil
}

func (r *stubCajaRepo) buscar(negocioID uuid.UUID, match func(*model.Caja) bool) (*model.Caja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cajas {
		if c.NegocioID == negocioID && match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.Caja, error) {
	return r.buscar(negocioID, func(c *model.Caja) bool { return c.ID == id })
}

func (r *stubCajaRepo) FindByFecha(_ context.Context, negocioID, sucursalID uuid.UUID, fecha time.Time) (*model.Caja, error) {
	return r.buscar(negocioID, func(c *model.Caja) bool {
		return c.SucursalID == sucursalID && c.Fecha.Format(fechaLayout) == fecha.Format(fechaLayout)
	})
}

func (r *stubCajaRepo) FindAbiertaTx(_ *gorm.DB, negocioID, sucursalID uuid.UUID, fecha time.Time) (*model.Caja, error) {
	return r.buscar(negocioID, func(c *model.Caja) bool {
		return c.SucursalID == sucursalID && c.Estado == model.CajaAbierta && c.Fecha.Format(fechaLayout) == fecha.Format(fechaLayout)
	})
}

func (r *stubCajaRepo) LockByIDTx(_ *gorm.DB, negocioID, id uuid.UUID) (*model.Caja, error) {
	return r.FindByID(context.Background(), negocioID, id)
}

func (r *stubCajaRepo) UpdateTx(_ *gorm.DB, c *model.Caja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, x := range r.cajas {
		if x.ID == c.ID {
			cp := *c
			r.cajas[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) List(_ context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, _, _ int) ([]model.Caja, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Caja
	for _, c := range r.cajas {
		if c.NegocioID == negocioID && (sucursalID == nil || c.SucursalID == *sucursalID) {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCajaRepo) CreateGasto(_ context.Context, g *model.GastoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	r.gastos = append(r.gastos, *g)
	return nil
}

func (r *stubCajaRepo) ListGastos(_ context.Context, negocioID uuid.UUID, desde, hasta time.Time) ([]model.GastoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GastoCaja
	for _, g := range r.gastos {
		if g.NegocioID == negocioID && !g.CreatedAt.Before(desde) && g.CreatedAt.Before(hasta) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubCajaRepo) SumGastos(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	gastos, _ := r.ListGastos(ctx, negocioID, desde, hasta)
	total := decimal.Zero
	for _, g := range gastos {
		total = total.Add(g.Monto)
	}
	return total, nil
}

func (r *stubCajaRepo) SumGastosTx(tx *gorm.DB, negocioID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	r.txLecturas = append(r.txLecturas, tx)
	r.mu.Unlock()
	return r.SumGastos(context.Background(), negocioID, desde, hasta)
}

func (r *stubCajaRepo) DB() *gorm.DB { return r.db }

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

// ── Usuarios y sesiones ─────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	mu       sync.Mutex
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	return r.CreateTx(nil, u)
}

func (r *stubUsuarioRepo) CreateTx(_ *gorm.DB, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.usuarios {
		if x.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usuarios {
		if u.Username == username || (u.Email != nil && *u.Email == username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, negocioID, id uuid.UUID) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok || u.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.NegocioID == negocioID && (incluirInactivos || u.Activo) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, negocioID, id uuid.UUID, activo bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok || u.NegocioID != negocioID {
		return gorm.ErrRecordNotFound
	}
	u.Activo = activo
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

type stubSesionRepo struct {
	mu       sync.Mutex
	sesiones map[string]*model.SesionUsuario
}

func newStubSesionRepo() *stubSesionRepo {
	return &stubSesionRepo{sesiones: map[string]*model.SesionUsuario{}}
}

func (r *stubSesionRepo) Create(_ context.Context, s *model.SesionUsuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	r.sesiones[s.SessionKey] = &cp
	return nil
}

func (r *stubSesionRepo) FindByKey(_ context.Context, key string) (*model.SesionUsuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sesiones[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSesionRepo) ListActivas(_ context.Context, negocioID uuid.UUID, desde time.Time) ([]model.SesionUsuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SesionUsuario
	for _, s := range r.sesiones {
		if s.NegocioID == negocioID && s.Activa && !s.UltimaActividad.Before(desde) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSesionRepo) CountActivas(ctx context.Context, negocioID uuid.UUID, desde time.Time) (int64, error) {
	list, _ := r.ListActivas(ctx, negocioID, desde)
	return int64(len(list)), nil
}

func (r *stubSesionRepo) Touch(_ context.Context, key string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sesiones[key]; ok && s.Activa {
		s.UltimaActividad = at
	}
	return nil
}

func (r *stubSesionRepo) Desactivar(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sesiones[key]; ok {
		s.Activa = false
	}
	return nil
}

func (r *stubSesionRepo) DesactivarPorUsuario(_ context.Context, usuarioID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sesiones {
		if s.UsuarioID == usuarioID {
			s.Activa = false
		}
	}
	return nil
}

func (r *stubSesionRepo) ExpirarInactivas(_ context.Context, antes time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sesiones {
		if s.Activa && s.UltimaActividad.Before(antes) {
			s.Activa = false
			n++
		}
	}
	return n, nil
}

var _ repository.SesionRepository = (*stubSesionRepo)(nil)

// ── Negocios ─────────────────────────────────────────────────────────────────

type stubNegocioRepo struct {
	mu         sync.Mutex
	negocios   map[uuid.UUID]*model.Negocio
	configs    map[uuid.UUID]*model.ConfiguracionNegocio
	sucursales map[uuid.UUID]*model.Sucursal
}

func newStubNegocioRepo() *stubNegocioRepo {
	return &stubNegocioRepo{
		negocios:   map[uuid.UUID]*model.Negocio{},
		configs:    map[uuid.UUID]*model.ConfiguracionNegocio{},
		sucursales: map[uuid.UUID]*model.Sucursal{},
	}
}

func (r *stubNegocioRepo) CreateTx(_ *gorm.DB, n *model.Negocio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	cp := *n
	r.negocios[n.ID] = &cp
	return nil
}

func (r *stubNegocioRepo) CreateConfiguracionTx(_ *gorm.DB, c *model.ConfiguracionNegocio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New()
	cp := *c
	r.configs[c.NegocioID] = &cp
	return nil
}

func (r *stubNegocioRepo) CreateSucursalTx(_ *gorm.DB, s *model.Sucursal) error {
	return r.CreateSucursal(context.Background(), s)
}

func (r *stubNegocioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Negocio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.negocios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *n
	if c, ok := r.configs[id]; ok {
		cc := *c
		cp.Configuracion = &cc
	}
	return &cp, nil
}

func (r *stubNegocioRepo) ExisteNombreOEmail(_ context.Context, nombre, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.negocios {
		if strings.EqualFold(n.Nombre, nombre) || strings.EqualFold(n.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubNegocioRepo) ListConReporteDiario(_ context.Context) ([]model.Negocio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Negocio
	for id, n := range r.negocios {
		if c, ok := r.configs[id]; ok && c.EnviarReporteDiario && n.SuscripcionActiva {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *stubNegocioRepo) ListTodos(_ context.Context) ([]model.Negocio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Negocio, 0, len(r.negocios))
	for _, n := range r.negocios {
		out = append(out, *n)
	}
	return out, nil
}

func (r *stubNegocioRepo) FindConfiguracion(_ context.Context, negocioID uuid.UUID) (*model.ConfiguracionNegocio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.configs[negocioID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubNegocioRepo) UpdateConfiguracion(_ context.Context, c *model.ConfiguracionNegocio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.configs[c.NegocioID] = &cp
	return nil
}

func (r *stubNegocioRepo) ListSucursales(_ context.Context, negocioID uuid.UUID) ([]model.Sucursal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sucursal
	for _, s := range r.sucursales {
		if s.NegocioID == negocioID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubNegocioRepo) FindSucursal(_ context.Context, negocioID, id uuid.UUID) (*model.Sucursal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sucursales[id]
	if !ok || s.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubNegocioRepo) FindSucursalPrincipal(_ context.Context, negocioID uuid.UUID) (*model.Sucursal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sucursales {
		if s.NegocioID == negocioID && s.EsPrincipal && s.Activa {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubNegocioRepo) CreateSucursal(_ context.Context, s *model.Sucursal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sucursales[s.ID] = &cp
	return nil
}

func (r *stubNegocioRepo) UpdateSucursal(_ context.Context, s *model.Sucursal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sucursales[s.ID] = &cp
	return nil
}

func (r *stubNegocioRepo) DB() *gorm.DB { return nil }

var _ repository.NegocioRepository = (*stubNegocioRepo)(nil)

// ── Categorías ───────────────────────────────────────────────────────────────

type stubCategoriaRepo struct {
	categorias map[uuid.UUID]*model.Categoria
}

func newStubCategoriaRepo() *stubCategoriaRepo {
	return &stubCategoriaRepo{categorias: map[uuid.UUID]*model.Categoria{}}
}

func (r *stubCategoriaRepo) Crear(_ context.Context, c *model.Categoria) error {
	for _, x := range r.categorias {
		if x.NegocioID == c.NegocioID && strings.EqualFold(x.Nombre, c.Nombre) {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = uuid.New()
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) Listar(_ context.Context, negocioID uuid.UUID) ([]model.Categoria, error) {
	var out []model.Categoria
	for _, c := range r.categorias {
		if c.NegocioID == negocioID && c.Activa {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCategoriaRepo) ObtenerPorID(_ context.Context, negocioID, id uuid.UUID) (*model.Categoria, error) {
	c, ok := r.categorias[id]
	if !ok || c.NegocioID != negocioID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoriaRepo) ObtenerPorNombre(_ context.Context, negocioID uuid.UUID, nombre string) (*model.Categoria, error) {
	for _, c := range r.categorias {
		if c.NegocioID == negocioID && strings.EqualFold(c.Nombre, nombre) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoriaRepo) Actualizar(_ context.Context, c *model.Categoria) error {
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) Desactivar(_ context.Context, negocioID, id uuid.UUID) error {
	c, ok := r.categorias[id]
	if !ok || c.NegocioID != negocioID {
		return gorm.ErrRecordNotFound
	}
	c.Activa = false
	return nil
}

var _ repository.CategoriaRepository = (*stubCategoriaRepo)(nil)

// ── Prospectos ───────────────────────────────────────────────────────────────

type stubProspectoRepo struct {
	mu         sync.Mutex
	prospectos map[uuid.UUID]*model.Prospecto
	logs       []model.ProspectoLog
}

func newStubProspectoRepo() *stubProspectoRepo {
	return &stubProspectoRepo{prospectos: map[uuid.UUID]*model.Prospecto{}}
}

func (r *stubProspectoRepo) Create(_ context.Context, p *model.Prospecto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	r.prospectos[p.ID] = &cp
	return nil
}

func (r *stubProspectoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Prospecto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prospectos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProspectoRepo) FindByEmail(_ context.Context, email string) (*model.Prospecto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prospectos {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProspectoRepo) List(_ context.Context, estado string) ([]model.Prospecto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Prospecto
	for _, p := range r.prospectos {
		if estado == "" || string(p.Estado) == estado {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProspectoRepo) Update(_ context.Context, p *model.Prospecto) error {
	return r.UpdateTx(nil, p)
}

func (r *stubProspectoRepo) CreateLog(_ context.Context, l *model.ProspectoLog) error {
	return r.CreateLogTx(nil, l)
}

func (r *stubProspectoRepo) LockByTokenTx(_ *gorm.DB, token uuid.UUID) (*model.Prospecto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prospectos {
		if p.TokenRegistro != nil && *p.TokenRegistro == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProspectoRepo) UpdateTx(_ *gorm.DB, p *model.Prospecto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.prospectos[p.ID] = &cp
	return nil
}

func (r *stubProspectoRepo) CreateLogTx(_ *gorm.DB, l *model.ProspectoLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = uuid.New()
	r.logs = append(r.logs, *l)
	return nil
}

func (r *stubProspectoRepo) DB() *gorm.DB { return nil }

var _ repository.ProspectoRepository = (*stubProspectoRepo)(nil)

// ── Colas y correo ───────────────────────────────────────────────────────────

type stubEncolador struct {
	mu       sync.Mutex
	tickets  []dto.TicketJobPayload
	emails   []dto.EmailJobPayload
	reportes []dto.ReporteJobPayload
}

func (e *stubEncolador) EncolarTicket(_ context.Context, p dto.TicketJobPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickets = append(e.tickets, p)
	return nil
}

func (e *stubEncolador) EncolarEmail(_ context.Context, p dto.EmailJobPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emails = append(e.emails, p)
	return nil
}

func (e *stubEncolador) EncolarReporte(_ context.Context, p dto.ReporteJobPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reportes = append(e.reportes, p)
	return nil
}

var _ service.Encolador = (*stubEncolador)(nil)

type mailEnviado struct {
	To, Subject, Body string
	Adjuntos          []infra.Adjunto
}

type stubMailer struct {
	enviados []mailEnviado
	err      error
}

func (m *stubMailer) Enviar(to, subject, body, _ string, adjuntos ...infra.Adjunto) error {
	if m.err != nil {
		return m.err
	}
	m.enviados = append(m.enviados, mailEnviado{To: to, Subject: subject, Body: body, Adjuntos: adjuntos})
	return nil
}

// folioFijo always proposes the same folio, to exercise collision retries.
type folioFijo string

func (f folioFijo) Siguiente(context.Context, uuid.UUID, time.Time) string { return string(f) }

// ── Entorno ──────────────────────────────────────────────────────────────────

// entorno is one negocio with an owner, a basic cashier and every service
// wired to in-memory repositories.
type entorno struct {
	ctx        context.Context
	negocioID  uuid.UUID
	sucursalID uuid.UUID
	owner      *model.Usuario
	cajero     *model.Usuario

	productos  *stubProductoRepo
	movs       *stubMovRepo
	ventas     *stubVentaRepo
	cajas      *stubCajaRepo
	usuarios   *stubUsuarioRepo
	sesiones   *stubSesionRepo
	negocios   *stubNegocioRepo
	categorias *stubCategoriaRepo
	jobs       *stubEncolador
	mailer     *stubMailer

	inventarioSvc service.InventarioService
	productoSvc   service.ProductoService
	ventaSvc      service.VentaService
	cajaSvc       service.CajaService
	reporteSvc    service.ReporteService
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	e := &entorno{
		ctx:        context.Background(),
		productos:  newStubProductoRepo(),
		movs:       &stubMovRepo{},
		cajas:      &stubCajaRepo{},
		usuarios:   newStubUsuarioRepo(),
		sesiones:   newStubSesionRepo(),
		negocios:   newStubNegocioRepo(),
		categorias: newStubCategoriaRepo(),
		jobs:       &stubEncolador{},
		mailer:     &stubMailer{},
	}
	e.ventas = newStubVentaRepo(e.productos)

	negocio := &model.Negocio{Nombre: "Dulcería La Piñata", Email: "pinata@example.com", MaxUsuariosConcurrentes: 2, SuscripcionActiva: true, Plan: "basico"}
	require.NoError(t, e.negocios.CreateTx(nil, negocio))
	e.negocioID = negocio.ID
	require.NoError(t, e.negocios.CreateConfiguracionTx(nil, &model.ConfiguracionNegocio{
		NegocioID: negocio.ID, ZonaHoraria: "America/Mexico_City", UmbralStockBajo: 5, SimboloMoneda: "$",
	}))
	suc := &model.Sucursal{NegocioID: negocio.ID, Nombre: "Centro", Activa: true, EsPrincipal: true}
	require.NoError(t, e.negocios.CreateSucursal(e.ctx, suc))
	e.sucursalID = suc.ID

	e.owner = e.nuevoUsuario(t, "dueno", model.PermisosPropietario(), true)
	e.cajero = e.nuevoUsuario(t, "cajero", model.PermisosEmpleado(), false)

	loc, _ := time.LoadLocation("America/Mexico_City")
	precios := service.NewPrecioCache(nil)
	e.inventarioSvc = service.NewInventarioService(e.productos, e.movs, precios, loc)
	e.productoSvc = service.NewProductoService(e.productos, e.categorias, e.negocios, e.inventarioSvc, precios)
	e.ventaSvc = e.nuevoVentaSvc(nil)
	e.cajaSvc = service.NewCajaService(e.cajas, e.ventas, e.usuarios, e.negocios, e.jobs, loc)
	e.reporteSvc = service.NewReporteService(e.ventas, e.productos, e.cajas, e.negocios, e.mailer, loc)
	return e
}

func (e *entorno) nuevoVentaSvc(folios service.FolioGenerator) service.VentaService {
	return service.NewVentaService(service.VentaDeps{
		Repo:         e.ventas,
		ProductoRepo: e.productos,
		CajaRepo:     e.cajas,
		UsuarioRepo:  e.usuarios,
		NegocioRepo:  e.negocios,
		Inventario:   e.inventarioSvc,
		Folios:       folios,
		Jobs:         e.jobs,
	})
}

func (e *entorno) nuevoUsuario(t *testing.T, username string, permisos model.Permisos, propietario bool) *model.Usuario {
	t.Helper()
	u := &model.Usuario{
		NegocioID:     e.negocioID,
		Username:      username,
		Nombre:        strings.ToUpper(username[:1]) + username[1:],
		EsPropietario: propietario,
		Activo:        true,
		Permisos:      permisos,
	}
	require.NoError(t, e.usuarios.Create(e.ctx, u))
	return u
}

// producto creates a product through the catalog so the initial stock is in
// the ledger.
func (e *entorno) producto(t *testing.T, codigo, nombre, precio string, stock, minimo int) *model.Producto {
	t.Helper()
	resp, err := e.productoSvc.Crear(e.ctx, e.negocioID, e.owner.ID, dto.CrearProductoRequest{
		Codigo:      codigo,
		Nombre:      nombre,
		Precio:      decimal.RequireFromString(precio),
		Stock:       stock,
		StockMinimo: &minimo,
	})
	require.NoError(t, err)
	p, err := e.productos.FindByID(e.ctx, e.negocioID, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	return p
}

func uuidOf(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(p *model.Producto, cantidad string) dto.ItemVentaRequest {
	return dto.ItemVentaRequest{ProductoID: p.ID.String(), Cantidad: dec(cantidad)}
}
