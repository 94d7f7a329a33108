package repository

import (
	"context"
	"time"

	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VentaListFilter is the resolved form of dto.VentaFilter: dates already
// converted to an instant range in the negocio time zone.
type VentaListFilter struct {
	Desde      time.Time
	Hasta      time.Time // exclusive
	Estado     string    // "" or "all" = every state
	SucursalID *uuid.UUID
	Page       int
	Limit      int
}

// TotalesVentas aggregates the completed sales of a branch over a range.
type TotalesVentas struct {
	NumeroVentas  int64
	TotalVentas   decimal.Decimal
	TotalEfectivo decimal.Decimal // monto_pagado of cash sales
	TotalTarjetas decimal.Decimal
}

type MetodoPagoRow struct {
	MetodoPago string
	Ventas     int64
	Total      decimal.Decimal
}

type ProductoVendidoRow struct {
	ProductoID uuid.UUID
	Nombre     string
	Cantidad   decimal.Decimal
	Total      decimal.Decimal
}

type VentaRepository interface {
	// CreateTx inserts the sale and its lines inside a savepoint, so a
	// duplicate folio can be retried without aborting the outer transaction.
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Venta, error)
	LockByIDTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Venta, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoVenta, motivo *string) error
	List(ctx context.Context, negocioID uuid.UUID, filter VentaListFilter) ([]model.Venta, int64, error)
	ListRango(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error)

	Totales(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) (TotalesVentas, error)
	// TotalesTx is Totales read through the caller's transaction.
	TotalesTx(tx *gorm.DB, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) (TotalesVentas, error)
	PorMetodoPago(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) ([]MetodoPagoRow, error)
	TopProductos(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time, limit int) ([]ProductoVendidoRow, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Transaction(func(sp *gorm.DB) error {
		return sp.Omit("Usuario").Create(v).Error
	})
}

func (r *ventaRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Preload("Detalles.Producto").
		Preload("Usuario").
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) LockByIDTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(negocioID)).
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("venta_id = ?", v.ID).Find(&v.Detalles).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoVenta, motivo *string) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Updates(map[string]interface{}{
		"estado":             estado,
		"motivo_cancelacion": motivo,
	}).Error
}

func (r *ventaRepo) List(ctx context.Context, negocioID uuid.UUID, filter VentaListFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{}).
		Scopes(tenant.Scope(negocioID)).
		Where("created_at >= ? AND created_at < ?", filter.Desde, filter.Hasta)

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.SucursalID != nil {
		q = q.Where("sucursal_id = ?", *filter.SucursalID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Detalles.Producto").Preload("Usuario").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}

func (r *ventaRepo) ListRango(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Preload("Detalles.Producto").Preload("Usuario").
		Order("created_at ASC").
		Find(&ventas).Error
	return ventas, err
}

func completadas(db *gorm.DB, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) *gorm.DB {
	q := db.Model(&model.Venta{}).
		Scopes(tenant.ScopeTable("ventas", negocioID)).
		Where("ventas.estado = ?", model.VentaCompletada).
		Where("ventas.created_at >= ? AND ventas.created_at < ?", desde, hasta)
	if sucursalID != nil {
		q = q.Where("ventas.sucursal_id = ?", *sucursalID)
	}
	return q
}

func (r *ventaRepo) Totales(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) (TotalesVentas, error) {
	return r.TotalesTx(r.db.WithContext(ctx), negocioID, sucursalID, desde, hasta)
}

func (r *ventaRepo) TotalesTx(tx *gorm.DB, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) (TotalesVentas, error) {
	var t TotalesVentas
	err := completadas(tx, negocioID, sucursalID, desde, hasta).
		Select(`COUNT(*) AS numero_ventas,
			COALESCE(SUM(total), 0) AS total_ventas,
			COALESCE(SUM(CASE WHEN metodo_pago = ? THEN monto_pagado ELSE 0 END), 0) AS total_efectivo,
			COALESCE(SUM(CASE WHEN metodo_pago = ? THEN total ELSE 0 END), 0) AS total_tarjetas`,
			model.PagoEfectivo, model.PagoTarjeta).
		Scan(&t).Error
	return t, err
}

func (r *ventaRepo) PorMetodoPago(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time) ([]MetodoPagoRow, error) {
	var rows []MetodoPagoRow
	err := completadas(r.db.WithContext(ctx), negocioID, sucursalID, desde, hasta).
		Select("metodo_pago, COUNT(*) AS ventas, COALESCE(SUM(total), 0) AS total").
		Group("metodo_pago").
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *ventaRepo) TopProductos(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, desde, hasta time.Time, limit int) ([]ProductoVendidoRow, error) {
	var rows []ProductoVendidoRow
	err := completadas(r.db.WithContext(ctx), negocioID, sucursalID, desde, hasta).
		Joins("JOIN venta_detalles d ON d.venta_id = ventas.id").
		Joins("JOIN productos p ON p.id = d.producto_id").
		Select("d.producto_id AS producto_id, p.nombre AS nombre, SUM(d.cantidad) AS cantidad, SUM(d.subtotal + d.impuestos) AS total").
		Group("d.producto_id, p.nombre").
		Order("cantidad DESC, nombre ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
