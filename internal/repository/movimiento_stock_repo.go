package repository

import (
	"context"
	"database/sql"
	"time"

	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter defines filters for reading the ledger.
type MovimientoStockFilter struct {
	ProductoID *uuid.UUID
	Tipo       string
	Desde      *time.Time
	Hasta      *time.Time // exclusive
	// Ascendente reads oldest first (replay order). The default is newest
	// first, which is what history screens show.
	Ascendente bool
}

// MovimientoCursor walks a ledger query one row at a time. It is finite and
// not restartable; callers must Close it.
type MovimientoCursor interface {
	Next() bool
	Movimiento() model.MovimientoStock
	Err() error
	Close() error
}

// MovimientoStockRepository is append-only: there is no update or delete.
type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	Cursor(ctx context.Context, negocioID uuid.UUID, filter MovimientoStockFilter) (MovimientoCursor, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *movimientoStockRepo) Cursor(ctx context.Context, negocioID uuid.UUID, filter MovimientoStockFilter) (MovimientoCursor, error) {
	// productos shares negocio_id and created_at, so every column is qualified.
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).
		Select("movimientos_stock.*, productos.nombre AS producto_nombre").
		Joins("LEFT JOIN productos ON productos.id = movimientos_stock.producto_id").
		Scopes(tenant.ScopeTable("movimientos_stock", negocioID))
	if filter.ProductoID != nil {
		q = q.Where("movimientos_stock.producto_id = ?", *filter.ProductoID)
	}
	if filter.Tipo != "" {
		q = q.Where("movimientos_stock.tipo = ?", filter.Tipo)
	}
	if filter.Desde != nil {
		q = q.Where("movimientos_stock.created_at >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("movimientos_stock.created_at < ?", *filter.Hasta)
	}
	if filter.Ascendente {
		q = q.Order("movimientos_stock.producto_id ASC, movimientos_stock.secuencia ASC")
	} else {
		q = q.Order("movimientos_stock.secuencia DESC")
	}

	rows, err := q.Rows()
	if err != nil {
		return nil, err
	}
	return &gormCursor{db: q, rows: rows}, nil
}

type gormCursor struct {
	db   *gorm.DB
	rows *sql.Rows
	cur  model.MovimientoStock
	err  error
}

func (c *gormCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	var m model.MovimientoStock
	if err := c.db.ScanRows(c.rows, &m); err != nil {
		c.err = err
		return false
	}
	c.cur = m
	return true
}

func (c *gormCursor) Movimiento() model.MovimientoStock { return c.cur }

func (c *gormCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *gormCursor) Close() error { return c.rows.Close() }

// NewSliceCursor adapts an in-memory slice to MovimientoCursor.
func NewSliceCursor(movs []model.MovimientoStock) MovimientoCursor {
	return &sliceCursor{movs: movs, pos: -1}
}

type sliceCursor struct {
	movs []model.MovimientoStock
	pos  int
}

func (c *sliceCursor) Next() bool {
	if c.pos+1 >= len(c.movs) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Movimiento() model.MovimientoStock { return c.movs[c.pos] }
func (c *sliceCursor) Err() error                        { return nil }
func (c *sliceCursor) Close() error                      { return nil }
