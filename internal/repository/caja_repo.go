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

// fechaLayout is how calendar days are compared against the DATE column.
const fechaLayout = "2006-01-02"

type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Caja, error)
	// FindByFecha returns the session of a branch for a calendar day, open or closed.
	FindByFecha(ctx context.Context, negocioID, sucursalID uuid.UUID, fecha time.Time) (*model.Caja, error)
	// FindAbiertaTx takes a FOR SHARE lock on the open session, so a sale
	// linking to it and a close of it serialize.
	FindAbiertaTx(tx *gorm.DB, negocioID, sucursalID uuid.UUID, fecha time.Time) (*model.Caja, error)
	LockByIDTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Caja, error)
	UpdateTx(tx *gorm.DB, c *model.Caja) error
	List(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, page, limit int) ([]model.Caja, int64, error)

	CreateGasto(ctx context.Context, g *model.GastoCaja) error
	ListGastos(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) ([]model.GastoCaja, error)
	SumGastos(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error)
	SumGastosTx(tx *gorm.DB, negocioID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error)

	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Omit("Sucursal").Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Preload("Sucursal").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) FindByFecha(ctx context.Context, negocioID, sucursalID uuid.UUID, fecha time.Time) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("sucursal_id = ? AND fecha = ?", sucursalID, fecha.Format(fechaLayout)).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) FindAbiertaTx(tx *gorm.DB, negocioID, sucursalID uuid.UUID, fecha time.Time) (*model.Caja, error) {
	var c model.Caja
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Scopes(tenant.Scope(negocioID)).
		Where("sucursal_id = ? AND fecha = ? AND estado = ?", sucursalID, fecha.Format(fechaLayout), model.CajaAbierta).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) LockByIDTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(negocioID)).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) UpdateTx(tx *gorm.DB, c *model.Caja) error {
	return tx.Omit("Sucursal").Save(c).Error
}

func (r *cajaRepo) List(ctx context.Context, negocioID uuid.UUID, sucursalID *uuid.UUID, page, limit int) ([]model.Caja, int64, error) {
	var list []model.Caja
	var total int64
	q := r.db.WithContext(ctx).Model(&model.Caja{}).Scopes(tenant.Scope(negocioID))
	if sucursalID != nil {
		q = q.Where("sucursal_id = ?", *sucursalID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Sucursal").
		Order("fecha DESC, abierta_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *cajaRepo) CreateGasto(ctx context.Context, g *model.GastoCaja) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *cajaRepo) ListGastos(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) ([]model.GastoCaja, error) {
	var list []model.GastoCaja
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *cajaRepo) SumGastos(ctx context.Context, negocioID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	return r.SumGastosTx(r.db.WithContext(ctx), negocioID, desde, hasta)
}

func (r *cajaRepo) SumGastosTx(tx *gorm.DB, negocioID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&model.GastoCaja{}).
		Scopes(tenant.Scope(negocioID)).
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&total).Error
	return total, err
}
