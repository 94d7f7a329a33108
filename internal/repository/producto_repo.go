package repository

import (
	"context"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
//
// There is deliberately no method that writes stock as part of a general
// update: stock only moves through SetStockTx, called by the ledger.
type ProductoRepository interface {
	CreateTx(tx *gorm.DB, p *model.Producto) error
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Producto, error)
	// FindByCodigo matches active and inactive products.
	FindByCodigo(ctx context.Context, negocioID uuid.UUID, codigo string) (*model.Producto, error)
	// FindActivosByCodigos returns active products whose codigo is any of codigos.
	FindActivosByCodigos(ctx context.Context, negocioID uuid.UUID, codigos []string) ([]model.Producto, error)
	SearchByNombre(ctx context.Context, negocioID uuid.UUID, q string, limit int) ([]model.Producto, error)
	List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	// ListAll returns every product of the negocio ordered by id.
	ListAll(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error)
	StockBajo(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error
	HasVentas(ctx context.Context, id uuid.UUID) (bool, error)
	// Delete hard-deletes the product; its ledger rows go with it (FK cascade).
	Delete(ctx context.Context, negocioID, id uuid.UUID) error

	// Used inside transactions; callers must pass the tx instance
	LockByIDTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error)
	// LockByIDsTx locks the rows in ascending id order so concurrent sales
	// touching the same products cannot deadlock.
	LockByIDsTx(tx *gorm.DB, negocioID uuid.UUID, ids []uuid.UUID) ([]model.Producto, error)
	SetStockTx(tx *gorm.DB, id uuid.UUID, stock int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) CreateTx(tx *gorm.DB, p *model.Producto) error {
	return tx.Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Preload("Categoria").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByCodigo(ctx context.Context, negocioID uuid.UUID, codigo string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("codigo = ?", codigo).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindActivosByCodigos(ctx context.Context, negocioID uuid.UUID, codigos []string) ([]model.Producto, error) {
	var list []model.Producto
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Preload("Categoria").
		Where("codigo IN ? AND activo = true", codigos).
		Find(&list).Error
	return list, err
}

func (r *productoRepo) SearchByNombre(ctx context.Context, negocioID uuid.UUID, q string, limit int) ([]model.Producto, error) {
	var list []model.Producto
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Preload("Categoria").
		Where("activo = true AND nombre ILIKE ?", "%"+q+"%").
		Order("nombre ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *productoRepo) List(ctx context.Context, negocioID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{}).Scopes(tenant.Scope(negocioID))

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("activo = true")
	}

	if filter.Codigo != "" {
		q = q.Where("codigo = ?", filter.Codigo)
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.CategoriaID != "" {
		q = q.Where("categoria_id = ?", filter.CategoriaID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Categoria").Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListAll(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error) {
	var list []model.Producto
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *productoRepo) StockBajo(ctx context.Context, negocioID uuid.UUID) ([]model.Producto, error) {
	var list []model.Producto
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("activo = true AND stock_minimo > 0 AND stock <= stock_minimo").
		Order("stock ASC, nombre ASC").
		Find(&list).Error
	return list, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Scopes(tenant.Scope(p.NegocioID)).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"codigo":              p.Codigo,
			"nombre":              p.Nombre,
			"descripcion":         p.Descripcion,
			"categoria_id":        p.CategoriaID,
			"precio":              p.Precio,
			"precio_compra":       p.PrecioCompra,
			"stock_minimo":        p.StockMinimo,
			"porcentaje_impuesto": p.PorcentajeImpuesto,
			"requiere_peso":       p.RequierePeso,
			"permite_decimales":   p.PermiteDecimales,
		}).Error
}

func (r *productoRepo) SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Scopes(tenant.Scope(negocioID)).
		Where("id = ?", id).
		Update("activo", activo).Error
}

func (r *productoRepo) HasVentas(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.VentaDetalle{}).
		Where("producto_id = ?", id).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r *productoRepo) Delete(ctx context.Context, negocioID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("id = ?", id).
		Delete(&model.Producto{}).Error
}

func (r *productoRepo) LockByIDTx(tx *gorm.DB, negocioID, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(negocioID)).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) LockByIDsTx(tx *gorm.DB, negocioID uuid.UUID, ids []uuid.UUID) ([]model.Producto, error) {
	var list []model.Producto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(negocioID)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *productoRepo) SetStockTx(tx *gorm.DB, id uuid.UUID, stock int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).Update("stock", stock).Error
}
