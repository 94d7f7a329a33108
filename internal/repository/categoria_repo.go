package repository

import (
	"context"

	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoriaRepository defines CRUD operations for Categoria.
type CategoriaRepository interface {
	Crear(ctx context.Context, c *model.Categoria) error
	Listar(ctx context.Context, negocioID uuid.UUID) ([]model.Categoria, error)
	ObtenerPorID(ctx context.Context, negocioID, id uuid.UUID) (*model.Categoria, error)
	ObtenerPorNombre(ctx context.Context, negocioID uuid.UUID, nombre string) (*model.Categoria, error)
	Actualizar(ctx context.Context, c *model.Categoria) error
	Desactivar(ctx context.Context, negocioID, id uuid.UUID) error
}

type categoriaRepository struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository {
	return &categoriaRepository{db: db}
}

func (r *categoriaRepository) Crear(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoriaRepository) Listar(ctx context.Context, negocioID uuid.UUID) ([]model.Categoria, error) {
	var list []model.Categoria
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *categoriaRepository) ObtenerPorID(ctx context.Context, negocioID, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepository) ObtenerPorNombre(ctx context.Context, negocioID uuid.UUID, nombre string) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("lower(nombre) = lower(?)", nombre).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepository) Actualizar(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoriaRepository) Desactivar(ctx context.Context, negocioID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Categoria{}).
		Scopes(tenant.Scope(negocioID)).
		Where("id = ?", id).
		Update("activa", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
