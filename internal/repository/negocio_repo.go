package repository

import (
	"context"

	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NegocioRepository owns the tenant rows: negocio, its configuration and
// its branches.
type NegocioRepository interface {
	CreateTx(tx *gorm.DB, n *model.Negocio) error
	CreateConfiguracionTx(tx *gorm.DB, c *model.ConfiguracionNegocio) error
	CreateSucursalTx(tx *gorm.DB, s *model.Sucursal) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Negocio, error)
	// ExisteNombreOEmail is a case-insensitive duplicate check across tenants.
	ExisteNombreOEmail(ctx context.Context, nombre, email string) (bool, error)
	// ListConReporteDiario returns active negocios that asked for the daily
	// report mail.
	ListConReporteDiario(ctx context.Context) ([]model.Negocio, error)
	// ListTodos returns every negocio, active or not, ordered by creation.
	ListTodos(ctx context.Context) ([]model.Negocio, error)

	FindConfiguracion(ctx context.Context, negocioID uuid.UUID) (*model.ConfiguracionNegocio, error)
	UpdateConfiguracion(ctx context.Context, c *model.ConfiguracionNegocio) error

	ListSucursales(ctx context.Context, negocioID uuid.UUID) ([]model.Sucursal, error)
	FindSucursal(ctx context.Context, negocioID, id uuid.UUID) (*model.Sucursal, error)
	FindSucursalPrincipal(ctx context.Context, negocioID uuid.UUID) (*model.Sucursal, error)
	CreateSucursal(ctx context.Context, s *model.Sucursal) error
	UpdateSucursal(ctx context.Context, s *model.Sucursal) error

	DB() *gorm.DB
}

type negocioRepo struct{ db *gorm.DB }

func NewNegocioRepository(db *gorm.DB) NegocioRepository { return &negocioRepo{db: db} }

func (r *negocioRepo) DB() *gorm.DB { return r.db }

func (r *negocioRepo) CreateTx(tx *gorm.DB, n *model.Negocio) error {
	return tx.Create(n).Error
}

func (r *negocioRepo) CreateConfiguracionTx(tx *gorm.DB, c *model.ConfiguracionNegocio) error {
	return tx.Create(c).Error
}

func (r *negocioRepo) CreateSucursalTx(tx *gorm.DB, s *model.Sucursal) error {
	return tx.Create(s).Error
}

func (r *negocioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Negocio, error) {
	var n model.Negocio
	err := r.db.WithContext(ctx).Preload("Configuracion").First(&n, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *negocioRepo) ExisteNombreOEmail(ctx context.Context, nombre, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Negocio{}).
		Where("LOWER(nombre) = LOWER(?) OR LOWER(email) = LOWER(?)", nombre, email).
		Count(&n).Error
	return n > 0, err
}

func (r *negocioRepo) ListConReporteDiario(ctx context.Context) ([]model.Negocio, error) {
	var list []model.Negocio
	err := r.db.WithContext(ctx).
		Joins("JOIN configuraciones_negocio c ON c.negocio_id = negocios.id").
		Where("negocios.suscripcion_activa = true AND c.enviar_reporte_diario = true").
		Preload("Configuracion").
		Find(&list).Error
	return list, err
}

func (r *negocioRepo) ListTodos(ctx context.Context) ([]model.Negocio, error) {
	var list []model.Negocio
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *negocioRepo) FindConfiguracion(ctx context.Context, negocioID uuid.UUID) (*model.ConfiguracionNegocio, error) {
	var c model.ConfiguracionNegocio
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *negocioRepo) UpdateConfiguracion(ctx context.Context, c *model.ConfiguracionNegocio) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *negocioRepo) ListSucursales(ctx context.Context, negocioID uuid.UUID) ([]model.Sucursal, error) {
	var list []model.Sucursal
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Order("es_principal DESC, nombre ASC").Find(&list).Error
	return list, err
}

func (r *negocioRepo) FindSucursal(ctx context.Context, negocioID, id uuid.UUID) (*model.Sucursal, error) {
	var s model.Sucursal
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *negocioRepo) FindSucursalPrincipal(ctx context.Context, negocioID uuid.UUID) (*model.Sucursal, error) {
	var s model.Sucursal
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("activa = true").
		Order("es_principal DESC, created_at ASC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *negocioRepo) CreateSucursal(ctx context.Context, s *model.Sucursal) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *negocioRepo) UpdateSucursal(ctx context.Context, s *model.Sucursal) error {
	return r.db.WithContext(ctx).Save(s).Error
}
