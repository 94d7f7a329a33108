package repository

import (
	"context"
	"time"

	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	CreateTx(tx *gorm.DB, u *model.Usuario) error
	// FindByUsername is not tenant scoped: it is the login lookup.
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Usuario, error)
	List(ctx context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]model.Usuario, error)
	Update(ctx context.Context, u *model.Usuario) error
	SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) CreateTx(tx *gorm.DB, u *model.Usuario) error {
	return tx.Create(u).Error
}

func (r *usuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	// Accept login by username OR email (case-insensitive email match)
	err := r.db.WithContext(ctx).
		Where("username = ? OR LOWER(email) = LOWER(?)", username, username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) FindByID(ctx context.Context, negocioID, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) List(ctx context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]model.Usuario, error) {
	var users []model.Usuario
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID))
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	err := q.Order("es_propietario DESC, nombre ASC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) SetActivo(ctx context.Context, negocioID, id uuid.UUID, activo bool) error {
	res := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Scopes(tenant.Scope(negocioID)).
		Where("id = ?", id).
		Update("activo", activo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── Sesiones ────────────────────────────────────────────────────────────────

// SesionRepository persists logged-in devices for the concurrent seat limit.
type SesionRepository interface {
	Create(ctx context.Context, s *model.SesionUsuario) error
	FindByKey(ctx context.Context, key string) (*model.SesionUsuario, error)
	// CountActivas counts active sessions of the negocio seen after desde.
	CountActivas(ctx context.Context, negocioID uuid.UUID, desde time.Time) (int64, error)
	ListActivas(ctx context.Context, negocioID uuid.UUID, desde time.Time) ([]model.SesionUsuario, error)
	Touch(ctx context.Context, key string, at time.Time) error
	Desactivar(ctx context.Context, key string) error
	DesactivarPorUsuario(ctx context.Context, usuarioID uuid.UUID) error
	// ExpirarInactivas closes sessions idle since before antes and returns
	// how many were closed.
	ExpirarInactivas(ctx context.Context, antes time.Time) (int64, error)
}

type sesionRepo struct{ db *gorm.DB }

func NewSesionRepository(db *gorm.DB) SesionRepository { return &sesionRepo{db: db} }

func (r *sesionRepo) Create(ctx context.Context, s *model.SesionUsuario) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sesionRepo) FindByKey(ctx context.Context, key string) (*model.SesionUsuario, error) {
	var s model.SesionUsuario
	err := r.db.WithContext(ctx).Where("session_key = ?", key).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sesionRepo) CountActivas(ctx context.Context, negocioID uuid.UUID, desde time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.SesionUsuario{}).
		Scopes(tenant.Scope(negocioID)).
		Where("activa = true AND ultima_actividad >= ?", desde).
		Count(&n).Error
	return n, err
}

func (r *sesionRepo) ListActivas(ctx context.Context, negocioID uuid.UUID, desde time.Time) ([]model.SesionUsuario, error) {
	var list []model.SesionUsuario
	err := r.db.WithContext(ctx).Scopes(tenant.Scope(negocioID)).
		Where("activa = true AND ultima_actividad >= ?", desde).
		Order("ultima_actividad DESC").
		Find(&list).Error
	return list, err
}

func (r *sesionRepo) Touch(ctx context.Context, key string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.SesionUsuario{}).
		Where("session_key = ? AND activa = true", key).
		Update("ultima_actividad", at).Error
}

func (r *sesionRepo) Desactivar(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Model(&model.SesionUsuario{}).
		Where("session_key = ?", key).
		Update("activa", false).Error
}

func (r *sesionRepo) DesactivarPorUsuario(ctx context.Context, usuarioID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.SesionUsuario{}).
		Where("usuario_id = ? AND activa = true", usuarioID).
		Update("activa", false).Error
}

func (r *sesionRepo) ExpirarInactivas(ctx context.Context, antes time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.SesionUsuario{}).
		Where("activa = true AND ultima_actividad < ?", antes).
		Update("activa", false)
	return res.RowsAffected, res.Error
}
