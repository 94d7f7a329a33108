package repository

import (
	"context"

	"dulceriapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProspectoRepository stores sales leads. Leads live outside any tenant.
type ProspectoRepository interface {
	Create(ctx context.Context, p *model.Prospecto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prospecto, error)
	FindByEmail(ctx context.Context, email string) (*model.Prospecto, error)
	List(ctx context.Context, estado string) ([]model.Prospecto, error)
	Update(ctx context.Context, p *model.Prospecto) error
	CreateLog(ctx context.Context, l *model.ProspectoLog) error

	LockByTokenTx(tx *gorm.DB, token uuid.UUID) (*model.Prospecto, error)
	UpdateTx(tx *gorm.DB, p *model.Prospecto) error
	CreateLogTx(tx *gorm.DB, l *model.ProspectoLog) error

	DB() *gorm.DB
}

type prospectoRepo struct{ db *gorm.DB }

func NewProspectoRepository(db *gorm.DB) ProspectoRepository { return &prospectoRepo{db: db} }

func (r *prospectoRepo) DB() *gorm.DB { return r.db }

func (r *prospectoRepo) Create(ctx context.Context, p *model.Prospecto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *prospectoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Prospecto, error) {
	var p model.Prospecto
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prospectoRepo) FindByEmail(ctx context.Context, email string) (*model.Prospecto, error) {
	var p model.Prospecto
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prospectoRepo) List(ctx context.Context, estado string) ([]model.Prospecto, error) {
	var list []model.Prospecto
	q := r.db.WithContext(ctx)
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *prospectoRepo) Update(ctx context.Context, p *model.Prospecto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *prospectoRepo) CreateLog(ctx context.Context, l *model.ProspectoLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *prospectoRepo) LockByTokenTx(tx *gorm.DB, token uuid.UUID) (*model.Prospecto, error) {
	var p model.Prospecto
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_registro = ?", token).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prospectoRepo) UpdateTx(tx *gorm.DB, p *model.Prospecto) error {
	return tx.Save(p).Error
}

func (r *prospectoRepo) CreateLogTx(tx *gorm.DB, l *model.ProspectoLog) error {
	return tx.Create(l).Error
}
