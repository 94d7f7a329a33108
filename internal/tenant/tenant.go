// Package tenant carries the owning negocio (business) of a request and
// scopes every query to it.
package tenant

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey struct{}

// WithNegocio stores the negocio ID in ctx.
func WithNegocio(ctx context.Context, negocioID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, negocioID)
}

// FromContext returns the negocio ID stored by WithNegocio.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Scope restricts a query to rows owned by negocioID.
// Usage: db.Scopes(tenant.Scope(negocioID)).Find(&productos)
func Scope(negocioID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("negocio_id = ?", negocioID)
	}
}

// ScopeTable is Scope for queries that join several tenant tables.
func ScopeTable(table string, negocioID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".negocio_id = ?", negocioID)
	}
}
