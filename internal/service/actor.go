package service

import (
	"context"
	"fmt"
	"time"

	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
)

// cargarActor reloads the acting user so that permission checks use the
// current flags and limits, not the ones frozen in the token.
func cargarActor(ctx context.Context, repo repository.UsuarioRepository, negocioID, usuarioID uuid.UUID, permisos ...model.Permiso) (*model.Usuario, error) {
	u, err := repo.FindByID(ctx, negocioID, usuarioID)
	if err != nil {
		return nil, notFound(err, ErrUsuarioNoEncontrado)
	}
	if !u.Activo {
		return nil, ErrUsuarioInactivo
	}
	for _, p := range permisos {
		if !u.Permisos.Tiene(p) {
			return nil, fmt.Errorf("%w: %s", ErrSinPermiso, p)
		}
	}
	return u, nil
}

// resolverSucursal picks the branch of an operation: the explicit one, else
// the user's branch, else the negocio's principal branch.
func resolverSucursal(ctx context.Context, repo repository.NegocioRepository, negocioID uuid.UUID, explicita *string, u *model.Usuario) (uuid.UUID, error) {
	if explicita != nil && *explicita != "" {
		id, err := uuid.Parse(*explicita)
		if err != nil {
			return uuid.Nil, ErrSucursalNoEncontrada
		}
		if _, err := repo.FindSucursal(ctx, negocioID, id); err != nil {
			return uuid.Nil, notFound(err, ErrSucursalNoEncontrada)
		}
		return id, nil
	}
	if u != nil && u.SucursalID != nil {
		return *u.SucursalID, nil
	}
	s, err := repo.FindSucursalPrincipal(ctx, negocioID)
	if err != nil {
		return uuid.Nil, notFound(err, ErrSucursalNoEncontrada)
	}
	return s.ID, nil
}

// zonaHoraria returns the negocio's time zone, or fallback when it has no
// configuration.
func zonaHoraria(ctx context.Context, repo repository.NegocioRepository, negocioID uuid.UUID, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if repo == nil {
		return fallback
	}
	cfg, err := repo.FindConfiguracion(ctx, negocioID)
	if err != nil || cfg.ZonaHoraria == "" {
		return fallback
	}
	return cfg.Location()
}
