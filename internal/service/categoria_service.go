package service

import (
	"context"
	"errors"
	"strings"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoriaService defines business operations for product categories.
type CategoriaService interface {
	Crear(ctx context.Context, negocioID uuid.UUID, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error)
	Listar(ctx context.Context, negocioID uuid.UUID) ([]dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, negocioID, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, negocioID, id uuid.UUID) error
}

type categoriaService struct {
	repo repository.CategoriaRepository
}

func NewCategoriaService(repo repository.CategoriaRepository) CategoriaService {
	return &categoriaService{repo: repo}
}

// mapCategoria converts a model to a DTO response.
func mapCategoria(c model.Categoria) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Activa:      c.Activa,
	}
}

func (s *categoriaService) Crear(ctx context.Context, negocioID uuid.UUID, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	existing, err := s.repo.ObtenerPorNombre(ctx, negocioID, nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CategoriaResponse{}, err
	}
	if existing != nil {
		return dto.CategoriaResponse{}, ErrCategoriaDuplicada
	}

	c := &model.Categoria{
		NegocioID:   negocioID,
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		Activa:      true,
	}
	if err := s.repo.Crear(ctx, c); err != nil {
		return dto.CategoriaResponse{}, duplicated(err, ErrCategoriaDuplicada)
	}
	return mapCategoria(*c), nil
}

func (s *categoriaService) Listar(ctx context.Context, negocioID uuid.UUID) ([]dto.CategoriaResponse, error) {
	list, err := s.repo.Listar(ctx, negocioID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategoria(c))
	}
	return result, nil
}

func (s *categoriaService) Actualizar(ctx context.Context, negocioID, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error) {
	c, err := s.repo.ObtenerPorID(ctx, negocioID, id)
	if err != nil {
		return dto.CategoriaResponse{}, notFound(err, ErrCategoriaNoEncontrada)
	}

	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		// Check uniqueness if name is changing
		if !strings.EqualFold(nombre, c.Nombre) {
			existing, err := s.repo.ObtenerPorNombre(ctx, negocioID, nombre)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CategoriaResponse{}, err
			}
			if existing != nil && existing.ID != id {
				return dto.CategoriaResponse{}, ErrCategoriaDuplicada
			}
		}
		c.Nombre = nombre
	}
	if req.Descripcion != nil {
		c.Descripcion = req.Descripcion
	}
	if req.Activa != nil {
		c.Activa = *req.Activa
	}

	if err := s.repo.Actualizar(ctx, c); err != nil {
		return dto.CategoriaResponse{}, duplicated(err, ErrCategoriaDuplicada)
	}
	return mapCategoria(*c), nil
}

func (s *categoriaService) Desactivar(ctx context.Context, negocioID, id uuid.UUID) error {
	return notFound(s.repo.Desactivar(ctx, negocioID, id), ErrCategoriaNoEncontrada)
}
