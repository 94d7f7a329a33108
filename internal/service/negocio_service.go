package service

import (
	"context"
	"strings"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	planBasico            = "basico"
	usuariosPorDefecto    = 2
	zonaHorariaPorDefecto = "America/Mexico_City"
)

// costoPorUsuario is the monthly price of one concurrent seat.
var costoPorUsuario = decimal.NewFromInt(200)

type NegocioService interface {
	Registrar(ctx context.Context, req dto.RegistrarNegocioRequest) (*dto.NegocioResponse, error)
	// RegistrarTx runs the registration inside the caller's transaction.
	RegistrarTx(ctx context.Context, tx *gorm.DB, req dto.RegistrarNegocioRequest) (*dto.NegocioResponse, error)
	Obtener(ctx context.Context, negocioID uuid.UUID) (*dto.NegocioResponse, error)
	ObtenerConfiguracion(ctx context.Context, negocioID uuid.UUID) (*dto.ConfiguracionResponse, error)
	ActualizarConfiguracion(ctx context.Context, negocioID uuid.UUID, req dto.ActualizarConfiguracionRequest) (*dto.ConfiguracionResponse, error)
	ListarSucursales(ctx context.Context, negocioID uuid.UUID) ([]dto.SucursalResponse, error)
	CrearSucursal(ctx context.Context, negocioID uuid.UUID, req dto.SucursalRequest) (*dto.SucursalResponse, error)
	ActualizarSucursal(ctx context.Context, negocioID, id uuid.UUID, req dto.SucursalRequest) (*dto.SucursalResponse, error)
}

type negocioService struct {
	repo        repository.NegocioRepository
	usuarioRepo repository.UsuarioRepository
}

func NewNegocioService(repo repository.NegocioRepository, usuarioRepo repository.UsuarioRepository) NegocioService {
	return &negocioService{repo: repo, usuarioRepo: usuarioRepo}
}

func (s *negocioService) Registrar(ctx context.Context, req dto.RegistrarNegocioRequest) (*dto.NegocioResponse, error) {
	var resp *dto.NegocioResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		resp, err = s.RegistrarTx(ctx, tx, req)
		return err
	})
	return resp, err
}

// RegistrarTx creates negocio, configuración, sucursal principal and the
// owner account. Any failure rolls back all four.
func (s *negocioService) RegistrarTx(ctx context.Context, tx *gorm.DB, req dto.RegistrarNegocioRequest) (*dto.NegocioResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existe, err := s.repo.ExisteNombreOEmail(ctx, nombre, email)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, ErrNegocioDuplicado
	}
	hash, err := hashPassword(req.PropietarioPassword)
	if err != nil {
		return nil, err
	}

	plan := req.Plan
	if plan == "" {
		plan = planBasico
	}
	usuarios := req.MaxUsuariosConcurrentes
	if usuarios <= 0 {
		usuarios = usuariosPorDefecto
	}
	negocio := &model.Negocio{
		Nombre:                  nombre,
		Email:                   email,
		Telefono:                req.Telefono,
		Direccion:               req.Direccion,
		MaxUsuariosConcurrentes: usuarios,
		SuscripcionActiva:       true,
		Plan:                    plan,
		CostoMensual:            costoPorUsuario.Mul(decimal.NewFromInt(int64(usuarios))),
	}
	cfg := &model.ConfiguracionNegocio{
		SimboloMoneda:       "$",
		ZonaHoraria:         zonaHorariaPorDefecto,
		UmbralStockBajo:     5,
		MostrarAlertasStock: true,
	}
	sucursalNombre := strings.TrimSpace(req.SucursalNombre)
	if sucursalNombre == "" {
		sucursalNombre = "Principal"
	}
	sucursal := &model.Sucursal{
		Nombre:      sucursalNombre,
		Direccion:   req.Direccion,
		Telefono:    req.Telefono,
		Encargado:   req.PropietarioNombre,
		Activa:      true,
		EsPrincipal: true,
	}
	owner := &model.Usuario{
		Username:      strings.TrimSpace(req.PropietarioUsername),
		Nombre:        strings.TrimSpace(req.PropietarioNombre),
		Email:         req.PropietarioEmail,
		PasswordHash:  hash,
		EsPropietario: true,
		Activo:        true,
		Permisos:      model.PermisosPropietario(),
	}

	if err := s.repo.CreateTx(tx, negocio); err != nil {
		return nil, err
	}
	cfg.NegocioID = negocio.ID
	sucursal.NegocioID = negocio.ID
	owner.NegocioID = negocio.ID
	if err := s.repo.CreateConfiguracionTx(tx, cfg); err != nil {
		return nil, err
	}
	if err := s.repo.CreateSucursalTx(tx, sucursal); err != nil {
		return nil, err
	}
	owner.SucursalID = &sucursal.ID
	if err := s.usuarioRepo.CreateTx(tx, owner); err != nil {
		return nil, duplicated(err, ErrUsernameDuplicado)
	}

	log.Info().
		Str("negocio_id", negocio.ID.String()).
		Str("nombre", negocio.Nombre).
		Str("plan", negocio.Plan).
		Int("usuarios", negocio.MaxUsuariosConcurrentes).
		Msg("negocio registrado")

	resp := negocioToResponse(negocio)
	c := configuracionToResponse(cfg)
	suc := sucursalToResponse(sucursal)
	u := usuarioToResponse(owner)
	resp.Configuracion = &c
	resp.SucursalPrincipal = &suc
	resp.Propietario = &u
	return resp, nil
}

func (s *negocioService) Obtener(ctx context.Context, negocioID uuid.UUID) (*dto.NegocioResponse, error) {
	n, err := s.repo.FindByID(ctx, negocioID)
	if err != nil {
		return nil, notFound(err, ErrNegocioNoEncontrado)
	}
	resp := negocioToResponse(n)
	if n.Configuracion != nil {
		c := configuracionToResponse(n.Configuracion)
		resp.Configuracion = &c
	}
	if p, err := s.repo.FindSucursalPrincipal(ctx, negocioID); err == nil {
		suc := sucursalToResponse(p)
		resp.SucursalPrincipal = &suc
	}
	return resp, nil
}

func (s *negocioService) ObtenerConfiguracion(ctx context.Context, negocioID uuid.UUID) (*dto.ConfiguracionResponse, error) {
	c, err := s.repo.FindConfiguracion(ctx, negocioID)
	if err != nil {
		return nil, notFound(err, ErrNegocioNoEncontrado)
	}
	resp := configuracionToResponse(c)
	return &resp, nil
}

func (s *negocioService) ActualizarConfiguracion(ctx context.Context, negocioID uuid.UUID, req dto.ActualizarConfiguracionRequest) (*dto.ConfiguracionResponse, error) {
	c, err := s.repo.FindConfiguracion(ctx, negocioID)
	if err != nil {
		return nil, notFound(err, ErrNegocioNoEncontrado)
	}
	if req.SimboloMoneda != nil {
		c.SimboloMoneda = *req.SimboloMoneda
	}
	if req.ZonaHoraria != nil {
		c.ZonaHoraria = *req.ZonaHoraria
	}
	if req.UmbralStockBajo != nil {
		c.UmbralStockBajo = *req.UmbralStockBajo
	}
	if req.MostrarAlertasStock != nil {
		c.MostrarAlertasStock = *req.MostrarAlertasStock
	}
	if req.EnviarReporteDiario != nil {
		c.EnviarReporteDiario = *req.EnviarReporteDiario
	}
	if req.EmailReporte != nil {
		c.EmailReporte = strings.TrimSpace(*req.EmailReporte)
	}
	if err := s.repo.UpdateConfiguracion(ctx, c); err != nil {
		return nil, err
	}
	resp := configuracionToResponse(c)
	return &resp, nil
}

func (s *negocioService) ListarSucursales(ctx context.Context, negocioID uuid.UUID) ([]dto.SucursalResponse, error) {
	list, err := s.repo.ListSucursales(ctx, negocioID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SucursalResponse, len(list))
	for i := range list {
		out[i] = sucursalToResponse(&list[i])
	}
	return out, nil
}

func (s *negocioService) CrearSucursal(ctx context.Context, negocioID uuid.UUID, req dto.SucursalRequest) (*dto.SucursalResponse, error) {
	suc := &model.Sucursal{
		NegocioID: negocioID,
		Nombre:    strings.TrimSpace(req.Nombre),
		Direccion: req.Direccion,
		Telefono:  req.Telefono,
		Encargado: req.Encargado,
		Activa:    true,
	}
	if req.Activa != nil {
		suc.Activa = *req.Activa
	}
	if err := s.repo.CreateSucursal(ctx, suc); err != nil {
		return nil, duplicated(err, ErrSucursalDuplicada)
	}
	resp := sucursalToResponse(suc)
	return &resp, nil
}

func (s *negocioService) ActualizarSucursal(ctx context.Context, negocioID, id uuid.UUID, req dto.SucursalRequest) (*dto.SucursalResponse, error) {
	suc, err := s.repo.FindSucursal(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrSucursalNoEncontrada)
	}
	suc.Nombre = strings.TrimSpace(req.Nombre)
	suc.Direccion = req.Direccion
	suc.Telefono = req.Telefono
	suc.Encargado = req.Encargado
	if req.Activa != nil {
		suc.Activa = *req.Activa
	}
	if err := s.repo.UpdateSucursal(ctx, suc); err != nil {
		return nil, duplicated(err, ErrSucursalDuplicada)
	}
	resp := sucursalToResponse(suc)
	return &resp, nil
}

func negocioToResponse(n *model.Negocio) *dto.NegocioResponse {
	return &dto.NegocioResponse{
		ID:                      n.ID.String(),
		Nombre:                  n.Nombre,
		Email:                   n.Email,
		Plan:                    n.Plan,
		MaxUsuariosConcurrentes: n.MaxUsuariosConcurrentes,
		SuscripcionActiva:       n.SuscripcionActiva,
	}
}

func configuracionToResponse(c *model.ConfiguracionNegocio) dto.ConfiguracionResponse {
	return dto.ConfiguracionResponse{
		SimboloMoneda:       c.SimboloMoneda,
		ZonaHoraria:         c.ZonaHoraria,
		UmbralStockBajo:     c.UmbralStockBajo,
		MostrarAlertasStock: c.MostrarAlertasStock,
		EnviarReporteDiario: c.EnviarReporteDiario,
		EmailReporte:        c.EmailReporte,
	}
}

func sucursalToResponse(s *model.Sucursal) dto.SucursalResponse {
	return dto.SucursalResponse{
		ID:          s.ID.String(),
		Nombre:      s.Nombre,
		Direccion:   s.Direccion,
		Telefono:    s.Telefono,
		Encargado:   s.Encargado,
		Activa:      s.Activa,
		EsPrincipal: s.EsPrincipal,
	}
}
