package service

import (
	"context"
	"strings"
	"time"

	"dulceriapos/internal/config"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// UsuarioService manages the staff of one negocio. Every mutation requires
// the gestionar_usuarios capability on the acting user.
type UsuarioService interface {
	Crear(ctx context.Context, negocioID, actor uuid.UUID, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Listar(ctx context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	Obtener(ctx context.Context, negocioID, id uuid.UUID) (*dto.UsuarioResponse, error)
	Actualizar(ctx context.Context, negocioID, actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	Desactivar(ctx context.Context, negocioID, actor, id uuid.UUID) error
	Reactivar(ctx context.Context, negocioID, actor, id uuid.UUID) error
	SesionesActivas(ctx context.Context, negocioID uuid.UUID) (*dto.SesionesActivasResponse, error)
	// CerrarSesiones logs another user out of every device.
	CerrarSesiones(ctx context.Context, negocioID, actor, id uuid.UUID) error
}

type usuarioService struct {
	repo        repository.UsuarioRepository
	sesiones    repository.SesionRepository
	negocioRepo repository.NegocioRepository
	cfg         *config.Config
	now         func() time.Time
}

func NewUsuarioService(
	repo repository.UsuarioRepository,
	sesiones repository.SesionRepository,
	negocioRepo repository.NegocioRepository,
	cfg *config.Config,
) UsuarioService {
	return &usuarioService{repo: repo, sesiones: sesiones, negocioRepo: negocioRepo, cfg: cfg, now: time.Now}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// aplicarPermisos overlays the non-nil fields of req on p.
func aplicarPermisos(p *model.Permisos, req *dto.PermisosRequest) {
	if req == nil {
		return
	}
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.AccesoPOS, req.AccesoPOS)
	set(&p.AccesoInventario, req.AccesoInventario)
	set(&p.AccesoReportes, req.AccesoReportes)
	set(&p.AccesoConfiguracion, req.AccesoConfiguracion)
	set(&p.AgregarProductos, req.AgregarProductos)
	set(&p.EditarProductos, req.EditarProductos)
	set(&p.EliminarProductos, req.EliminarProductos)
	set(&p.AjustarStock, req.AjustarStock)
	set(&p.ProcesarVentas, req.ProcesarVentas)
	set(&p.AplicarDescuentos, req.AplicarDescuentos)
	set(&p.CancelarVentas, req.CancelarVentas)
	set(&p.AccesoCaja, req.AccesoCaja)
	set(&p.GestionarUsuarios, req.GestionarUsuarios)
	set(&p.VerReportesFinancieros, req.VerReportesFinancieros)
	set(&p.RespaldarDatos, req.RespaldarDatos)
	if req.MontoMaximoVenta != nil {
		m := *req.MontoMaximoVenta
		p.MontoMaximoVenta = &m
	}
	if req.DescuentoMaximoPct != nil {
		p.DescuentoMaximoPct = *req.DescuentoMaximoPct
	}
	if req.TimeoutSesionMinutos != nil {
		p.TimeoutSesionMinutos = *req.TimeoutSesionMinutos
	}
}

func (s *usuarioService) Crear(ctx context.Context, negocioID, actor uuid.UUID, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	if _, err := cargarActor(ctx, s.repo, negocioID, actor, model.PermisoGestionarUsuarios); err != nil {
		return nil, err
	}
	sucursalID, err := s.sucursalOpcional(ctx, negocioID, req.SucursalID)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	permisos := model.PermisosEmpleado()
	if req.EsPropietario {
		permisos = model.PermisosPropietario()
	}
	aplicarPermisos(&permisos, req.Permisos)

	user := &model.Usuario{
		NegocioID:     negocioID,
		SucursalID:    sucursalID,
		Username:      strings.TrimSpace(req.Username),
		Nombre:        strings.TrimSpace(req.Nombre),
		Email:         req.Email,
		PasswordHash:  hash,
		EsPropietario: req.EsPropietario,
		Activo:        true,
		Permisos:      permisos,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, duplicated(err, ErrUsernameDuplicado)
	}
	log.Info().
		Str("negocio_id", negocioID.String()).
		Str("username", user.Username).
		Bool("propietario", user.EsPropietario).
		Msg("usuario creado")
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *usuarioService) Listar(ctx context.Context, negocioID uuid.UUID, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, negocioID, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *usuarioService) Obtener(ctx context.Context, negocioID, id uuid.UUID) (*dto.UsuarioResponse, error) {
	u, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrUsuarioNoEncontrado)
	}
	resp := usuarioToResponse(u)
	return &resp, nil
}

func (s *usuarioService) Actualizar(ctx context.Context, negocioID, actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	if _, err := cargarActor(ctx, s.repo, negocioID, actor, model.PermisoGestionarUsuarios); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, negocioID, id)
	if err != nil {
		return nil, notFound(err, ErrUsuarioNoEncontrado)
	}
	if req.Nombre != "" {
		user.Nombre = strings.TrimSpace(req.Nombre)
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.SucursalID != nil {
		sid, err := s.sucursalOpcional(ctx, negocioID, req.SucursalID)
		if err != nil {
			return nil, err
		}
		user.SucursalID = sid
	}
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	aplicarPermisos(&user.Permisos, req.Permisos)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *usuarioService) Desactivar(ctx context.Context, negocioID, actor, id uuid.UUID) error {
	if _, err := cargarActor(ctx, s.repo, negocioID, actor, model.PermisoGestionarUsuarios); err != nil {
		return err
	}
	if actor == id {
		return ErrOperacionPropia
	}
	if err := s.repo.SetActivo(ctx, negocioID, id, false); err != nil {
		return notFound(err, ErrUsuarioNoEncontrado)
	}
	return s.sesiones.DesactivarPorUsuario(ctx, id)
}

func (s *usuarioService) Reactivar(ctx context.Context, negocioID, actor, id uuid.UUID) error {
	if _, err := cargarActor(ctx, s.repo, negocioID, actor, model.PermisoGestionarUsuarios); err != nil {
		return err
	}
	return notFound(s.repo.SetActivo(ctx, negocioID, id, true), ErrUsuarioNoEncontrado)
}

func (s *usuarioService) SesionesActivas(ctx context.Context, negocioID uuid.UUID) (*dto.SesionesActivasResponse, error) {
	negocio, err := s.negocioRepo.FindByID(ctx, negocioID)
	if err != nil {
		return nil, notFound(err, ErrNegocioNoEncontrado)
	}
	sesiones, err := s.sesiones.ListActivas(ctx, negocioID, s.now().Add(-s.cfg.SessionWindow()))
	if err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, negocioID, true)
	if err != nil {
		return nil, err
	}
	porID := make(map[uuid.UUID]*model.Usuario, len(users))
	for i := range users {
		porID[users[i].ID] = &users[i]
	}

	data := make([]dto.SesionActivaResponse, 0, len(sesiones))
	for _, ses := range sesiones {
		item := dto.SesionActivaResponse{
			UsuarioID:       ses.UsuarioID.String(),
			IPAddress:       ses.IPAddress,
			UserAgent:       ses.UserAgent,
			Desde:           formatTime(ses.CreatedAt),
			UltimaActividad: formatTime(ses.UltimaActividad),
		}
		if u, ok := porID[ses.UsuarioID]; ok {
			item.Username = u.Username
			item.Nombre = u.Nombre
		}
		data = append(data, item)
	}
	return &dto.SesionesActivasResponse{
		Data:            data,
		TotalConectados: len(data),
		LimiteUsuarios:  negocio.MaxUsuariosConcurrentes,
	}, nil
}

func (s *usuarioService) CerrarSesiones(ctx context.Context, negocioID, actor, id uuid.UUID) error {
	if _, err := cargarActor(ctx, s.repo, negocioID, actor, model.PermisoGestionarUsuarios); err != nil {
		return err
	}
	if actor == id {
		return ErrOperacionPropia
	}
	if _, err := s.repo.FindByID(ctx, negocioID, id); err != nil {
		return notFound(err, ErrUsuarioNoEncontrado)
	}
	return s.sesiones.DesactivarPorUsuario(ctx, id)
}

func (s *usuarioService) sucursalOpcional(ctx context.Context, negocioID uuid.UUID, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, ErrSucursalNoEncontrada
	}
	if _, err := s.negocioRepo.FindSucursal(ctx, negocioID, id); err != nil {
		return nil, notFound(err, ErrSucursalNoEncontrada)
	}
	return &id, nil
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:            u.ID.String(),
		NegocioID:     u.NegocioID.String(),
		SucursalID:    uuidPtrString(u.SucursalID),
		Username:      u.Username,
		Nombre:        u.Nombre,
		Email:         u.Email,
		EsPropietario: u.EsPropietario,
		Activo:        u.Activo,
		Permisos:      u.Permisos,
	}
}
