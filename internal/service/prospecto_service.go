package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// tokenRegistroVigencia is how long a registration link stays valid.
const tokenRegistroVigencia = 72 * time.Hour

// ProspectoService drives the sales funnel from web lead to paying negocio.
type ProspectoService interface {
	Crear(ctx context.Context, req dto.CrearProspectoRequest) (*dto.ProspectoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProspectoResponse, error)
	Listar(ctx context.Context, filter dto.ProspectoFilter) ([]dto.ProspectoResponse, error)
	Avanzar(ctx context.Context, id uuid.UUID, req dto.AvanzarProspectoRequest, por string) (*dto.ProspectoResponse, error)
	CompletarRegistro(ctx context.Context, token uuid.UUID, req dto.RegistrarNegocioRequest) (*dto.NegocioResponse, error)
}

type prospectoService struct {
	repo     repository.ProspectoRepository
	negocios NegocioService
	jobs     Encolador
	now      func() time.Time
}

func NewProspectoService(repo repository.ProspectoRepository, negocios NegocioService, jobs Encolador) ProspectoService {
	return &prospectoService{repo: repo, negocios: negocios, jobs: jobs, now: time.Now}
}

func (s *prospectoService) Crear(ctx context.Context, req dto.CrearProspectoRequest) (*dto.ProspectoResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrProspectoDuplicado
	}
	origen := req.Origen
	if origen == "" {
		origen = "formulario_web"
	}
	p := &model.Prospecto{
		NombreCompleto: strings.TrimSpace(req.NombreCompleto),
		Email:          email,
		Telefono:       strings.TrimSpace(req.Telefono),
		Ciudad:         strings.TrimSpace(req.Ciudad),
		Estado:         model.ProspectoNuevo,
		Origen:         origen,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, duplicated(err, ErrProspectoDuplicado)
	}
	s.registrarLog(ctx, p.ID, "creado", "Prospecto registrado desde "+origen, nil)
	log.Info().Str("prospecto_id", p.ID.String()).Str("ciudad", p.Ciudad).Msg("prospecto creado")
	return prospectoToResponse(p), nil
}

func (s *prospectoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProspectoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProspectoNoEncontrado)
	}
	return prospectoToResponse(p), nil
}

func (s *prospectoService) Listar(ctx context.Context, filter dto.ProspectoFilter) ([]dto.ProspectoResponse, error) {
	list, err := s.repo.List(ctx, filter.Estado)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProspectoResponse, len(list))
	for i := range list {
		out[i] = *prospectoToResponse(&list[i])
	}
	return out, nil
}

// indiceFlujo returns the position of e in the funnel, -1 when e is an
// exit state.
func indiceFlujo(e model.EstadoProspecto) int {
	for i, f := range model.FlujoProspecto {
		if f == e {
			return i
		}
	}
	return -1
}

func terminal(e model.EstadoProspecto) bool {
	return e == model.ProspectoActivo || e == model.ProspectoVencido || e == model.ProspectoCancelado
}

// transicionValida: forward jumps along the funnel, or an exit from any
// non-terminal state.
func transicionValida(from, to model.EstadoProspecto) bool {
	if terminal(from) || from == to {
		return false
	}
	if to == model.ProspectoVencido || to == model.ProspectoCancelado {
		return true
	}
	i, j := indiceFlujo(from), indiceFlujo(to)
	return i >= 0 && j > i
}

func (s *prospectoService) Avanzar(ctx context.Context, id uuid.UUID, req dto.AvanzarProspectoRequest, por string) (*dto.ProspectoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProspectoNoEncontrado)
	}
	destino := model.EstadoProspecto(req.Estado)
	if destino == "" {
		destino = p.Siguiente()
	}
	if destino == "" || !transicionValida(p.Estado, destino) {
		return nil, fmt.Errorf("%w: %s → %s", ErrTransicionInvalida, p.Estado, destino)
	}

	anterior := p.Estado
	now := s.now()
	p.Estado = destino
	s.marcarTiempo(p, destino, now)
	if destino == model.ProspectoPagoCompletado && p.TokenRegistro == nil {
		token := uuid.New()
		expira := now.Add(tokenRegistroVigencia)
		p.TokenRegistro = &token
		p.TokenExpira = &expira
	}
	if notas := strings.TrimSpace(req.Notas); notas != "" {
		if p.Notas != "" {
			p.Notas += "\n"
		}
		p.Notas += notas
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	var creadoPor *string
	if por != "" {
		creadoPor = &por
	}
	s.registrarLog(ctx, p.ID, "cambio_estado", fmt.Sprintf("%s → %s", anterior, destino), creadoPor)
	if destino == model.ProspectoLinkEnviado {
		s.enviarLink(ctx, p)
	}
	log.Info().
		Str("prospecto_id", p.ID.String()).
		Str("de", string(anterior)).
		Str("a", string(destino)).
		Msg("prospecto avanzado")
	return prospectoToResponse(p), nil
}

// CompletarRegistro turns a paid lead into a negocio. The token row stays
// locked until the negocio is created, so a link can only be used once.
func (s *prospectoService) CompletarRegistro(ctx context.Context, token uuid.UUID, req dto.RegistrarNegocioRequest) (*dto.NegocioResponse, error) {
	var resp *dto.NegocioResponse
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.LockByTokenTx(tx, token)
		if err != nil {
			return notFound(err, ErrTokenRegistroInvalido)
		}
		now := s.now()
		if !p.TokenValido(now) {
			return ErrTokenRegistroInvalido
		}
		if req.Email == "" {
			req.Email = p.Email
		}

		resp, err = s.negocios.RegistrarTx(ctx, tx, req)
		if err != nil {
			return err
		}
		negocioID, err := uuid.Parse(resp.ID)
		if err != nil {
			return err
		}
		p.TokenUsado = true
		p.TokenUsadoAt = &now
		p.NegocioID = &negocioID
		p.Estado = model.ProspectoRegistroCompleto
		p.RegistroCompletoAt = &now
		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}
		return s.repo.CreateLogTx(tx, &model.ProspectoLog{
			ProspectoID: p.ID,
			Accion:      "registro_completo",
			Descripcion: "Negocio registrado: " + resp.Nombre,
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *prospectoService) marcarTiempo(p *model.Prospecto, e model.EstadoProspecto, now time.Time) {
	t := now
	switch e {
	case model.ProspectoMensajeEnviado:
		p.MensajeEnviadoAt = &t
	case model.ProspectoContactado:
		p.ContactadoAt = &t
	case model.ProspectoPagoPendiente:
		p.PagoPendienteAt = &t
	case model.ProspectoPagoCompletado:
		p.PagoCompletadoAt = &t
	case model.ProspectoLinkEnviado:
		p.LinkEnviadoAt = &t
	case model.ProspectoRegistroCompleto:
		p.RegistroCompletoAt = &t
	}
}

func (s *prospectoService) enviarLink(ctx context.Context, p *model.Prospecto) {
	if s.jobs == nil || p.TokenRegistro == nil {
		return
	}
	body := fmt.Sprintf(
		"Hola %s,\n\nTu pago fue confirmado. Usa este código para registrar tu negocio:\n\n%s\n\nEl código vence el %s.\n",
		p.NombreCompleto, p.TokenRegistro.String(), p.TokenExpira.Format("02/01/2006 15:04"),
	)
	err := s.jobs.EncolarEmail(ctx, dto.EmailJobPayload{
		To:      p.Email,
		Subject: "Registro de tu negocio",
		Body:    body,
	})
	if err != nil {
		log.Warn().Err(err).Str("prospecto_id", p.ID.String()).Msg("prospecto: no se pudo encolar el link de registro")
	}
}

func (s *prospectoService) registrarLog(ctx context.Context, id uuid.UUID, accion, descripcion string, por *string) {
	l := &model.ProspectoLog{ProspectoID: id, Accion: accion, Descripcion: descripcion, CreadoPor: por}
	if err := s.repo.CreateLog(ctx, l); err != nil {
		log.Warn().Err(err).Str("prospecto_id", id.String()).Msg("prospecto: no se pudo registrar el log")
	}
}

func prospectoToResponse(p *model.Prospecto) *dto.ProspectoResponse {
	resp := &dto.ProspectoResponse{
		ID:             p.ID.String(),
		NombreCompleto: p.NombreCompleto,
		Email:          p.Email,
		Telefono:       p.Telefono,
		Ciudad:         p.Ciudad,
		Estado:         string(p.Estado),
		Progreso:       p.Progreso(),
		Origen:         p.Origen,
		Notas:          p.Notas,
		TokenRegistro:  uuidPtrString(p.TokenRegistro),
		TokenExpira:    formatTimePtr(p.TokenExpira),
		TokenUsado:     p.TokenUsado,
		NegocioID:      uuidPtrString(p.NegocioID),
		CreatedAt:      formatTime(p.CreatedAt),
	}
	return resp
}
