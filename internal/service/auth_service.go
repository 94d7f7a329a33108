package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dulceriapos/internal/config"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/model"
	"dulceriapos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token types carried in the "token_type" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// touchIntervalo throttles ultima_actividad writes per session.
const touchIntervalo = time.Minute

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionKey string) error
	// ValidarSesion rejects closed sessions and sessions idle longer than the
	// seat window, then records activity (at most once per minute).
	ValidarSesion(ctx context.Context, sessionKey string) error
}

type authService struct {
	repo        repository.UsuarioRepository
	sesiones    repository.SesionRepository
	negocioRepo repository.NegocioRepository
	rdb         *redis.Client
	cfg         *config.Config
	now         func() time.Time
}

// NewAuthService wires the auth flow. rdb may be nil; session touches are
// then written on every request.
func NewAuthService(
	repo repository.UsuarioRepository,
	sesiones repository.SesionRepository,
	negocioRepo repository.NegocioRepository,
	rdb *redis.Client,
	cfg *config.Config,
) AuthService {
	return &authService{
		repo:        repo,
		sesiones:    sesiones,
		negocioRepo: negocioRepo,
		rdb:         rdb,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrCredencialesInvalidas
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredencialesInvalidas
	}
	if !user.Activo {
		return nil, ErrUsuarioInactivo
	}
	negocio, err := s.negocioRepo.FindByID(ctx, user.NegocioID)
	if err != nil {
		return nil, notFound(err, ErrNegocioNoEncontrado)
	}
	if !negocio.SuscripcionActiva {
		return nil, ErrSuscripcionInactiva
	}

	// Seat cap: idle sessions are closed first so they do not hold a seat.
	now := s.now()
	desde := now.Add(-s.cfg.SessionWindow())
	if n, err := s.sesiones.ExpirarInactivas(ctx, desde); err != nil {
		return nil, err
	} else if n > 0 {
		log.Debug().Int64("sesiones", n).Msg("auth: sesiones inactivas expiradas")
	}
	activas, err := s.sesiones.CountActivas(ctx, negocio.ID, desde)
	if err != nil {
		return nil, err
	}
	if activas >= int64(negocio.MaxUsuariosConcurrentes) {
		log.Warn().
			Str("negocio_id", negocio.ID.String()).
			Str("username", user.Username).
			Int64("activas", activas).
			Int("limite", negocio.MaxUsuariosConcurrentes).
			Msg("auth: límite de usuarios concurrentes")
		return nil, fmt.Errorf("%w (%d)", ErrLimiteSesiones, negocio.MaxUsuariosConcurrentes)
	}

	sesion := &model.SesionUsuario{
		UsuarioID:       user.ID,
		NegocioID:       user.NegocioID,
		SessionKey:      uuid.NewString(),
		UserAgent:       userAgent,
		Activa:          true,
		UltimaActividad: now,
	}
	if ip != "" {
		sesion.IPAddress = &ip
	}
	if err := s.sesiones.Create(ctx, sesion); err != nil {
		return nil, err
	}

	log.Info().
		Str("negocio_id", user.NegocioID.String()).
		Str("username", user.Username).
		Str("ip", ip).
		Msg("auth: login")
	return s.emitir(user, sesion.SessionKey)
}

// Refresh issues a new token pair for the same session, so a refresh never
// takes an extra seat.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalido
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalido
	}
	if tipo, _ := claims["token_type"].(string); tipo != TokenRefresh {
		return nil, ErrTokenInvalido
	}
	uid, err := uuid.Parse(claimString(claims, "user_id"))
	if err != nil {
		return nil, ErrTokenInvalido
	}
	nid, err := uuid.Parse(claimString(claims, "negocio_id"))
	if err != nil {
		return nil, ErrTokenInvalido
	}
	jti := claimString(claims, "jti")

	sesion, err := s.sesiones.FindByKey(ctx, jti)
	if err != nil || !sesion.Activa {
		return nil, ErrSesionInvalida
	}
	user, err := s.repo.FindByID(ctx, nid, uid)
	if err != nil || !user.Activo {
		return nil, ErrUsuarioInactivo
	}
	if err := s.sesiones.Touch(ctx, jti, s.now()); err != nil {
		return nil, err
	}
	return s.emitir(user, jti)
}

func (s *authService) Logout(ctx context.Context, sessionKey string) error {
	if s.rdb != nil {
		s.rdb.Del(ctx, touchKey(sessionKey))
	}
	return s.sesiones.Desactivar(ctx, sessionKey)
}

func (s *authService) ValidarSesion(ctx context.Context, sessionKey string) error {
	sesion, err := s.sesiones.FindByKey(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSesionInvalida
		}
		return err
	}
	now := s.now()
	if !sesion.Activa || sesion.UltimaActividad.Before(now.Add(-s.cfg.SessionWindow())) {
		return ErrSesionInvalida
	}

	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, touchKey(sessionKey), 1, touchIntervalo).Result()
		if err == nil && !ok {
			return nil // touched less than a minute ago
		}
		if err != nil {
			log.Debug().Err(err).Msg("auth: redis no disponible, touch directo")
		}
	}
	return s.sesiones.Touch(ctx, sessionKey, now)
}

func touchKey(sessionKey string) string { return "sesion:touch:" + sessionKey }

// emitir signs an access and a refresh token bound to the session jti.
func (s *authService) emitir(user *model.Usuario, jti string) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, jti, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, jti, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, jti, tipo string, duration time.Duration) (string, error) {
	permisos := make([]string, 0, 16)
	for _, p := range user.Permisos.Lista() {
		permisos = append(permisos, string(p))
	}
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":     user.ID.String(),
		"negocio_id":  user.NegocioID.String(),
		"sucursal_id": uuidPtrString(user.SucursalID),
		"username":    user.Username,
		"permisos":    permisos,
		"propietario": user.EsPropietario,
		"token_type":  tipo,
		"jti":         jti,
		"exp":         now.Add(duration).Unix(),
		"iat":         now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func claimString(c jwt.MapClaims, key string) string {
	v, _ := c[key].(string)
	return v
}
