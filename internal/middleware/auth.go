package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/model"
	"dulceriapos/internal/tenant"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"

	tokenAccess = "access"
)

// JWTClaims are the custom claims embedded in every token. The session key
// travels as the registered jti claim.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	NegocioID   string   `json:"negocio_id"`
	SucursalID  string   `json:"sucursal_id"`
	Username    string   `json:"username"`
	Permisos    []string `json:"permisos"`
	Propietario bool     `json:"propietario"`
	TokenType   string   `json:"token_type"`
	jwt.RegisteredClaims
}

// UsuarioUUID and NegocioUUID were validated by JWTAuth; they never fail
// inside a protected route.
func (c *JWTClaims) UsuarioUUID() uuid.UUID { id, _ := uuid.Parse(c.UserID); return id }
func (c *JWTClaims) NegocioUUID() uuid.UUID { id, _ := uuid.Parse(c.NegocioID); return id }

// Tiene reports whether the token carries permiso.
func (c *JWTClaims) Tiene(permiso model.Permiso) bool {
	for _, p := range c.Permisos {
		if p == string(permiso) {
			return true
		}
	}
	return false
}

// JWTAuth validates the Bearer access token on every protected route and
// scopes the request context to the token's negocio.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.TokenType != tokenAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		negocioID, errN := uuid.Parse(claims.NegocioID)
		_, errU := uuid.Parse(claims.UserID)
		if errN != nil || errU != nil || claims.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(tenant.WithNegocio(c.Request.Context(), negocioID))
		c.Next()
	}
}

// SesionValidator checks that the session behind a token is still open.
type SesionValidator interface {
	ValidarSesion(ctx context.Context, sessionKey string) error
}

// SesionActiva rejects tokens whose session was closed or went idle, so a
// logout or a seat reclaimed by the owner takes effect immediately.
func SesionActiva(v SesionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		if err := v.ValidarSesion(c.Request.Context(), claims.ID); err != nil {
			status := apierror.KindOf(err).Status()
			if status == http.StatusInternalServerError {
				_ = c.Error(err)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(status, apierror.New(err.Error()))
			return
		}
		c.Next()
	}
}

// RequirePermiso rejects requests whose token holds none of the permisos.
// Services re-check against the stored user; this is the early gate.
func RequirePermiso(permisos ...model.Permiso) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims != nil {
			for _, p := range permisos {
				if claims.Tiene(p) {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
	}
}

// AdminKey guards platform routes with the X-Admin-Key header. An empty
// configured key disables them.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Clave de administrador invalida"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
