package handler

import (
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

type UsuariosHandler struct{ svc service.UsuarioService }

func NewUsuariosHandler(svc service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear usuario
// @Description  Crea un propietario o empleado. Los permisos omitidos toman los valores por defecto del rol.
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearUsuarioRequest true "Usuario"
// @Success      201  {object} dto.OKResponse{data=dto.UsuarioResponse}
// @Failure      409  {object} apierror.APIError
// @Router       /v1/usuarios [post]
func (h *UsuariosHandler) Crear(c *gin.Context) {
	var req dto.CrearUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.Crear(c.Request.Context(), nid, uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar usuarios
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        incluir_inactivos query bool false "Incluir usuarios desactivados"
// @Success      200 {array} dto.UsuarioResponse
// @Router       /v1/usuarios [get]
func (h *UsuariosHandler) Listar(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.Listar(c.Request.Context(), nid, c.Query("incluir_inactivos") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Obtener(c.Request.Context(), nid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar usuario y permisos
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                       true "UUID del usuario"
// @Param        body body dto.ActualizarUsuarioRequest true "Cambios"
// @Success      200  {object} dto.OKResponse{data=dto.UsuarioResponse}
// @Router       /v1/usuarios/{id} [put]
func (h *UsuariosHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, uid := actor(c)
	resp, err := h.svc.Actualizar(c.Request.Context(), nid, uid, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// Desactivar godoc
// @Summary      Desactivar usuario
// @Description  Soft delete: el usuario no puede iniciar sesion y sus sesiones se cierran.
// @Tags         usuarios
// @Security     BearerAuth
// @Param        id path string true "UUID del usuario"
// @Success      200 {object} dto.OKResponse
// @Router       /v1/usuarios/{id} [delete]
func (h *UsuariosHandler) Desactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, uid := actor(c)
	if err := h.svc.Desactivar(c.Request.Context(), nid, uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Usuario desactivado"})
}

func (h *UsuariosHandler) Reactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, uid := actor(c)
	if err := h.svc.Reactivar(c.Request.Context(), nid, uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Usuario reactivado"})
}

// SesionesActivas godoc
// @Summary      Dispositivos conectados
// @Description  Sesiones con actividad dentro de la ventana que cuentan contra el limite del plan.
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SesionesActivasResponse
// @Router       /v1/usuarios/sesiones [get]
func (h *UsuariosHandler) SesionesActivas(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.SesionesActivas(c.Request.Context(), nid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) CerrarSesiones(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, uid := actor(c)
	if err := h.svc.CerrarSesiones(c.Request.Context(), nid, uid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Sesiones cerradas"})
}
