package handler

import (
	"net/http"

	"dulceriapos/internal/apierror"
	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// adminActor names the platform operator in the prospect log.
const adminActor = "admin"

type ProspectosHandler struct{ svc service.ProspectoService }

func NewProspectosHandler(svc service.ProspectoService) *ProspectosHandler {
	return &ProspectosHandler{svc: svc}
}

// Crear godoc
// @Summary      Registrar interesado
// @Description  Formulario publico de la pagina de ventas.
// @Tags         prospectos
// @Accept       json
// @Produce      json
// @Param        body body dto.CrearProspectoRequest true "Datos de contacto"
// @Success      201  {object} dto.OKResponse{data=dto.ProspectoResponse}
// @Failure      409  {object} apierror.APIError
// @Router       /v1/prospectos [post]
func (h *ProspectosHandler) Crear(c *gin.Context) {
	var req dto.CrearProspectoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

func (h *ProspectosHandler) Listar(c *gin.Context) {
	var filter dto.ProspectoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProspectosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Avanzar godoc
// @Summary      Avanzar prospecto en el embudo
// @Description  Sin estado pasa al siguiente. Al llegar a pago_completado se emite el token de registro (72h).
// @Tags         prospectos
// @Accept       json
// @Produce      json
// @Security     AdminKey
// @Param        id   path string                      true "UUID del prospecto"
// @Param        body body dto.AvanzarProspectoRequest true "Estado destino"
// @Success      200  {object} dto.OKResponse{data=dto.ProspectoResponse}
// @Router       /v1/prospectos/{id} [patch]
func (h *ProspectosHandler) Avanzar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AvanzarProspectoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Avanzar(c.Request.Context(), id, req, adminActor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

// CompletarRegistro godoc
// @Summary      Completar registro con token
// @Description  Crea el negocio del prospecto. El token es de un solo uso.
// @Tags         prospectos
// @Accept       json
// @Produce      json
// @Param        token path string                      true "Token de registro"
// @Param        body  body dto.RegistrarNegocioRequest true "Datos del negocio"
// @Success      201   {object} dto.OKResponse{data=dto.NegocioResponse}
// @Failure      400   {object} apierror.APIError
// @Router       /v1/prospectos/registro/{token} [post]
func (h *ProspectosHandler) CompletarRegistro(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Token invalido"))
		return
	}
	var req dto.RegistrarNegocioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CompletarRegistro(c.Request.Context(), token, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}
