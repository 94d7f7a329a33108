package handler

import (
	"net/http"

	"dulceriapos/internal/dto"
	"dulceriapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CategoriasHandler struct{ svc service.CategoriaService }

func NewCategoriasHandler(svc service.CategoriaService) *CategoriasHandler {
	return &CategoriasHandler{svc: svc}
}

func (h *CategoriasHandler) Crear(c *gin.Context) {
	var req dto.CrearCategoriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Crear(c.Request.Context(), nid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, resp)
}

func (h *CategoriasHandler) Listar(c *gin.Context) {
	nid, _ := actor(c)
	resp, err := h.svc.Listar(c.Request.Context(), nid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoriasHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarCategoriaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	nid, _ := actor(c)
	resp, err := h.svc.Actualizar(c.Request.Context(), nid, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, resp)
}

func (h *CategoriasHandler) Desactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	nid, _ := actor(c)
	if err := h.svc.Desactivar(c.Request.Context(), nid, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{Success: true, Mensaje: "Categoria desactivada"})
}
