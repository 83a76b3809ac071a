package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
)

func (h *Handler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.store.ListSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) GetSupplier(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s, err := h.store.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CreateSupplier(c *gin.Context) {
	var s model.Supplier
	if !bindJSON(c, &s) {
		return
	}
	s.ID = 0
	if err := h.store.CreateSupplier(c.Request.Context(), &s); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var s model.Supplier
	if !bindJSON(c, &s) {
		return
	}
	s.ID = id
	if err := h.store.UpdateSupplier(c.Request.Context(), &s); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
