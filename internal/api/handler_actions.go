package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
)

func (h *Handler) ListActions(c *gin.Context) {
	machineID, ok := queryID(c, "machineId")
	if !ok {
		return
	}
	actions, err := h.store.ListActions(c.Request.Context(), machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (h *Handler) GetAction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	a, err := h.store.GetAction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateAction(c *gin.Context) {
	var a model.Action
	if !bindJSON(c, &a) {
		return
	}
	a.ID = 0
	if err := h.store.CreateAction(c.Request.Context(), &a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var a model.Action
	if !bindJSON(c, &a) {
		return
	}
	a.ID = id
	if err := h.store.UpdateAction(c.Request.Context(), &a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteAction(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
