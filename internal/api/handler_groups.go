package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/store"
)

func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.store.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetGroup returns the group together with its machines.
func (h *Handler) GetGroup(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	g, err := h.store.GetGroup(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	machines, err := h.store.ListMachines(ctx, store.MachineFilter{GroupID: &id})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g, "machines": machines})
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var g model.MachineGroup
	if !bindJSON(c, &g) {
		return
	}
	g.ID = 0
	if err := h.store.CreateGroup(c.Request.Context(), &g); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) UpdateGroup(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var g model.MachineGroup
	if !bindJSON(c, &g) {
		return
	}
	g.ID = id
	if err := h.store.UpdateGroup(c.Request.Context(), &g); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) DeleteGroup(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteGroup(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
