package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
)

type genericAccessoryRequest struct {
	model.GenericAccessory
	Quantity *int `json:"quantity"`
}

type specialAccessoryRequest struct {
	model.SpecialAccessory
	Quantity *int `json:"quantity"`
}

// ListGenericAccessories handles GET /api/accessories/generic. Exactly one of
// machineId or groupId selects the owner.
func (h *Handler) ListGenericAccessories(c *gin.Context) {
	machineID, groupID, ok := accessoryOwner(c)
	if !ok {
		return
	}
	var (
		out []model.GenericAccessory
		err error
	)
	if machineID != nil {
		out, err = h.store.MachineGenericAccessories(c.Request.Context(), *machineID)
	} else {
		out, err = h.store.GroupGenericAccessories(c.Request.Context(), *groupID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetGenericAccessory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	a, err := h.store.GetGenericAccessory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateGenericAccessory(c *gin.Context) {
	var req genericAccessoryRequest
	if !bindJSON(c, &req) {
		return
	}
	a := req.GenericAccessory
	a.ID = 0
	a.Quantity = quantityOr(req.Quantity, 1)
	if err := h.store.CreateGenericAccessory(c.Request.Context(), &a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateGenericAccessory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req genericAccessoryRequest
	if !bindJSON(c, &req) {
		return
	}
	stored, err := h.store.GetGenericAccessory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	a := req.GenericAccessory
	a.ID = id
	a.Quantity = quantityOr(req.Quantity, stored.Quantity)
	if err := h.store.UpdateGenericAccessory(c.Request.Context(), &a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteGenericAccessory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteGenericAccessory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSpecialAccessories handles GET /api/accessories/special.
func (h *Handler) ListSpecialAccessories(c *gin.Context) {
	machineID, groupID, ok := accessoryOwner(c)
	if !ok {
		return
	}
	var (
		out []model.SpecialAccessory
		err error
	)
	if machineID != nil {
		out, err = h.store.MachineSpecialAccessories(c.Request.Context(), *machineID)
	} else {
		out, err = h.store.GroupSpecialAccessories(c.Request.Context(), *groupID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetSpecialAccessory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	a, err := h.store.GetSpecialAccessory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateSpecialAccessory(c *gin.Context) {
	var req specialAccessoryRequest
	if !bindJSON(c, &req) {
		return
	}
	a := req.SpecialAccessory
	a.ID = 0
	a.Quantity = quantityOr(req.Quantity, 1)
	if err := h.store.CreateSpecialAccessory(c.Request.Context(), &a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateSpecialAccessory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req specialAccessoryRequest
	if !bindJSON(c, &req) {
		return
	}
	stored, err := h.store.GetSpecialAccessory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	a := req.SpecialAccessory
	a.ID = id
	a.Quantity = quantityOr(req.Quantity, stored.Quantity)
	if err := h.store.UpdateSpecialAccessory(c.Request.Context(), &a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteSpecialAccessory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteSpecialAccessory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func accessoryOwner(c *gin.Context) (*int64, *int64, bool) {
	machineID, ok := queryID(c, "machineId")
	if !ok {
		return nil, nil, false
	}
	groupID, ok := queryID(c, "groupId")
	if !ok {
		return nil, nil, false
	}
	if (machineID == nil) == (groupID == nil) {
		badRequest(c, "exactly one of machineId or groupId is required")
		return nil, nil, false
	}
	return machineID, groupID, true
}
