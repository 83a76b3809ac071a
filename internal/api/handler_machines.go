package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/store"
)

// ListMachines handles GET /api/machines with optional groupId, userId and status filters.
func (h *Handler) ListMachines(c *gin.Context) {
	groupID, ok := queryID(c, "groupId")
	if !ok {
		return
	}
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	machines, err := h.store.ListMachines(c.Request.Context(), store.MachineFilter{
		GroupID: groupID,
		UserID:  userID,
		Status:  model.MachineStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	m, err := h.store.GetMachine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMachine(c *gin.Context) {
	var m model.Machine
	if !bindJSON(c, &m) {
		return
	}
	m.ID = 0
	ctx := c.Request.Context()
	if err := h.store.CreateMachine(ctx, &m); err != nil {
		respondError(c, err)
		return
	}
	if m.UserID != nil {
		h.notifyMachineAssignment(ctx, m)
	}
	c.JSON(http.StatusCreated, m)
}

// UpdateMachine handles PUT /api/machines/:id. The new responsible user is
// mailed when the assignment changes.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var m model.Machine
	if !bindJSON(c, &m) {
		return
	}
	ctx := c.Request.Context()
	before, err := h.store.GetMachine(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	m.ID = id
	if err := h.store.UpdateMachine(ctx, &m); err != nil {
		respondError(c, err)
		return
	}
	if m.UserID != nil && (before.UserID == nil || *before.UserID != *m.UserID) {
		h.notifyMachineAssignment(ctx, m)
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMachine removes the machine and then the files stored for it.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	files, err := h.folder.List(id)
	if err != nil {
		log.Printf("Failed to list documents of machine %d: %v", id, err)
	}
	if err := h.store.DeleteMachine(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	for _, f := range files {
		if err := h.folder.Remove(f.Path); err != nil {
			log.Printf("Failed to remove %s: %v", f.Path, err)
		}
	}
	h.statsCache.Flush()
	c.Status(http.StatusNoContent)
}

func (h *Handler) notifyMachineAssignment(ctx context.Context, m model.Machine) {
	u, err := h.store.GetUser(ctx, *m.UserID)
	if err != nil {
		log.Printf("Failed to load user %d for machine %d: %v", *m.UserID, m.ID, err)
		return
	}
	sap := ""
	if m.SAPNumber != nil {
		sap = *m.SAPNumber
	}
	h.notify(u.EmailAddress, notification.MachineSubject(m.Name), notification.KindMachine, notification.MachineData{
		MachineName:    m.Name,
		Location:       m.Location,
		SAPNumber:      sap,
		AssignmentDate: h.now().Format("2006-01-02"),
	})
}

func (h *Handler) MachineChecklists(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	lists, err := h.store.MachineChecklists(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *Handler) MachineDocuments(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	documents, err := h.store.MachineDocuments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documents)
}

// MachineAccessories returns the machine's own and group accessories.
func (h *Handler) MachineAccessories(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	generic, err := h.store.MachineGenericAccessories(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	special, err := h.store.MachineSpecialAccessories(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generic": generic, "special": special})
}

func (h *Handler) MachineSpareParts(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	parts, err := h.store.ListSpareParts(c.Request.Context(), &id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (h *Handler) MachineCategories(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	cats, err := h.store.MachineCategories(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) MachineActions(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	actions, err := h.store.ListActions(c.Request.Context(), &id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var cat model.MachineCategory
	if !bindJSON(c, &cat) {
		return
	}
	cat.ID = 0
	if err := h.store.CreateCategory(c.Request.Context(), &cat); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.statsCache.Flush()
	c.Status(http.StatusNoContent)
}
