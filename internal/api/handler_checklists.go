package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/store"
)

func (h *Handler) ListChecklists(c *gin.Context) {
	lists, err := h.store.ListChecklists(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *Handler) GetChecklist(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	cl, err := h.store.GetChecklist(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (h *Handler) CreateChecklist(c *gin.Context) {
	var cl model.Checklist
	if !bindJSON(c, &cl) {
		return
	}
	cl.ID = 0
	ctx := c.Request.Context()
	if err := h.store.CreateChecklist(ctx, &cl, h.now()); err != nil {
		respondError(c, err)
		return
	}
	created, err := h.store.GetChecklist(ctx, cl.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateChecklist handles PUT /api/checklists/:id. Sending items replaces
// the checklist's items; omitting them leaves the items alone.
func (h *Handler) UpdateChecklist(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var cl model.Checklist
	if !bindJSON(c, &cl) {
		return
	}
	cl.ID = id
	ctx := c.Request.Context()
	if err := h.store.UpdateChecklist(ctx, &cl, h.now()); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.GetChecklist(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteChecklist(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteChecklist(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type itemOutcome struct {
	ItemID    int64 `json:"itemId" binding:"required"`
	Completed bool  `json:"completed"`
}

type completeChecklistRequest struct {
	// MachineID records which machine of a group checklist was inspected.
	MachineID      *int64        `json:"machineId"`
	CompletionDate *time.Time    `json:"completionDate"`
	Notes          string        `json:"notes"`
	Items          []itemOutcome `json:"items" binding:"dive"`
}

// CompleteChecklist handles POST /api/checklists/:id/complete on behalf of
// the calling user.
func (h *Handler) CompleteChecklist(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req completeChecklistRequest
	if !bindJSON(c, &req) {
		return
	}
	in := store.ChecklistCompletionInput{
		ChecklistID: id,
		MachineID:   req.MachineID,
		UserID:      currentUserID(c),
		Notes:       req.Notes,
		Items:       make(map[int64]bool, len(req.Items)),
	}
	if req.CompletionDate != nil {
		in.Date = *req.CompletionDate
	}
	for _, it := range req.Items {
		in.Items[it.ItemID] = it.Completed
	}
	completion, err := h.store.CompleteChecklist(c.Request.Context(), in, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, completion)
}

func (h *Handler) ChecklistCompletions(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetChecklist(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.store.ChecklistCompletions(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
