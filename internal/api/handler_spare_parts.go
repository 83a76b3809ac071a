package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/report"
)

// ListSpareParts handles GET /api/spare-parts with an optional machineId filter.
func (h *Handler) ListSpareParts(c *gin.Context) {
	machineID, ok := queryID(c, "machineId")
	if !ok {
		return
	}
	parts, err := h.store.ListSpareParts(c.Request.Context(), machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (h *Handler) GetSparePart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := h.store.GetSparePart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// sparePartRequest tells an omitted quantity apart from an explicit zero.
type sparePartRequest struct {
	model.SparePart
	Quantity *int `json:"quantity"`
}

func (h *Handler) CreateSparePart(c *gin.Context) {
	var req sparePartRequest
	if !bindJSON(c, &req) {
		return
	}
	p := req.SparePart
	p.ID = 0
	p.Quantity = quantityOr(req.Quantity, 1)
	if err := h.store.CreateSparePart(c.Request.Context(), &p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateSparePart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req sparePartRequest
	if !bindJSON(c, &req) {
		return
	}
	stored, err := h.store.GetSparePart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	p := req.SparePart
	p.ID = id
	p.Quantity = quantityOr(req.Quantity, stored.Quantity)
	if err := h.store.UpdateSparePart(c.Request.Context(), &p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteSparePart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteSparePart(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

type adjustResponse struct {
	model.SparePart
	NeedsReorder bool `json:"needsReorder"`
}

// AdjustSparePart handles POST /api/spare-parts/:id/adjust. A negative delta
// consumes stock.
func (h *Handler) AdjustSparePart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req adjustRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Delta == 0 {
		badRequest(c, "delta must not be zero")
		return
	}
	p, err := h.store.AdjustSparePartQuantity(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, adjustResponse{SparePart: p, NeedsReorder: p.NeedsReorder()})
}

// ExportSpareParts handles GET /api/spare-parts/export.
func (h *Handler) ExportSpareParts(c *gin.Context) {
	machineID, ok := queryID(c, "machineId")
	if !ok {
		return
	}
	parts, err := h.store.ListSpareParts(c.Request.Context(), machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.SparePartsXLSX(&buf, parts); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="spare_parts.xlsx"`)
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}

// ImportSpareParts handles POST /api/spare-parts/import: a workbook in the
// "file" part, assigned to the machine in "machineId". Rows are matched on
// part number; invalid rows are reported and skipped.
func (h *Handler) ImportSpareParts(c *gin.Context) {
	machineID, ok := parseID(c, c.PostForm("machineId"), "machineId")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetMachine(ctx, machineID); err != nil {
		respondError(c, err)
		return
	}
	src, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	res, err := report.ParseSparePartsXLSX(src)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	for i := range res.Parts {
		res.Parts[i].MachineID = machineID
	}
	if err := h.store.UpsertSpareParts(ctx, res.Parts); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalRows": res.TotalRows,
		"imported":  len(res.Parts),
		"errors":    res.Errors,
	})
}
