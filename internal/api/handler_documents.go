package api

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/docs"
	"maintenance-backend/internal/parse"
	"maintenance-backend/internal/store"
)

// UploadDocument handles POST /api/documents as multipart form data with a
// "file" part and a "machineId" field. Re-uploading a file replaces its
// contents and keeps the existing row.
func (h *Handler) UploadDocument(c *gin.Context) {
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
	path, size, err := h.folder.Save(machineID, fh.Filename, src)
	if err != nil {
		respondError(c, fmt.Errorf("failed to store %s: %w", fh.Filename, err))
		return
	}
	log.Printf("Stored %s (%d bytes) for machine %d", path, size, machineID)

	existing, err := h.store.OwnDocuments(ctx, machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, d := range existing {
		if filepath.Clean(d.DocumentPath) == filepath.Clean(path) {
			c.JSON(http.StatusOK, d)
			return
		}
	}
	doc := docs.NewDocument(machineID, docs.File{Name: filepath.Base(path), Path: path})
	if err := h.store.CreateDocument(ctx, &doc); err != nil {
		if rmErr := h.folder.Remove(path); rmErr != nil {
			log.Printf("Failed to remove orphaned file %s: %v", path, rmErr)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// DownloadDocument handles GET /api/documents/:id/file.
func (h *Handler) DownloadDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	doc, err := h.store.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := h.folder.Open(doc.DocumentPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "file is missing from the document folder"})
		return
	case errors.Is(err, docs.ErrOutsideRoot):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case err != nil:
		respondError(c, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		respondError(c, err)
		return
	}

	name := parse.RemoveMachinePrefix(filepath.Base(doc.DocumentPath))
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(name),
	})
}

// DeleteDocument removes the row first, then the file.
func (h *Handler) DeleteDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	doc, err := h.store.DeleteDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.folder.Remove(doc.DocumentPath); err != nil {
		log.Printf("Document %d deleted but its file %s was not: %v", id, doc.DocumentPath, err)
	}
	c.Status(http.StatusNoContent)
}

// SyncMachineDocuments handles POST /api/machines/:id/documents/sync.
func (h *Handler) SyncMachineDocuments(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetMachine(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	res, err := h.syncer.Sync(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SyncAllDocuments handles POST /api/documents/sync.
func (h *Handler) SyncAllDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	machines, err := h.store.ListMachines(ctx, store.MachineFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	ids := make([]int64, 0, len(machines))
	for _, m := range machines {
		ids = append(ids, m.ID)
	}
	results, err := h.syncer.SyncAll(ctx, ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
