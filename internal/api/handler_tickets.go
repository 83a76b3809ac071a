package api

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/model"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/report"
	"maintenance-backend/internal/store"
)

// ticketFilter reads machineId, userId, status and open from the query string.
func ticketFilter(c *gin.Context) (store.TicketFilter, bool) {
	machineID, ok := queryID(c, "machineId")
	if !ok {
		return store.TicketFilter{}, false
	}
	userID, ok := queryID(c, "userId")
	if !ok {
		return store.TicketFilter{}, false
	}
	open, _ := strconv.ParseBool(c.Query("open"))
	return store.TicketFilter{
		MachineID: machineID,
		UserID:    userID,
		Status:    model.TicketStatus(c.Query("status")),
		Open:      open,
	}, true
}

func (h *Handler) ListTickets(c *gin.Context) {
	f, ok := ticketFilter(c)
	if !ok {
		return
	}
	tickets, err := h.store.ListTickets(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) GetTicket(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	t, err := h.store.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTicket handles POST /api/tickets. Actions are referenced by id.
func (h *Handler) CreateTicket(c *gin.Context) {
	var t model.Ticket
	if !bindJSON(c, &t) {
		return
	}
	t.ID = 0
	t.CompletedDate = nil
	ctx := c.Request.Context()
	if err := h.store.CreateTicket(ctx, &t); err != nil {
		respondError(c, err)
		return
	}
	h.statsCache.Flush()
	created, err := h.store.GetTicket(ctx, t.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if created.UserID != nil {
		h.notifyTicketAssignment(created)
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateTicket(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var t model.Ticket
	if !bindJSON(c, &t) {
		return
	}
	ctx := c.Request.Context()
	before, err := h.store.GetTicket(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	t.ID = id
	if err := h.store.UpdateTicket(ctx, &t); err != nil {
		respondError(c, err)
		return
	}
	h.statsCache.Flush()
	updated, err := h.store.GetTicket(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if updated.UserID != nil && (before.UserID == nil || *before.UserID != *updated.UserID) {
		h.notifyTicketAssignment(updated)
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteTicket(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteTicket(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.statsCache.Flush()
	c.Status(http.StatusNoContent)
}

type completeTicketRequest struct {
	CompletionNotes  string     `json:"completionNotes"`
	InterventionType bool       `json:"interventionType"`
	CompletedDate    *time.Time `json:"completedDate"`
}

// CompleteTicket handles POST /api/tickets/:id/complete.
func (h *Handler) CompleteTicket(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req completeTicketRequest
	if !bindJSON(c, &req) {
		return
	}
	in := store.TicketCompletion{
		Notes:    req.CompletionNotes,
		External: req.InterventionType,
		At:       h.now(),
	}
	if req.CompletedDate != nil {
		in.At = *req.CompletedDate
	}
	t, err := h.store.CompleteTicket(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	h.statsCache.Flush()
	c.JSON(http.StatusOK, t)
}

// TicketReportPDF handles GET /api/tickets/:id/report.pdf.
func (h *Handler) TicketReportPDF(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	t, err := h.store.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := h.renderTicketPDF(t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="ticket_%d.pdf"`, t.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

type reportEmailRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

// EmailTicketReport handles POST /api/tickets/:id/report/email. The report
// goes to the given address, or to the assigned user when none is given.
func (h *Handler) EmailTicketReport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req reportEmailRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	t, err := h.store.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	to := req.Email
	if to == "" && t.User != nil {
		to = t.User.EmailAddress
	}
	if to == "" {
		badRequest(c, "no recipient: the ticket has no assigned user")
		return
	}
	if h.mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email is not configured"})
		return
	}

	pdf, err := h.renderTicketPDF(t)
	if err != nil {
		respondError(c, err)
		return
	}
	data := ticketData(t)
	data.Problem = t.Description
	data.Solution = t.CompletionNotes
	msg, err := notification.NewMessage(to, notification.ReportSubject(t.Title), notification.KindReport, data)
	if err != nil {
		respondError(c, err)
		return
	}
	msg.Attachments = append(msg.Attachments, notification.Attachment{
		Name:        fmt.Sprintf("ticket_%d.pdf", t.ID),
		ContentType: "application/pdf",
		Data:        pdf,
	})
	if !h.mailer.Dispatch(msg) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email queue is full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"to": to})
}

// ExportTickets handles GET /api/tickets/export with the list filters.
func (h *Handler) ExportTickets(c *gin.Context) {
	f, ok := ticketFilter(c)
	if !ok {
		return
	}
	tickets, err := h.store.ListTickets(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.TicketsXLSX(&buf, tickets); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tickets.xlsx"`)
	c.Data(http.StatusOK, report.XLSXContentType, buf.Bytes())
}

func (h *Handler) renderTicketPDF(t model.Ticket) ([]byte, error) {
	r := report.TicketReport{
		Ticket:   t,
		Problem:  t.Description,
		Solution: t.CompletionNotes,
	}
	if t.Machine != nil {
		r.MachineName = t.Machine.Name
	}
	if t.User != nil {
		r.Username = t.User.FullName()
	}
	if t.Category != nil {
		r.CategoryName = t.Category.Name
	}
	var buf bytes.Buffer
	if err := report.TicketPDF(&buf, r, h.pdfOptions()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ticketData(t model.Ticket) notification.TicketData {
	d := notification.TicketData{
		Title:         t.Title,
		Description:   t.Description,
		ScheduledDate: t.ScheduledDate.Format("2006-01-02"),
		Critical:      t.Critical,
		Notes:         t.CompletionNotes,
	}
	if t.Machine != nil {
		d.MachineName = t.Machine.Name
	}
	if t.Category != nil {
		d.Category = t.Category.Name
	}
	return d
}

// notifyTicketAssignment mails the assigned user. t must have User preloaded.
func (h *Handler) notifyTicketAssignment(t model.Ticket) {
	if t.User == nil {
		log.Printf("Ticket %d has no loaded user to notify", t.ID)
		return
	}
	h.notify(t.User.EmailAddress, notification.TicketSubject(t.Title), notification.KindTicket, ticketData(t))
}

// ticketsForStats loads every ticket with its category, optionally for one machine.
func (h *Handler) ticketsForStats(ctx context.Context, machineID *int64) ([]model.Ticket, error) {
	return h.store.ListTickets(ctx, store.TicketFilter{MachineID: machineID})
}
