package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/auth"
	"maintenance-backend/internal/model"
	"maintenance-backend/internal/mw"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/store"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.store.UserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrWrongPassword.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.CheckPassword(u.Password, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	h.respondToken(c, u)
}

// Refresh handles POST /api/auth/refresh. The user is reloaded so that
// permission changes take effect.
func (h *Handler) Refresh(c *gin.Context) {
	claims, _ := mw.ClaimsFrom(c)
	u, err := h.store.GetUser(c.Request.Context(), claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user no longer exists"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondToken(c, u)
}

func (h *Handler) respondToken(c *gin.Context, u model.User) {
	token, err := h.issuer.Issue(auth.Claims{
		ID:                u.ID,
		Username:          u.Username,
		Admin:             u.Admin,
		TicketPermissions: u.TicketPermissions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: u})
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset handles POST /api/auth/password-reset.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	id, code, err := h.resets.Begin(u.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.notify(u.EmailAddress, notification.PasswordSubject, notification.KindPassword, code) {
		log.Printf("Password reset code for user %d was not queued", u.ID)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email could not be sent"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"requestId": id})
}

type verifyRequest struct {
	RequestID   string `json:"requestId" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// VerifyPasswordReset handles POST /api/auth/password-reset/verify.
func (h *Handler) VerifyPasswordReset(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := h.resets.Verify(req.RequestID, req.Code)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.SetPassword(c.Request.Context(), userID, hash); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
