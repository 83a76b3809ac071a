package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/auth"
	"maintenance-backend/internal/model"
	"maintenance-backend/internal/mw"
)

// userRequest is a user as sent by clients; the password is write-only.
type userRequest struct {
	model.User
	Password string `json:"password"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	u, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	u := req.User
	u.ID = 0
	u.Password = hash
	if err := h.store.CreateUser(c.Request.Context(), &u); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UpdateUser handles PUT /api/users/:id. A non-empty password is changed too.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	u := req.User
	u.ID = id
	if err := h.store.UpdateUser(ctx, &u); err != nil {
		respondError(c, err)
		return
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := h.store.SetPassword(ctx, id, hash); err != nil {
			respondError(c, err)
			return
		}
	}
	updated, err := h.store.GetUser(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if claims, _ := mw.ClaimsFrom(c); claims.ID == id {
		badRequest(c, "you cannot delete your own account")
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
