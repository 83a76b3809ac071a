// Package auth issues session tokens, hashes passwords and tracks password resets.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a session token asserts about its holder.
type Claims struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Admin             bool   `json:"admin"`
	TicketPermissions bool   `json:"ticketPermissions"`
}

// CanManageTickets reports whether the holder may create, edit or close tickets.
func (c Claims) CanManageTickets() bool {
	return c.Admin || c.TicketPermissions
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A non-positive ttl defaults to one hour.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for c.
func (i *Issuer) Issue(c Claims) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":                c.ID,
		"username":          c.Username,
		"admin":             c.Admin,
		"ticketPermissions": c.TicketPermissions,
		"iat":               now.Unix(),
		"exp":               now.Add(i.ttl).Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns its claims.
func (i *Issuer) Parse(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	id, ok := mc["id"].(float64)
	if !ok {
		return Claims{}, fmt.Errorf("%w: missing id", ErrInvalidToken)
	}
	username, _ := mc["username"].(string)
	admin, _ := mc["admin"].(bool)
	ticketPermissions, _ := mc["ticketPermissions"].(bool)

	return Claims{
		ID:                int64(id),
		Username:          username,
		Admin:             admin,
		TicketPermissions: ticketPermissions,
	}, nil
}
