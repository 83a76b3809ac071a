package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"maintenance-backend/config"
	"maintenance-backend/internal/auth"
	"maintenance-backend/internal/docs"
	"maintenance-backend/internal/mw"
	"maintenance-backend/internal/notification"
	"maintenance-backend/internal/report"
	"maintenance-backend/internal/stats"
	"maintenance-backend/internal/store"
)

// Mailer queues outgoing email.
type Mailer interface {
	Dispatch(msg notification.Message) bool
}

// SMTPUpdater receives relay settings changed at runtime.
type SMTPUpdater interface {
	Update(cfg config.SMTPConfig)
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Store      store.Store
	Config     *config.Config
	ConfigPath string
	Mailer     Mailer
	SMTP       SMTPUpdater
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	issuer     *auth.Issuer
	resets     *auth.ResetStore
	mailer     Mailer
	smtp       SMTPUpdater
	folder     *docs.FolderStore
	syncer     *docs.Syncer
	statsCache *cache.Cache
	limiters   []*mw.IPRateLimiter
	now        func() time.Time

	// mu guards the settings that can change at runtime.
	mu      sync.RWMutex
	cfg     config.Config
	cfgPath string
	hours   stats.BusinessHours
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	cfg := *d.Config
	folder := docs.NewFolderStore(cfg.Storage.UploadFolder)
	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	return &Handler{
		store:      d.Store,
		issuer:     auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		resets:     auth.NewResetStore(cfg.Auth.OTPTTL),
		mailer:     d.Mailer,
		smtp:       d.SMTP,
		folder:     folder,
		syncer:     docs.NewSyncer(folder, d.Store),
		statsCache: cache.New(ttl, 2*ttl),
		now:        time.Now,
		cfg:        cfg,
		cfgPath:    d.ConfigPath,
		hours:      businessHours(cfg.BusinessHours),
	}
}

// ForgetIdleClients drops rate-limit state for addresses idle longer than
// every, checking once per period until ctx is done.
func (h *Handler) ForgetIdleClients(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := 0
			for _, l := range h.limiters {
				dropped += l.Cleanup(every)
			}
			if dropped > 0 {
				log.Printf("Forgot %d idle clients", dropped)
			}
		}
	}
}

func businessHours(c config.BusinessHoursConfig) stats.BusinessHours {
	hours, err := stats.ParseBusinessHours(c.Start, c.End)
	if err != nil {
		log.Printf("Invalid business hours %s-%s: %v; using defaults", c.Start, c.End, err)
		return stats.DefaultBusinessHours
	}
	return hours
}

func (h *Handler) config() config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *Handler) businessHours() stats.BusinessHours {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hours
}

func (h *Handler) pdfOptions() report.PDFOptions {
	cfg := h.config()
	return report.PDFOptions{Title: cfg.Report.Title, Footer: cfg.Report.Footer, Website: cfg.Report.Website}
}

// notify queues msg when a mailer is configured.
func (h *Handler) notify(to, subject string, kind notification.Kind, data any) bool {
	if h.mailer == nil || to == "" {
		return false
	}
	msg, err := notification.NewMessage(to, subject, kind, data)
	if err != nil {
		log.Printf("Failed to build %s email: %v", kind, err)
		return false
	}
	return h.mailer.Dispatch(msg)
}

// respondError maps store errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalid):
		status = http.StatusBadRequest
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID parses the :id path parameter.
func paramID(c *gin.Context) (int64, bool) {
	return parseID(c, c.Param("id"), "id")
}

func parseID(c *gin.Context, raw, name string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric query parameter.
func queryID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, ok := parseID(c, raw, name)
	if !ok {
		return nil, false
	}
	return &id, true
}

func currentUserID(c *gin.Context) *int64 {
	claims, ok := mw.ClaimsFrom(c)
	if !ok {
		return nil
	}
	id := claims.ID
	return &id
}

// quantityOr returns *q, or fallback when the field was left out of the body.
func quantityOr(q *int, fallback int) int {
	if q == nil {
		return fallback
	}
	return *q
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}
