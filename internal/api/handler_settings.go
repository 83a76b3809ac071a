package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/config"
	"maintenance-backend/internal/stats"
)

const secretMask = "********"

// settings is the runtime-editable part of the configuration. Secrets are
// masked on the way out; a masked or empty secret on the way in keeps the
// stored value.
type settings struct {
	SMTP          smtpSettings               `json:"smtp"`
	Database      databaseSettings           `json:"database"`
	Storage       config.StorageConfig       `json:"storage"`
	BusinessHours config.BusinessHoursConfig `json:"businessHours"`
	Report        config.ReportConfig        `json:"report"`
}

type smtpSettings struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Secure   bool   `json:"secure"`
	TLS      bool   `json:"tls"`
	From     string `json:"from"`
}

type databaseSettings struct {
	Driver string `json:"driver" binding:"omitempty,oneof=sqlite postgres"`
	DSN    string `json:"dsn"`
}

func settingsOf(cfg config.Config) settings {
	s := settings{
		SMTP: smtpSettings{
			Server:   cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Secure:   cfg.SMTP.Secure,
			TLS:      cfg.SMTP.TLS,
			From:     cfg.SMTP.From,
		},
		Database:      databaseSettings{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN},
		Storage:       cfg.Storage,
		BusinessHours: cfg.BusinessHours,
		Report:        cfg.Report,
	}
	if cfg.SMTP.Password != "" {
		s.SMTP.Password = secretMask
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.DSN != "" {
		s.Database.DSN = secretMask
	}
	return s
}

func keepSecret(incoming, stored string) string {
	if incoming == "" || incoming == secretMask {
		return stored
	}
	return incoming
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, settingsOf(h.config()))
}

// UpdateSettings handles PUT /api/settings. SMTP, business hours and report
// text apply immediately; database and storage changes are saved and applied
// on the next start.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settings
	if !bindJSON(c, &req) {
		return
	}
	hours, err := stats.ParseBusinessHours(req.BusinessHours.Start, req.BusinessHours.End)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	h.mu.Lock()
	next := h.cfg
	next.SMTP = config.SMTPConfig{
		Server:   req.SMTP.Server,
		Port:     req.SMTP.Port,
		Username: req.SMTP.Username,
		Password: keepSecret(req.SMTP.Password, h.cfg.SMTP.Password),
		Secure:   req.SMTP.Secure,
		TLS:      req.SMTP.TLS,
		From:     req.SMTP.From,
	}
	if req.Database.Driver != "" {
		next.Database.Driver = req.Database.Driver
	}
	next.Database.DSN = keepSecret(req.Database.DSN, h.cfg.Database.DSN)
	if req.Storage.UploadFolder != "" {
		next.Storage = req.Storage
	}
	next.BusinessHours = req.BusinessHours
	next.Report = req.Report

	restart := next.Database.Driver != h.cfg.Database.Driver ||
		next.Database.DSN != h.cfg.Database.DSN ||
		next.Storage.UploadFolder != h.cfg.Storage.UploadFolder

	if h.cfgPath != "" {
		if err := config.Save(h.cfgPath, &next); err != nil {
			h.mu.Unlock()
			respondError(c, err)
			return
		}
	}
	h.cfg = next
	h.hours = hours
	h.mu.Unlock()

	if h.smtp != nil {
		h.smtp.Update(next.SMTP)
	}
	h.statsCache.Flush()
	if restart {
		log.Printf("Settings saved; database or storage changes apply after a restart")
	}
	c.JSON(http.StatusOK, gin.H{"settings": settingsOf(next), "restartRequired": restart})
}
