package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"maintenance-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, metrics *mw.Metrics) *gin.Engine {
	r := gin.Default()
	cfg := h.config()

	if metrics != nil {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	rateLimiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	// Unauthenticated auth endpoints get a tighter budget against guessing.
	authLimiter := mw.NewIPRateLimiter(rate.Every(time.Second), 5)
	h.limiters = append(h.limiters, rateLimiter, authLimiter)
	// Statistics responses live until a ticket changes or the TTL passes.
	statsCaching := mw.Cache(h.statsCache, time.Duration(cfg.Server.CacheTTLSeconds)*time.Second, mw.QueryKey)

	api := r.Group("/api")
	api.Use(rateLimiter.Middleware())
	{
		api.GET("/health", h.Health)

		public := api.Group("/auth", authLimiter.Middleware())
		public.POST("/login", h.Login)
		public.POST("/password-reset", h.RequestPasswordReset)
		public.POST("/password-reset/verify", h.VerifyPasswordReset)
	}

	secured := api.Group("", mw.RequireAuth(h.issuer))
	admin := mw.RequireAdmin()
	tickets := mw.RequireTicketPermission()
	{
		secured.POST("/auth/refresh", h.Refresh)

		secured.GET("/users", h.ListUsers)
		secured.GET("/users/:id", h.GetUser)
		secured.POST("/users", admin, h.CreateUser)
		secured.PUT("/users/:id", admin, h.UpdateUser)
		secured.DELETE("/users/:id", admin, h.DeleteUser)

		secured.GET("/suppliers", h.ListSuppliers)
		secured.GET("/suppliers/:id", h.GetSupplier)
		secured.POST("/suppliers", h.CreateSupplier)
		secured.PUT("/suppliers/:id", h.UpdateSupplier)
		secured.DELETE("/suppliers/:id", h.DeleteSupplier)

		secured.GET("/groups", h.ListGroups)
		secured.GET("/groups/:id", h.GetGroup)
		secured.POST("/groups", h.CreateGroup)
		secured.PUT("/groups/:id", h.UpdateGroup)
		secured.DELETE("/groups/:id", admin, h.DeleteGroup)

		secured.GET("/machines", h.ListMachines)
		secured.GET("/machines/:id", h.GetMachine)
		secured.POST("/machines", h.CreateMachine)
		secured.PUT("/machines/:id", h.UpdateMachine)
		secured.DELETE("/machines/:id", admin, h.DeleteMachine)
		secured.GET("/machines/:id/checklists", h.MachineChecklists)
		secured.GET("/machines/:id/documents", h.MachineDocuments)
		secured.POST("/machines/:id/documents/sync", h.SyncMachineDocuments)
		secured.GET("/machines/:id/accessories", h.MachineAccessories)
		secured.GET("/machines/:id/spare-parts", h.MachineSpareParts)
		secured.GET("/machines/:id/categories", h.MachineCategories)
		secured.GET("/machines/:id/actions", h.MachineActions)

		secured.POST("/categories", h.CreateCategory)
		secured.DELETE("/categories/:id", h.DeleteCategory)

		secured.GET("/accessories/generic", h.ListGenericAccessories)
		secured.GET("/accessories/generic/:id", h.GetGenericAccessory)
		secured.POST("/accessories/generic", h.CreateGenericAccessory)
		secured.PUT("/accessories/generic/:id", h.UpdateGenericAccessory)
		secured.DELETE("/accessories/generic/:id", h.DeleteGenericAccessory)
		secured.GET("/accessories/special", h.ListSpecialAccessories)
		secured.GET("/accessories/special/:id", h.GetSpecialAccessory)
		secured.POST("/accessories/special", h.CreateSpecialAccessory)
		secured.PUT("/accessories/special/:id", h.UpdateSpecialAccessory)
		secured.DELETE("/accessories/special/:id", h.DeleteSpecialAccessory)

		secured.POST("/documents", h.UploadDocument)
		secured.POST("/documents/sync", admin, h.SyncAllDocuments)
		secured.GET("/documents/:id/file", h.DownloadDocument)
		secured.DELETE("/documents/:id", h.DeleteDocument)

		secured.GET("/spare-parts", h.ListSpareParts)
		secured.GET("/spare-parts/export", h.ExportSpareParts)
		secured.POST("/spare-parts/import", h.ImportSpareParts)
		secured.GET("/spare-parts/:id", h.GetSparePart)
		secured.POST("/spare-parts", h.CreateSparePart)
		secured.PUT("/spare-parts/:id", h.UpdateSparePart)
		secured.DELETE("/spare-parts/:id", h.DeleteSparePart)
		secured.POST("/spare-parts/:id/adjust", h.AdjustSparePart)

		secured.GET("/checklists", h.ListChecklists)
		secured.GET("/checklists/:id", h.GetChecklist)
		secured.POST("/checklists", h.CreateChecklist)
		secured.PUT("/checklists/:id", h.UpdateChecklist)
		secured.DELETE("/checklists/:id", h.DeleteChecklist)
		secured.POST("/checklists/:id/complete", h.CompleteChecklist)
		secured.GET("/checklists/:id/completions", h.ChecklistCompletions)

		secured.GET("/tickets", h.ListTickets)
		secured.GET("/tickets/export", h.ExportTickets)
		secured.GET("/tickets/:id", h.GetTicket)
		secured.GET("/tickets/:id/report.pdf", h.TicketReportPDF)
		secured.POST("/tickets/:id/report/email", h.EmailTicketReport)
		secured.POST("/tickets", tickets, h.CreateTicket)
		secured.PUT("/tickets/:id", tickets, h.UpdateTicket)
		secured.DELETE("/tickets/:id", tickets, h.DeleteTicket)
		secured.POST("/tickets/:id/complete", tickets, h.CompleteTicket)

		secured.GET("/actions", h.ListActions)
		secured.GET("/actions/:id", h.GetAction)
		secured.POST("/actions", h.CreateAction)
		secured.PUT("/actions/:id", h.UpdateAction)
		secured.DELETE("/actions/:id", h.DeleteAction)

		secured.GET("/statistics", statsCaching, h.Statistics)

		secured.GET("/settings", admin, h.GetSettings)
		secured.PUT("/settings", admin, h.UpdateSettings)
	}

	return r
}
