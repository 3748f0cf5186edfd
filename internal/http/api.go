package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"attendance-tracker/internal/auth"
	"attendance-tracker/internal/service"
	"attendance-tracker/internal/storage"
)

// Deps are the services the HTTP layer is wired to.
type Deps struct {
	Users        service.UserService
	Records      service.RecordService
	Verification service.VerificationService
	Reports      service.ReportService
	Sessions     *auth.Sessions
	// Archive is nil when object storage is not configured.
	Archive *storage.Archive
	// Location interprets submitted dates and times.
	Location     *time.Location
	SecureCookie bool
	Logger       *logrus.Entry
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	records      service.RecordService
	verification service.VerificationService
	reports      service.ReportService
	sessions     *auth.Sessions
	archive      *storage.Archive
	loc          *time.Location
	secureCookie bool
	log          *logrus.Entry
}

func NewHandler(deps Deps) *Handler {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	log := deps.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		users:        deps.Users,
		records:      deps.Records,
		verification: deps.Verification,
		reports:      deps.Reports,
		sessions:     deps.Sessions,
		archive:      deps.Archive,
		loc:          loc,
		secureCookie: deps.SecureCookie,
		log:          log.WithField("component", "http"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log), corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.POST("/auth/logout", h.logout)
	}

	authed := api.Group("")
	authed.Use(h.requireSession())
	{
		authed.GET("/me", h.me)

		authed.GET("/records/unverified", h.listUnverified)
		authed.GET("/records/:kind", h.queryRecords)
		authed.POST("/records/:kind", h.submitRecord)
		authed.POST("/records/:kind/batch", h.batchSubmit)
		authed.POST("/records/:kind/:id/review", h.reviewRecord)

		authed.GET("/reports/:mode", h.runReport)
		authed.POST("/reports/:mode/archive", h.archiveReport)
		authed.GET("/archives", h.listArchives)

		authed.GET("/users/names", h.listUserNames)
		authed.GET("/users", h.listMembers)
		authed.POST("/users", h.createUser)
		authed.DELETE("/users/:id", h.deleteUser)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs one line per request once the handler chain finishes.
func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"route":   route,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if caller, ok := callerFrom(c); ok {
			entry = entry.WithField("user", caller.Name)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
