package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "github.com/karthik1704/rsr-v1/internal/auth"
	"github.com/karthik1704/rsr-v1/internal/payments"
	"github.com/karthik1704/rsr-v1/internal/resumes"
	"github.com/karthik1704/rsr-v1/internal/services/health"
	"github.com/karthik1704/rsr-v1/internal/shared/config"
	"github.com/karthik1704/rsr-v1/internal/shared/metrics"
	"github.com/karthik1704/rsr-v1/internal/shared/server/middleware"
	"github.com/karthik1704/rsr-v1/internal/users"
)

const apiPrefix = "/api/v1"

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config   config.Config
	Tokens   middleware.TokenVerifier
	Health   *health.Service
	Users    *users.Handler
	Resumes  *resumes.Handler
	Payments *payments.Handler
	Google   *googleauth.GoogleService
	Limiter  *middleware.RateLimiter
	// Staff decides access to operator endpoints. Nil trusts the token claim.
	Staff middleware.StaffLookup
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Tokens,
			apiPrefix+"/auth/",
			apiPrefix+"/payments/webhook",
			apiPrefix+"/health",
		),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules,
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})
	api.GET("/metrics", middleware.RequireStaff(deps.Staff), metrics.Handler())

	if deps.Google != nil {
		deps.Google.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterAuthRoutes(api)
		deps.Users.RegisterRoutes(api)
	}
	if deps.Resumes != nil {
		deps.Resumes.RegisterRoutes(api)
	}
	if deps.Payments != nil {
		deps.Payments.RegisterWebhook(api)
		deps.Payments.RegisterRoutes(api)
	}
	return r
}

var rateLimitRules = map[string]middleware.RateLimitRule{
	"DEFAULT": {Rate: 10, Burst: 40},
	"AUTH":    {Rate: 0.5, Burst: 10},
	"UPLOAD":  {Rate: 0.2, Burst: 5},
	"WEBHOOK": {Rate: 20, Burst: 100},
}

func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case path == apiPrefix+"/payments/webhook":
		return "WEBHOOK"
	case strings.HasPrefix(path, apiPrefix+"/auth/"):
		return "AUTH"
	case path == apiPrefix+"/resumes/:id/image" && c.Request.Method == http.MethodPut:
		return "UPLOAD"
	case path == apiPrefix+"/health" || path == apiPrefix+"/metrics":
		return "UNLIMITED"
	default:
		return "DEFAULT"
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
