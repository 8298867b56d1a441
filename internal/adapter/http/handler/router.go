package handler

import (
	"time"

	"gig-escrow/internal/adapter/http/middleware"
	"gig-escrow/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.TokenLedger
	ReputationSvc  ports.ReputationRegistry
	GigSvc         ports.GigRegistry
	EscrowSvc      ports.OrderEscrow
	FeeSvc         ports.FeePolicy
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimiter    ports.RateLimiter      // nil = rate limiting disabled
	Claims         ports.ClaimStore       // nil = idempotency keys ignored
	IdemCache      ports.IdempotencyCache // nil = idempotency keys ignored
	IdempotencyTTL time.Duration
	AuditSvc       ports.AuditService // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	noop := func(c *gin.Context) { c.Next() }
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if a limiter is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return noop
		}
		rule, ok := rules[group]
		if !ok {
			return noop
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	idem := noop
	if deps.Claims != nil && deps.IdemCache != nil {
		idem = middleware.Idempotency(deps.Claims, deps.IdemCache, deps.IdempotencyTTL, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	optionalAuth := middleware.OptionalAuth(deps.TokenSvc)
	reads := rl("reads")

	// Reads are public; a bearer token only resolves "me" in filters.
	v1 := r.Group("/api/v1", optionalAuth)

	credentialHandler := NewCredentialHandler(deps.ReputationSvc)
	credentials := v1.Group("/credentials")
	{
		credentials.POST("", jwtAuth, rl("credentials"), idem, credentialHandler.Mint)
		credentials.GET("/:holder", reads, credentialHandler.Get)
	}

	gigHandler := NewGigHandler(deps.GigSvc)
	gigs := v1.Group("/gigs")
	{
		gigs.GET("", reads, gigHandler.List)
		gigs.GET("/:id", reads, gigHandler.Get)
		gigs.POST("", jwtAuth, rl("gigs"), idem, gigHandler.Create)
		gigs.POST("/:id/toggle", jwtAuth, rl("gigs"), idem, gigHandler.Toggle)
	}

	orderHandler := NewOrderHandler(deps.EscrowSvc)
	orders := v1.Group("/orders")
	{
		orders.GET("", reads, orderHandler.List)
		orders.GET("/:id", reads, orderHandler.Get)
		orders.POST("", jwtAuth, rl("orders"), idem, orderHandler.Place)
		orders.POST("/:id/deliver", jwtAuth, rl("orders"), idem, orderHandler.Deliver)
		orders.POST("/:id/approve", jwtAuth, rl("orders"), idem, orderHandler.Approve)
		orders.POST("/:id/reject", jwtAuth, rl("orders"), idem, orderHandler.Reject)
	}

	adminHandler := NewAdminHandler(deps.EscrowSvc, deps.FeeSvc)
	admin := v1.Group("/admin", jwtAuth, rl("admin"))
	{
		admin.POST("/orders/:id/resolve", idem, adminHandler.ResolveDispute)
		admin.PUT("/fee", idem, adminHandler.SetFee)
	}
	v1.GET("/fee", reads, adminHandler.GetFee)

	tokenHandler := NewTokenHandler(deps.LedgerSvc)
	token := v1.Group("/token")
	{
		token.GET("/supply", reads, tokenHandler.Supply)
		token.POST("/mint", jwtAuth, rl("token"), idem, tokenHandler.Mint)
		token.POST("/transfer", jwtAuth, rl("token"), idem, tokenHandler.Transfer)
		token.POST("/approve", jwtAuth, rl("token"), idem, tokenHandler.Approve)
		token.POST("/transfer-from", jwtAuth, rl("token"), idem, tokenHandler.TransferFrom)
	}
	accounts := v1.Group("/accounts/:id", reads)
	{
		accounts.GET("/balance", tokenHandler.Balance)
		accounts.GET("/allowance/:spender", tokenHandler.Allowance)
	}

	reportingHandler := NewReportingHandler(deps.ReportingSvc)
	v1.GET("/sellers/:id/stats", reads, reportingHandler.SellerStats)
	events := v1.Group("/events", reads)
	{
		events.GET("", reportingHandler.ListEvents)
		events.GET("/verify", reportingHandler.VerifyChain)
	}

	return r
}
