// Package server wires services, the sync scheduler and the HTTP router
// into one application.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "goze/internal/docs" // registers the swagger spec

	apperrors "goze/internal/errors"
	"goze/internal/handlers"
	"goze/internal/logger"
	"goze/internal/middleware"
	"goze/internal/ratelimit"
	"goze/internal/response"
	"goze/internal/scheduler"
	"goze/internal/services"
	"goze/internal/token"
)

// PlaidClient is everything the application needs from Plaid.
type PlaidClient interface {
	services.PlaidAPI
	scheduler.SyncClient
}

// Options tunes the application.
type Options struct {
	Lockout         services.LockoutPolicy
	Cookies         handlers.CookieConfig
	PlaidClientName string
	Sync            scheduler.Config
	SyncAPIKey      string
	CORSOrigin      string
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is
	// believed when resolving the client IP. Empty trusts none.
	TrustedProxies  []string
}

// App holds the services and scheduler shared by the HTTP server and the
// operator CLI.
type App struct {
	Users        services.UserServicer
	Auth         services.AuthServicer
	Items        services.ItemServicer
	Accounts     services.AccountServicer
	Transactions services.TransactionServicer
	Plaid        services.PlaidServicer
	Audit        services.AuditServicer
	Scheduler    *scheduler.Scheduler

	db   *gorm.DB
	opts Options
}

// NewApp builds the service graph on db.
func NewApp(db *gorm.DB, client PlaidClient, issuer *token.Issuer, limiter ratelimit.Limiter, opts Options) *App {
	if opts.Cookies.MaxAge == 0 {
		opts.Cookies = handlers.DefaultCookieConfig
	}

	audit := services.NewAuditService(db)
	users := services.NewUserService(db, opts.Lockout)
	items := services.NewItemService(db)
	accounts := services.NewAccountService(db)
	transactions := services.NewTransactionService(db)

	return &App{
		Users:        users,
		Auth:         services.NewAuthService(users, issuer, limiter, audit),
		Items:        items,
		Accounts:     accounts,
		Transactions: transactions,
		Plaid:        services.NewPlaidService(client, items, accounts, audit, opts.PlaidClientName),
		Audit:        audit,
		Scheduler:    scheduler.New(client, items, accounts, transactions, opts.Sync),
		db:           db,
		opts:         opts,
	}
}

// Router builds the Gin engine serving the API.
func (a *App) Router() *gin.Engine {
	authHandler := handlers.NewAuthHandler(a.Auth, a.opts.Cookies)
	accountHandler := handlers.NewAccountHandler(a.Accounts)
	transactionHandler := handlers.NewTransactionHandler(a.Transactions)
	plaidHandler := handlers.NewPlaidHandler(a.Plaid, a.Items, a.Scheduler)
	syncHandler := handlers.NewSyncHandler(a.Scheduler)

	router := gin.New()
	if err := router.SetTrustedProxies(a.opts.TrustedProxies); err != nil {
		logger.Named("server").Errorw("invalid trusted proxies, trusting none", "proxies", a.opts.TrustedProxies, "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(a.opts.CORSOrigin))

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.ErrEndpointNotFound)
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", a.health)

	internal := router.Group("/api/internal")
	internal.Use(middleware.APIKeyMiddleware(a.opts.SyncAPIKey))
	internal.POST("/sync/run", syncHandler.RunAll)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/validate", authHandler.Validate)
	auth.POST("/logout", authHandler.Logout)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(a.Auth))

	dashboard := protected.Group("/dashboard")
	dashboard.POST("/accounts/get/all", accountHandler.GetAccounts)
	dashboard.POST("/transactions/get/all", transactionHandler.GetTransactions)
	dashboard.POST("/transactions/get/expenses", transactionHandler.GetExpenses)
	dashboard.PATCH("/transactions/:id", transactionHandler.UpdateTransaction)

	plaidGroup := protected.Group("/plaid")
	plaidGroup.POST("/link_token/create", plaidHandler.CreateLinkToken)
	plaidGroup.POST("/public_token/exchange", plaidHandler.ExchangePublicToken)
	plaidGroup.GET("/items", plaidHandler.GetItems)
	plaidGroup.POST("/items/:id/sync", plaidHandler.SyncItem)
	plaidGroup.POST("/sync", plaidHandler.SyncAll)

	return router
}

// health reports 503 while the database does not answer a ping.
func (a *App) health(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		logger.Named("health").Warnw("database ping failed", "error", err)
		response.Error(c, apperrors.ErrServiceUnavailable)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"status": "ok"})
}
