package main

import (
	"path/filepath"
	"strings"
	"time"

	"crypto-pulse/cmd/server/handlers"
	authHandlers "crypto-pulse/cmd/server/handlers/auth"
	"crypto-pulse/cmd/server/handlers/httperr"
	watchlistHandlers "crypto-pulse/cmd/server/handlers/watchlist"
	"crypto-pulse/cmd/server/middlewares"
	"crypto-pulse/internal/config"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/utils/crypto"

	_ "crypto-pulse/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// Hub is the live-stream registry the router mounts and reports on.
type Hub interface {
	watchlistHandlers.Hub
	middlewares.HubStats
}

// routerDeps are the collaborators the HTTP layer is wired against.
type routerDeps struct {
	Auth      authHandlers.AuthService
	Tokens    watchlistHandlers.TokenParser
	Watchlist watchlistHandlers.Service
	Users     middlewares.UserFinder
	Hub       Hub
	Checks    map[string]handlers.Check
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(cfg config.Config, deps routerDeps) *fiber.App {
	v := validator.New()
	if err := crypto.RegisterPasswordValidator(v); err != nil {
		logger.L().Error("failed to register password validator", "err", err)
		panic(err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, deps.Hub)
	}

	app.Get("/healthz", handlers.Healthz(deps.Checks))
	app.Get("/docs/*", swagger.HandlerDefault)

	var api fiber.Router
	if cfg.RequestLoggingEnabled {
		api = app.Group("/api", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		api = app.Group("/api")
		logger.L().Info("request logging disabled")
	}

	authLimiter := middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration)
	authH := authHandlers.NewHandlers(deps.Auth, v)

	api.Post("/signup", authLimiter, authH.SignUp)
	api.Post("/login", authLimiter, authH.Login)
	api.Post("/forgot-password", authLimiter, authH.ForgotPassword)
	api.Post("/verify-otp", authLimiter, authH.VerifyOTP)
	api.Post("/google", authH.Google)

	jwtMW := middlewares.JWT(cfg)
	watchH := watchlistHandlers.NewHandlers(deps.Watchlist, v)

	// every bearer route answers 404 once the token's account is gone
	loadUser := middlewares.LoadUser(deps.Users)

	api.Get("/cryptos", jwtMW, loadUser, watchH.List)
	api.Post("/crypto/add", jwtMW, loadUser, watchH.Add)
	api.Get("/crypto/search", jwtMW, loadUser, watchH.Search)
	api.Delete("/crypto/delete/:symbol", jwtMW, loadUser, watchH.Delete)
	api.Get("/me", jwtMW, loadUser, handlers.Me)

	api.Use(func(c *fiber.Ctx) error {
		return httperr.Fail(httperr.E{Status: fiber.StatusNotFound, Message: "Not Found"})
	})

	wsH := watchlistHandlers.NewWebSocketHandlers(deps.Hub, deps.Tokens, cfg.WSMaxSessionSec)
	app.Use("/ws", watchlistHandlers.LogWSConnections(deps.Tokens))
	app.Get("/ws/watchlist/stream", wsH.WSUpgrade, websocket.New(wsH.WSStream))

	mountStatic(app, cfg.StaticDir)

	return app
}

// mountStatic serves the UI bundle and falls back to index.html for client-side routes.
func mountStatic(app *fiber.App, dir string) {
	if dir == "" {
		return
	}

	app.Static("/", dir, fiber.Static{
		Browse: false,
		Index:  "index.html",
	})

	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/ws/") || strings.HasPrefix(c.Path(), "/docs/") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}
