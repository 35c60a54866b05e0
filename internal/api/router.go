package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/reentry/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/reentry/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/reentry/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/reentry/internal/ws"
)

const bodyLimit = 12 * 1024 * 1024

type Dependencies struct {
	FaceService handler.FaceService
	// Hub receives face events; nil disables /v1/ws.
	Hub         *ws.Hub
	ReadyChecks map[string]handler.Check
	Version     string
}

type Router struct {
	app       *fiber.App
	logger    *slog.Logger
	deps      *Dependencies
	cancelHub context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Reentry API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger, middleware.ErrorHandler(r.logger)))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var checks map[string]handler.Check
	version := ""
	if r.deps != nil {
		checks = r.deps.ReadyChecks
		version = r.deps.Version
	}
	healthHandler := handler.NewHealthHandler(version, checks, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil || r.deps.FaceService == nil {
		return
	}

	v1 := r.app.Group("/v1")

	faceHandler := handler.NewFaceHandler(r.deps.FaceService, r.logger)
	v1.Post("/register", faceHandler.Register)
	v1.Post("/reenter", faceHandler.Reenter)
	v1.Get("/faces/count", faceHandler.Count)
	v1.Delete("/faces", faceHandler.Clear)

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelHub != nil {
		r.cancelHub()
	}

	return r.app.Shutdown()
}
