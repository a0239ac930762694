// Package main provides the ShipShape API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shipshapehq/shipshape/pkg/cmd"
	"github.com/shipshapehq/shipshape/pkg/eventbus"
	"github.com/shipshapehq/shipshape/pkg/metrics"
	"github.com/shipshapehq/shipshape/pkg/persistence"
	"github.com/shipshapehq/shipshape/pkg/web"
	"github.com/shipshapehq/shipshape/pkg/workflow"
)

type APIConfig struct {
	DefinitionsPath string
	WorkflowsDir    string
	Store           persistence.RecordStore
	Publisher       eventbus.EventPublisher
}

type API struct {
	logger  *slog.Logger
	engine  *cmd.Engine
	reaper  *workflow.Reaper
	promReg *prometheus.Registry
}

func NewAPI(logger *slog.Logger, cfg APIConfig) (*API, error) {
	promReg := prometheus.NewRegistry()

	engine, err := cmd.NewEngine(logger, cmd.EngineConfig{
		DefinitionsPath: cfg.DefinitionsPath,
		WorkflowsDir:    cfg.WorkflowsDir,
		Store:           cfg.Store,
		Publisher:       cfg.Publisher,
		ExtraSink:       metrics.NewPrometheus(promReg),
	})
	if err != nil {
		return nil, err
	}

	return &API{
		logger:  logger,
		engine:  engine,
		reaper:  workflow.NewReaper(logger, engine.Orchestrator, ""),
		promReg: promReg,
	}, nil
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine.Service, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ShipShape API")
	})

	web.Register(app, handlers)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{})))

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	if err := a.reaper.Start(ctx); err != nil {
		return err
	}

	return a.App().Listen(":" + strconv.Itoa(port))
}

func (a *API) Stop() {
	a.reaper.Stop()
}
