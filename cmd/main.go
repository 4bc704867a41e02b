package main

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/handler"
	"github.com/trekware/fleetops/internal/middleware"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/config"
	"github.com/trekware/fleetops/pkg/database"
	"github.com/trekware/fleetops/pkg/jwtutil"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
)

func main() {
	// Load configuration
	conf, err := config.Load("fleetops")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.Client{},
		&model.Driver{},
		&model.Vehicle{},
		&model.VehicleCombination{},
		&model.Location{},
		&model.Contact{},
		&model.LogisticsOfficer{},
		&model.Manifest{},
		&model.Offense{},
		&model.GpsPing{},
		&model.ChatMessage{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Wire the tenant-scope resolver. The policy table is validated here,
	// at startup, so a missing entity-kind entry is caught before the
	// first request.
	handler.Init(tenantscope.New(tenantscope.NewOwnerLookup(db)))
	handler.InitWebhooks(conf.Webhook.Token)

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Metrics and health endpoints
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/health", handler.HealthCheck)

	// Webhook endpoints authenticate with a shared secret, not a session
	webhooks := e.Group("/webhooks")
	webhooks.POST("/gps", handler.IngestGpsPing)
	webhooks.POST("/whatsapp", handler.IngestWhatsAppMessage)

	// Authenticated API
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwt))

	api.GET("/dashboard/summary", handler.DashboardSummary)

	api.POST("/clients", handler.CreateClient)
	api.GET("/clients", handler.ListClients)
	api.GET("/clients/:id", handler.GetClient)
	api.PUT("/clients/:id", handler.UpdateClient)
	api.DELETE("/clients/:id", handler.DeleteClient)

	api.POST("/drivers", handler.CreateDriver)
	api.GET("/drivers", handler.ListDrivers)
	api.GET("/drivers/:id", handler.GetDriver)
	api.PUT("/drivers/:id/tenant", handler.ReassignDriverTenant)

	api.POST("/vehicles", handler.CreateVehicle)
	api.GET("/vehicles", handler.ListVehicles)
	api.GET("/vehicles/:id", handler.GetVehicle)
	api.PUT("/vehicles/:id/tenant", handler.ReassignVehicleTenant)
	api.GET("/vehicles/:id/pings", handler.ListVehiclePings)

	api.POST("/combinations", handler.CreateCombination)
	api.GET("/combinations", handler.ListCombinations)
	api.GET("/combinations/:id", handler.GetCombination)

	api.POST("/locations", handler.CreateLocation)
	api.GET("/locations", handler.ListLocations)
	api.GET("/locations/:id", handler.GetLocation)

	api.POST("/contacts", handler.CreateContact)
	api.GET("/contacts", handler.ListContacts)
	api.GET("/contacts/:id", handler.GetContact)

	api.GET("/messages", handler.ListChatMessages)
	api.GET("/messages/:id", handler.GetChatMessage)

	api.POST("/officers", handler.CreateOfficer)
	api.GET("/officers", handler.ListOfficers)
	api.GET("/officers/:id", handler.GetOfficer)

	api.POST("/manifests", handler.CreateManifest)
	api.GET("/manifests", handler.ListManifests)
	api.GET("/manifests/:id", handler.GetManifest)
	api.PUT("/manifests/:id/status", handler.UpdateManifestStatus)

	api.POST("/offenses", handler.CreateOffense)
	api.GET("/offenses", handler.ListOffenses)
	api.GET("/offenses/:id", handler.GetOffense)

	api.POST("/tenants", handler.CreateTenant)
	api.GET("/tenants", handler.ListTenants)
	api.GET("/tenants/:id", handler.GetTenant)

	// Start server
	log.Info("Starting fleetops on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
