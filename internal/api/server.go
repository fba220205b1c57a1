package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"koel/internal/cache"
	"koel/internal/config"
	"koel/internal/database"
	"koel/internal/handlers"
	"koel/internal/messaging"
	"koel/internal/metrics"
	"koel/internal/middleware"
	"koel/internal/repository"
	"koel/internal/search"
	"koel/internal/service"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP API server with its backing connections.
type Server struct {
	router   *gin.Engine
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	stations *search.StationIndex
	services *service.Services
	repos    *repository.Repositories
}

// NewServer connects to the backing stores and wires the full API.
// Postgres is required; NATS, Valkey and Elasticsearch are optional and
// their features degrade when absent.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, lifecycle events disabled", "error", err)
		natsClient = nil
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, caching disabled", "error", err)
		valkeyClient = nil
	}

	stationIndex, err := search.NewStationIndex(cfg.Search)
	if err != nil {
		slog.Warn("Elasticsearch unavailable, station search degraded", "error", err)
		stationIndex = nil
	}

	repos := repository.NewRepositories(db)

	deps := service.Deps{
		Trains:   repos.Trains,
		Bookings: repos.Bookings,
		Users:    repos.Users,
		Valkey:   valkeyClient,
	}
	if natsClient != nil {
		deps.Events = natsClient
	}
	services := service.NewServices(deps)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(metrics.Middleware())

	server := &Server{
		router:   router,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		stations: stationIndex,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.stations)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())

	api := s.router.Group("/api")
	{
		// Public endpoints
		api.POST("/users/register", h.Register)
		api.GET("/pnr/:pnr", h.GetBookingByPNR)

		trains := api.Group("/trains")
		{
			trains.GET("/search", h.SearchTrains)
			trains.GET("/:number", h.GetTrain)
			trains.GET("/:number/fare", h.GetFare)
		}

		stations := api.Group("/stations")
		{
			stations.GET("", h.ListStations)
			stations.GET("/search", h.SearchStations)
		}

		// Authenticated endpoints
		auth := api.Group("")
		auth.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
		{
			auth.GET("/users/me", h.Profile)
			auth.GET("/users/me/rewards", h.Rewards)

			bookings := auth.Group("/bookings")
			{
				bookings.POST("", h.CreateBooking)
				bookings.GET("", h.ListBookings)
				bookings.GET("/upcoming", h.UpcomingBookings)
				bookings.GET("/history", h.BookingHistory)
				bookings.GET("/:id", h.GetBooking)
				bookings.POST("/:id/cancel", h.CancelBooking)
			}

			payments := auth.Group("/payments")
			{
				payments.POST("/initiate", h.InitiatePayment)
				payments.POST("/card", h.ProcessCardPayment)
				payments.POST("/upi", h.ProcessUPIPayment)
				payments.GET("/history", h.GetPaymentHistory)
				payments.GET("/:id", h.GetPaymentStatus)
			}
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	health := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":  health.Status,
		"service": "koel-api",
		"version": "1.0.0",
		"db":      s.db.GetPoolStats(),
	})
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the backing connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
