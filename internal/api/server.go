package api

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/sorteoapp/sorteo-api/docs"
	v1 "github.com/sorteoapp/sorteo-api/internal/api/handler/v1"
	"github.com/sorteoapp/sorteo-api/internal/api/middleware"
	"github.com/sorteoapp/sorteo-api/internal/config"
	"github.com/sorteoapp/sorteo-api/internal/db"
	"github.com/sorteoapp/sorteo-api/internal/mirror"
	"github.com/sorteoapp/sorteo-api/internal/realtime"
	"github.com/sorteoapp/sorteo-api/internal/repository"
	"github.com/sorteoapp/sorteo-api/internal/repository/dao"
	"github.com/sorteoapp/sorteo-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, gormDB *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	if err := dao.InitTables(gormDB); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	s.MountMiddlewares()

	queryTimeout := time.Duration(conf.Sales.QueryTimeoutSeconds) * time.Second

	limitSvc := s.initLimitService(gormDB)
	ticketSvc := s.initTicketService(gormDB, limitSvc)

	authSvc := s.initAuthService(gormDB)
	if err := authSvc.EnsureAdmin(context.Background(), "Administrator", conf.API.AdminEmail, conf.API.AdminPassword); err != nil {
		return nil, fmt.Errorf("authSvc.EnsureAdmin -> %w", err)
	}

	authHandler := v1.NewAuthHandler(s.Config.API, authSvc)
	vendorHandler := v1.NewVendorHandler(s.initVendorService(gormDB))
	eventHandler := v1.NewEventHandler(s.initEventService(gormDB))
	ticketHandler := v1.NewTicketHandler(ticketSvc, queryTimeout)
	limitHandler := v1.NewLimitHandler(limitSvc, queryTimeout)
	liveHandler := s.initLiveHandler(ticketSvc, limitSvc)

	s.MountHandlers(authHandler, vendorHandler, eventHandler, ticketHandler, limitHandler, liveHandler)

	return s, nil
}

func (s *Server) initAuthService(gormDB *gorm.DB) *service.AuthService {
	vendorDAO := dao.NewVendorDAO(gormDB)
	repo := repository.NewVendorRepository(vendorDAO)

	return service.NewAuthService(repo)
}

func (s *Server) initVendorService(gormDB *gorm.DB) *service.VendorService {
	vendorDAO := dao.NewVendorDAO(gormDB)
	repo := repository.NewVendorRepository(vendorDAO)

	return service.NewVendorService(repo)
}

func (s *Server) initEventService(gormDB *gorm.DB) *service.EventService {
	eventDAO := dao.NewEventDAO(gormDB)
	repo := repository.NewEventRepository(eventDAO)

	return service.NewEventService(repo)
}

func (s *Server) initLimitService(gormDB *gorm.DB) *service.LimitService {
	limitDAO := dao.NewLimitDAO(gormDB)
	repo := repository.NewLimitRepository(limitDAO)

	return service.NewLimitService(repo)
}

func (s *Server) initTicketService(gormDB *gorm.DB, limits *service.LimitService) *service.TicketService {
	ticketDAO := dao.NewTicketDAO(gormDB)
	repo := repository.NewTicketRepository(ticketDAO)
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(gormDB))

	return service.NewTicketService(repo, eventRepo, limits, s.Config.Sales.PricePerTime)
}

func (s *Server) initLiveHandler(tickets *service.TicketService, limits *service.LimitService) *v1.LiveHandler {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = db.PostgresDSN(s.Config.Postgres)
	}
	factory := realtime.NewPGListenerFactory(dbURL)

	return v1.NewLiveHandler(tickets, limits, mirror.New(), factory, s.Config.Realtime)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	vendorHandler *v1.VendorHandler,
	eventHandler *v1.EventHandler,
	ticketHandler *v1.TicketHandler,
	limitHandler *v1.LimitHandler,
	liveHandler *v1.LiveHandler,
) {
	const basePath = "/api/v1"

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	events := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		events.GET("/events", eventHandler.HandleListEvents)
		events.GET("/events/:eventID", eventHandler.HandleGetEvent)

		events.GET("/events/:eventID/tickets", ticketHandler.HandleListTickets)
		events.POST("/events/:eventID/tickets", ticketHandler.HandleCreateTicket)
		events.PUT("/events/:eventID/tickets/:ticketID", ticketHandler.HandleUpdateTicket)
		events.DELETE("/events/:eventID/tickets/:ticketID", ticketHandler.HandleDeleteTicket)
		events.POST("/events/:eventID/tickets/claim", ticketHandler.HandleClaimVendorless)

		events.GET("/events/:eventID/limits", limitHandler.HandleListLimits)
		events.GET("/events/:eventID/availability", limitHandler.HandleCheckAvailability)

		events.GET("/events/:eventID/live", liveHandler.HandleLiveSync)
	}

	admin := s.Router.Group(basePath, authenticator.VerifyJWT(), authenticator.RequireAdmin())
	{
		admin.POST("/events", eventHandler.HandleCreateEvent)
		admin.PUT("/events/:eventID", eventHandler.HandleUpdateEvent)
		admin.DELETE("/events/:eventID", eventHandler.HandleDeleteEvent)
		admin.POST("/events/:eventID/award", eventHandler.HandleAwardEvent)
		admin.POST("/events/:eventID/close", eventHandler.HandleCloseEvent)

		admin.POST("/events/:eventID/limits", limitHandler.HandleCreateLimit)
		admin.PUT("/events/:eventID/limits/:limitID", limitHandler.HandleUpdateLimit)
		admin.DELETE("/events/:eventID/limits/:limitID", limitHandler.HandleDeleteLimit)

		admin.GET("/vendors", vendorHandler.HandleListVendors)
		admin.PUT("/vendors/:vendorID", vendorHandler.HandleUpdateVendor)
		admin.DELETE("/vendors/:vendorID", vendorHandler.HandleDeleteVendor)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Sorteo API"
	docs.SwaggerInfo.Description = "Raffle ticket sales API with per-number limits and live vendor sync."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
