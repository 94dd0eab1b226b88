package router

import (
	"log"
	"slices"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/events"
	"github.com/VishalMahato/LifeLine-sub001/internal/handler"
	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
	"github.com/VishalMahato/LifeLine-sub001/internal/service"
	"github.com/VishalMahato/LifeLine-sub001/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server is the wired HTTP engine plus the background workers serve runs
// next to it.
type Server struct {
	Engine  *gin.Engine
	Bus     *events.Bus
	Cleaner *service.Cleaner
	Limiter *middleware.InMemoryRateLimiter
}

func corsConfig(cfg *config.CORSConfig) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cc.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowOrigins
	}
	return cc
}

// Setup wires repositories, services and handlers. rdb may be nil.
func Setup(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.RequestLog {
		r.Use(gin.Logger())
	}
	r.Use(cors.New(corsConfig(&cfg.CORS)))
	r.Use(middleware.RequestID())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	helperRepo := repository.NewHelperRepository(db)
	ngoRepo := repository.NewNGORepository(db)
	locRepo := repository.NewLocationRepository(db)
	medicalRepo := repository.NewMedicalProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	mapHub := ws.NewMapHub(cfg.Location.MapFuzzMeters)
	bus := events.NewBus(rdb, cfg.Redis.Channel)
	bus.Subscribe(mapHub)
	if rdb != nil {
		log.Printf("[events] cross-instance fan-out on redis channel %q", cfg.Redis.Channel)
	}

	// Services
	identity := service.NewIdentityResolver(userRepo, helperRepo)
	locSvc := service.NewLocationService(cfg.Location, locRepo, ngoRepo, helperRepo, identity, bus)
	notifSvc := service.NewNotificationService(notificationRepo, mapHub)
	sosSvc := service.NewSOSService(locSvc, notifSvc, cfg.Location.SOSRadiusMeters)

	// Handlers
	locationHandler := handler.NewLocationHandler(locSvc, cfg.Location)
	distanceHandler := handler.NewDistanceHandler(locSvc)
	helperHandler := handler.NewHelperHandler(helperRepo)
	ngoHandler := handler.NewNGOHandler(ngoRepo)
	medicalHandler := handler.NewMedicalHandler(medicalRepo)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	sosHandler := handler.NewSOSHandler(sosSvc)
	healthHandler := handler.NewHealthHandler(db)

	authMw := middleware.AuthRequired(&cfg.JWT)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleNGO)

	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(authMw, middleware.RateLimit(limiter))
	{
		locations := api.Group("/locations")
		{
			locations.POST("", locationHandler.Create)
			locations.GET("", locationHandler.List)
			locations.PATCH("/current", locationHandler.UpdateCurrent)
			locations.GET("/nearby", staff, locationHandler.Nearby)
			locations.GET("/nearby/helpers", locationHandler.NearbyHelpers)
			locations.GET("/nearby/search", locationHandler.NearbyNGOs)
			locations.GET("/distance", distanceHandler.GetDistance)
			locations.GET("/:id", locationHandler.Get)
			locations.DELETE("/:id", locationHandler.Delete)
			locations.POST("/:id/verify", staff, locationHandler.Verify)
			locations.POST("/:id/deactivate", locationHandler.Deactivate)
		}

		api.POST("/sos", sosHandler.Trigger)

		api.GET("/helpers/:id", helperHandler.Get)
		api.PATCH("/helpers/me/availability", middleware.RequireRole(domain.RoleHelper), helperHandler.SetAvailability)

		api.POST("/ngos", staff, ngoHandler.Create)
		api.GET("/ngos/:id", ngoHandler.Get)

		me := api.Group("/me")
		{
			me.GET("/medical-profile", medicalHandler.Get)
			me.PUT("/medical-profile", medicalHandler.Put)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		dispatch := api.Group("/dispatch", middleware.RequireRole(domain.RoleAdmin))
		{
			dispatch.GET("/channels", notificationHandler.Pending)
			dispatch.POST("/channels/:id/attempts", notificationHandler.RecordAttempt)
		}
	}

	r.GET("/ws/map", ws.UpgradeMapWS(&cfg.JWT, mapHub))

	return &Server{
		Engine:  r,
		Bus:     bus,
		Cleaner: service.NewCleaner(locRepo, helperRepo),
		Limiter: limiter,
	}
}
