package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memories/pkg/cache"
	"memories/pkg/config"
	"memories/pkg/database"
	"memories/pkg/jwt"
	"memories/pkg/logger"
	"memories/pkg/metrics"
	"memories/pkg/middleware"
	"memories/pkg/queue"
	"memories/pkg/s3"
	postHTTP "memories/services/post/internal/controller/http"
	"memories/services/post/internal/repo/persistent"
	"memories/services/post/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"

	_ "memories/services/post/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	mongoClient *mongo.Client
	postRepo    persistent.PostRepository
	redisClient *redis.Client
	s3Client    *s3.Client
	queueClient *queue.Client
	jwtService  *jwt.Service
	metrics     metrics.Provider
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()
	a := &App{
		cfg:        cfg,
		log:        log,
		jwtService: jwt.NewService(cfg.JWTSecret),
		metrics:    metrics.NewPrometheusProvider(),
	}

	postRepo, err := a.openStore()
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StoreDriver, err)
		return nil, err
	}
	a.postRepo = persistent.NewInstrumentedPostRepository(postRepo, a.metrics)

	if cfg.RateLimitPerMinute > 0 {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Error("Failed to connect to redis: %v", err)
			return nil, err
		}
		a.redisClient = redisClient
	}

	if cfg.MediaOffloadEnabled() {
		s3Client, err := s3.NewClient(cfg)
		if err != nil {
			log.Error("Failed to create S3 client: %v", err)
			return nil, err
		}
		a.s3Client = s3Client
	}

	if cfg.QueueEnabled() {
		queueClient, err := queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
		} else {
			a.queueClient = queueClient
		}
	}

	return a, nil
}

func (a *App) openStore() (persistent.PostRepository, error) {
	switch a.cfg.StoreDriver {
	case config.StoreMongo:
		client, err := database.NewMongoClient(a.cfg)
		if err != nil {
			return nil, err
		}
		a.mongoClient = client

		db := client.Database(a.cfg.MongoDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := persistent.EnsureMongoIndexes(ctx, db); err != nil {
			a.log.Warn("Failed to ensure mongo indexes: %v", err)
		}
		return persistent.NewMongoPostRepository(db), nil

	case config.StorePostgres:
		// Schema is managed by goose, see cmd/migrate.
		db, err := database.NewPostgresDB(a.cfg)
		if err != nil {
			return nil, err
		}
		a.db = db
		return persistent.NewPostgresPostRepository(db), nil

	case config.StoreMemory:
		a.log.Warn("Using in-memory store, posts are lost on restart")
		return persistent.NewMemoryPostRepository(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
}

// RouterDeps holds what the HTTP layer needs. A nil RedisClient disables rate
// limiting.
type RouterDeps struct {
	PostUseCase usecase.PostUseCase
	JWTService  *jwt.Service
	RedisClient *redis.Client
	RateLimit   int
	Metrics     metrics.Provider
	Logger      *logger.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	postHandler := postHTTP.NewPostHandler(deps.PostUseCase, deps.Logger)

	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuthMiddleware(deps.JWTService))
	if deps.RedisClient != nil {
		api.Use(middleware.RateLimitMiddleware(deps.RedisClient, deps.RateLimit, time.Minute))
	}

	{
		api.GET("/posts", postHandler.ListPosts)
		api.GET("/posts/search", postHandler.SearchPosts)
		api.GET("/posts/:id", postHandler.GetPost)
		// Anonymous likes reach the handler, which answers them itself.
		api.PATCH("/posts/:id/likePost", postHandler.LikePost)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWTService))
	{
		protected.POST("/posts", postHandler.CreatePost)
		protected.PATCH("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/commentPost", postHandler.CommentPost)
	}

	return r
}

func (a *App) Run() error {
	var media usecase.MediaStore
	if a.s3Client != nil {
		media = a.s3Client
	}
	var publisher usecase.EventPublisher
	if a.queueClient != nil {
		publisher = a.queueClient
	}

	postUseCase := usecase.NewPostUseCase(a.postRepo, media, publisher, a.metrics, a.log)

	gin.SetMode(gin.ReleaseMode)
	r := NewRouter(RouterDeps{
		PostUseCase: postUseCase,
		JWTService:  a.jwtService,
		RedisClient: a.redisClient,
		RateLimit:   a.cfg.RateLimitPerMinute,
		Metrics:     a.metrics,
		Logger:      a.log,
	})

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	go func() {
		a.log.Info("Post service starting on port %s (store: %s)", a.cfg.ServerPort, a.cfg.StoreDriver)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down post service...")
}

func (a *App) Shutdown() error {
	// The server gets 5 seconds to drain in-flight requests.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.log.Error("Error closing database: %v", err)
			}
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Error("Error closing mongo: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	a.log.Info("Post service exited")
	return nil
}
