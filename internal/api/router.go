package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/book-rental-backend/internal/auth"
	"github.com/nekogravitycat/book-rental-backend/internal/book"
	bookHttp "github.com/nekogravitycat/book-rental-backend/internal/book/http"
	"github.com/nekogravitycat/book-rental-backend/internal/customer"
	customerHttp "github.com/nekogravitycat/book-rental-backend/internal/customer/http"
	"github.com/nekogravitycat/book-rental-backend/internal/file"
	fileHttp "github.com/nekogravitycat/book-rental-backend/internal/file/http"
	"github.com/nekogravitycat/book-rental-backend/internal/metrics"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/validation"
	"github.com/nekogravitycat/book-rental-backend/internal/rental"
	rentalHttp "github.com/nekogravitycat/book-rental-backend/internal/rental/http"
	"github.com/nekogravitycat/book-rental-backend/internal/user"
	userHttp "github.com/nekogravitycat/book-rental-backend/internal/user/http"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries the services the router exposes.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	MaxUploadBytes int64

	UserService     user.Service
	BookService     book.Service
	CustomerService customer.Service
	RentalService   rental.Service
	FileService     file.Service
	JWTManager      *auth.JWTManager
	DB              Pinger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := validation.Register(); err != nil {
		log.Fatalf("failed to register validators: %v", err)
	}
	metrics.Register()

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // frontend dev server
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	if len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	r.GET("/healthz", healthHandler(cfg.DB))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// authMiddleware: valid JWT from a still-active operator.
	authMiddleware := chain(auth.AuthRequired(cfg.JWTManager), RequireActiveUser(cfg.UserService))

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	fileHandler := fileHttp.NewHandler(cfg.FileService)
	bookHandler := bookHttp.NewHandler(cfg.BookService, fileHandler, cfg.MaxUploadBytes)
	customerHandler := customerHttp.NewHandler(cfg.CustomerService)
	rentalHandler := rentalHttp.NewHandler(cfg.RentalService)

	fileHttp.RegisterRoutes(r, fileHandler, authMiddleware)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		bookHttp.RegisterRoutes(v1, bookHandler, authMiddleware)
		customerHttp.RegisterRoutes(v1, customerHandler, authMiddleware)
		rentalHttp.RegisterRoutes(v1, rentalHandler, authMiddleware)
	}

	return r
}

// chain runs the handlers in order as one middleware, stopping at the first abort.
// The handlers must not call c.Next.
func chain(handlers ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range handlers {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for o := range strings.SplitSeq(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
