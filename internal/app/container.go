package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/book-rental-backend/internal/api"
	"github.com/nekogravitycat/book-rental-backend/internal/auth"
	"github.com/nekogravitycat/book-rental-backend/internal/book"
	"github.com/nekogravitycat/book-rental-backend/internal/customer"
	"github.com/nekogravitycat/book-rental-backend/internal/file"
	"github.com/nekogravitycat/book-rental-backend/internal/pkg/storage"
	"github.com/nekogravitycat/book-rental-backend/internal/rental"
	"github.com/nekogravitycat/book-rental-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	DBPool          *pgxpool.Pool
	JWTSecret       string
	JWTTTL          time.Duration
	BcryptCost      int
	StoragePath     string
	MaxUploadSizeMB int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router *gin.Engine
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// File Module
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, store)

	// Book Module
	bookRepo := book.NewPgxRepository(cfg.DBPool)
	bookService := book.NewService(bookRepo)

	// Customer Module
	customerRepo := customer.NewPgxRepository(cfg.DBPool)
	customerService := customer.NewService(customerRepo)

	// Rental Module
	rentalRepo := rental.NewPgxRepository(cfg.DBPool)
	rentalService := rental.NewService(rentalRepo, bookService, customerService)

	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		MaxUploadBytes:  int64(cfg.MaxUploadSizeMB) << 20,
		UserService:     userService,
		BookService:     bookService,
		CustomerService: customerService,
		RentalService:   rentalService,
		FileService:     fileService,
		JWTManager:      jwtManager,
		DB:              cfg.DBPool,
	})

	return &Container{Router: router}, nil
}
