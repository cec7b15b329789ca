package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"raid-recruit/internal/config"
	"raid-recruit/internal/database"
	"raid-recruit/internal/database/migration"
	dbpostgres "raid-recruit/internal/database/postgres"
	"raid-recruit/internal/database/seeder"
	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/infrastructure/cache"
	"raid-recruit/internal/infrastructure/lodestone"
	"raid-recruit/internal/pkg/jwt"
	"raid-recruit/internal/repository"
	"raid-recruit/internal/scheduler"
	"raid-recruit/internal/usecase"
	ucuser "raid-recruit/internal/usecase/user"
	"raid-recruit/internal/ws"
)

// Container owns every long-lived dependency. The HTTP server and the
// worker CLI both build one.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB        database.DB
	Cache     *cache.Redis
	Lodestone *lodestone.Client
	Hub       *ws.Hub
	JWT       *jwt.HMACService

	Users        *repository.PostgresUserRepository
	Listings     *repository.PostgresListingRepository
	Applications *repository.PostgresApplicationRepository

	UserService *ucuser.Service

	AuthUC           *usecase.Auth
	UserUC           *usecase.User
	ListingUC        *usecase.Listings
	ApplicationUC    *usecase.Applications
	RecommendationUC *usecase.Recommendations
}

func NewContainer(ctx context.Context, cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connectCtx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Cache:     cache.NewRedis(cfg.Redis, logger),
		Lodestone: lodestone.NewClient(cfg.Lodestone, logger),
		Hub:       ws.NewHub(logger),
		JWT:       jwt.NewHMACService(cfg.JWT),

		Users:        repository.NewPostgresUserRepository(db),
		Listings:     repository.NewPostgresListingRepository(db),
		Applications: repository.NewPostgresApplicationRepository(db),
	}

	manager := listing.NewManager()
	notifier := ws.NewNotifier(c.Hub)

	c.UserService = ucuser.NewService(c.Users, c.Lodestone)
	c.AuthUC = usecase.NewAuthUsecase(c.Users, c.JWT)
	c.UserUC = usecase.NewUserUsecase(c.Users, c.Lodestone)
	c.ListingUC = usecase.NewListingUsecase(c.Listings, c.Users, manager, c.Cache, notifier, logger)
	c.ApplicationUC = usecase.NewApplicationUsecase(c.Applications, c.Listings, manager, c.Cache, notifier, logger)
	c.RecommendationUC = usecase.NewRecommendationUsecase(c.Users, c.Listings, logger)

	return c, nil
}

func (c *Container) Migrate(ctx context.Context) error {
	return migration.Default(c.Logger).Run(ctx, c.DB.SQLDB())
}

func (c *Container) Seed(ctx context.Context) error {
	if err := (seeder.Runner{Seeders: seeder.Defaults(), Logger: c.Logger}).Run(ctx, c.DB); err != nil {
		return err
	}
	// seeded rows bypass the usecases, so cached pages are stale
	return c.Cache.InvalidateListings(ctx)
}

func (c *Container) Refresher() *scheduler.Refresher {
	return scheduler.NewRefresher(c.Users, c.UserService, c.Cache, c.Config.Lodestone.RefreshWorkers, c.Logger)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if err := c.Cache.Close(); err != nil {
		c.Logger.Printf("[App] cache close error: %v", err)
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
