package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/haguru/choji/config"
	"github.com/haguru/choji/internal/auth"
	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/internal/middleware"
	"github.com/haguru/choji/internal/password"
	"github.com/haguru/choji/internal/recipeservice"
	"github.com/haguru/choji/internal/repository/constants"
	memoryRepo "github.com/haguru/choji/internal/repository/memory"
	mongoRepo "github.com/haguru/choji/internal/repository/mongo"
	postgresRepo "github.com/haguru/choji/internal/repository/postgres"
	"github.com/haguru/choji/internal/routes"
	"github.com/haguru/choji/internal/server"
	"github.com/haguru/choji/internal/session"
	"github.com/haguru/choji/internal/userservice"
	"github.com/haguru/choji/pkg/databases/mongo"
	"github.com/haguru/choji/pkg/databases/postgres"
	"github.com/haguru/choji/pkg/metrics"
	"github.com/haguru/choji/pkg/zerolog"
)

// ShutdownTimeout bounds how long Run waits for in flight requests.
var ShutdownTimeout = 10 * time.Second

// App represents the main application, containing server and configuration.
// It initializes with a config file, validates settings, and manages routes.
type App struct {
	Server     interfaces.Server
	Config     *config.ServiceConfig
	Logger     interfaces.Logger
	Metrics    interfaces.Metrics
	privateKey *ecdsa.PrivateKey
	closers    []func(ctx context.Context) error
}

type repositories struct {
	users   interfaces.UserRepository
	recipes interfaces.RecipeRepository
}

// NewApp reads the configuration at configPath and builds the App.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.ReadLocalConfig(configPath)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New creates and wires a new App instance from cfg. Connections opened
// before a failure are closed again.
func New(ctx context.Context, cfg *config.ServiceConfig) (*App, error) {
	// Validate the configuration
	validator := structValidator.New()
	if err := cfg.Validate(validator); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	ready := false
	defer func() {
		if !ready {
			_ = app.close(context.Background())
		}
	}()

	app.Logger = zerolog.NewZerologLogger(cfg.ServiceName)
	app.Logger.SetLevel(cfg.LogLevel)
	app.Metrics = app.initializeMetrics()

	if err := app.initializePrivateKey(); err != nil {
		return nil, fmt.Errorf("failed to initialize private key: %w", err)
	}

	vault, err := password.NewVault(cfg.Password.Cost, cfg.Password.MaxConcurrentHashes)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password vault: %w", err)
	}

	store, err := app.initializeSessionStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	sessions, err := session.NewManager(store, app.privateKey, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	repos, err := app.initializeRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	userService := userservice.NewUserService(repos.users, vault, app.Logger)
	recipeService := recipeservice.NewRecipeService(repos.recipes, repos.users, validator, app.Logger)

	route := routes.NewRoute(app.Metrics, userService, recipeService, sessions, validator, app.Logger,
		routes.CookieSettings{Name: cfg.Session.CookieName, Secure: cfg.Session.SecureCookie})

	app.Server = server.NewServer(cfg.ServiceName, cfg.Host, cfg.Port, app.Logger)
	app.Server.Use(middleware.Recover(app.Logger))
	app.Server.Use(middleware.RequestLogger(app.Logger))
	app.Server.Use(middleware.Instrument(app.Metrics))

	if err := app.registerRoutes(route); err != nil {
		return nil, err
	}

	ready = true
	return app, nil
}

// Run serves until ctx is canceled, then shuts the server down gracefully
// and closes the database and session store connections.
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.ListenAndServe()
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		app.Logger.Info("Shutdown requested", "service", app.Config.ServiceName)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if serveErr == nil {
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := <-errCh; err != nil && serveErr == nil {
			serveErr = err
		}
	}

	return errors.Join(serveErr, app.close(shutdownCtx))
}

func (app *App) registerRoutes(route *routes.Route) error {
	metricsHandler := promhttp.HandlerFor(
		app.Metrics.GetRegistry(),
		promhttp.HandlerOpts{})

	if err := app.Server.Handle(routes.MetricsRouteAPI, metricsHandler); err != nil {
		return fmt.Errorf("failed to add metrics route: %w", err)
	}

	api := []struct {
		pattern string
		name    string
		handler routes.HandlerFunc
	}{
		{routes.SignupRouteAPI, routes.SignupHandler, route.Signup},
		{routes.LoginRouteAPI, routes.LoginHandler, route.Login},
		{routes.LogoutRouteAPI, routes.LogoutHandler, route.Logout},
		{routes.CheckSessionRouteAPI, routes.CheckSessionHandler, route.CheckSession},
		{routes.ListRecipesRouteAPI, routes.ListRecipesHandler, route.ListRecipes},
		{routes.CreateRecipeRouteAPI, routes.CreateRecipeHandler, route.CreateRecipe},
	}
	for _, r := range api {
		if err := app.Server.AddRoute(r.pattern, route.Respond(r.name, r.handler)); err != nil {
			return fmt.Errorf("failed to add %s route: %w", r.name, err)
		}
	}

	return nil
}

func (app *App) initializeMetrics() interfaces.Metrics {
	appMetrics := metrics.NewMetrics(app.Config.ServiceName)
	routes.RegisterMetrics(appMetrics)
	middleware.RegisterMetrics(appMetrics)
	return appMetrics
}

func (app *App) initializeSessionStore(ctx context.Context) (interfaces.SessionStore, error) {
	switch app.Config.Session.Store {
	case config.SessionStoreRedis:
		redisCfg := app.Config.Session.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Address,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.Logger.Info("Using Redis session store", "address", redisCfg.Address)
		return session.NewRedisStore(client, app.Config.Session.KeyPrefix), nil

	case config.SessionStoreMemory:
		app.Logger.Info("Using in-memory session store")
		return session.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported session store: %s", app.Config.Session.Store)
	}
}

// initializeRepositories connects the configured database and prepares its
// schema. Users are prepared before recipes because recipes reference them.
func (app *App) initializeRepositories(ctx context.Context) (*repositories, error) {
	repos := &repositories{}

	switch app.Config.Database.Type {
	case config.DatabaseMongo:
		// Initialize MongoDB client
		dbClient, err := mongo.NewMongoDB(&app.Config.Database.MongoDB, constants.CountersCollection)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}
		if err = app.connect(ctx, dbClient, app.Config.Database.MongoDB.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}

		if repos.users, err = mongoRepo.NewMongoUserRepository(dbClient); err != nil {
			return nil, err
		}
		if repos.recipes, err = mongoRepo.NewMongoRecipeRepository(dbClient); err != nil {
			return nil, err
		}

	case config.DatabasePostgres:
		// Create PostgreSQL database client
		dbClient := postgres.NewPostgresDatabaseClient(&app.Config.Database.Postgres)
		if err := app.connect(ctx, dbClient, app.Config.Database.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		var err error
		if repos.users, err = postgresRepo.NewPostgresUserRepository(dbClient); err != nil {
			return nil, err
		}
		if repos.recipes, err = postgresRepo.NewPostgresRecipeRepository(dbClient); err != nil {
			return nil, err
		}

	case config.DatabaseMemory:
		store := memoryRepo.NewStore()
		repos.users = memoryRepo.NewUserRepository(store)
		repos.recipes = memoryRepo.NewRecipeRepository(store)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", app.Config.Database.Type)
	}

	if err := repos.users.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure user indices: %w", err)
	}
	if err := repos.recipes.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure recipe indices: %w", err)
	}

	app.Logger.Info("Repositories ready", "database", app.Config.Database.Type)
	return repos, nil
}

// connect opens dbClient and registers it to be disconnected on shutdown.
func (app *App) connect(ctx context.Context, dbClient interfaces.DBClient, dsn string) error {
	if err := dbClient.Connect(ctx, dsn); err != nil {
		_ = dbClient.Disconnect(ctx)
		return err
	}
	app.closers = append(app.closers, dbClient.Disconnect)
	return nil
}

func (app *App) initializePrivateKey() error {
	if app.Config.PrivateKeyPath == "" {
		return fmt.Errorf("private key path is not provided in the configuration")
	}

	privateKey, err := auth.LoadOrCreateECDSAPrivateKey(app.Config.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load private key: %w", err)
	}

	app.privateKey = privateKey
	return nil
}

// close releases connections in reverse order of opening.
func (app *App) close(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
