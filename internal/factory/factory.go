package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mathrush/mathrush-go/internal/archive"
	"github.com/mathrush/mathrush-go/internal/dependencies/clock"
	"github.com/mathrush/mathrush-go/internal/dependencies/random"
	"github.com/mathrush/mathrush-go/internal/gateway"
	"github.com/mathrush/mathrush-go/internal/registry"
	"github.com/mathrush/mathrush-go/internal/services/equation"
	"github.com/mathrush/mathrush-go/internal/services/turn"
	"github.com/mathrush/mathrush-go/internal/storage"
	"github.com/mathrush/mathrush-go/internal/storage/memory"
	redisstorage "github.com/mathrush/mathrush-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Generator   *equation.Generator
	Registry    *registry.Registry
	Coordinator *turn.Coordinator
	Archive     *archive.Service
	HubManager  *gateway.HubManager
	Gateway     *gateway.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the archive backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RoomRetention is how long completed or empty rooms linger before
	// the sweeper removes them. Zero means the default retention.
	RoomRetention time.Duration
	// TurnTimeout is the per-turn deadline. Zero means the default.
	TurnTimeout time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	retention := cfg.RoomRetention
	if retention == 0 {
		retention = registry.DefaultRetention
	}

	return newWithDependencies(store, clk, rnd, retention, cfg.TurnTimeout, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, retention, turnTimeout time.Duration, logger *slog.Logger) *App {
	generator := equation.NewGenerator(rnd)
	reg := registry.New(clk, retention, logger)
	coordinator := turn.NewCoordinator(reg, generator, clk, logger)
	archiveService := archive.New(store, logger)
	hubManager := gateway.NewHubManager(logger)
	gw := gateway.New(coordinator, hubManager, turnTimeout, logger)

	// Broadcast before archiving; both run inside the room's
	// serialization point, so each sink sees snapshots in version order
	coordinator.AddSink(gw)
	coordinator.AddSink(archiveService)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Generator:   generator,
		Registry:    reg,
		Coordinator: coordinator,
		Archive:     archiveService,
		HubManager:  hubManager,
		Gateway:     gw,
	}
}

// Close releases background resources: pending turn deadlines and the
// archive worker, which drains its queue before returning
func (a *App) Close() {
	a.Gateway.Shutdown()
	a.Archive.Close()
}
