package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/config"
	"github.com/sptk-project/sptkdl/internal/server"
	"github.com/sptk-project/sptkdl/internal/storage"
)

// environment is everything a command needs once configuration is loaded.
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	files    *storage.FS // nil unless the store is a directory tree
	builder  *catalog.Builder
	registry *prometheus.Registry
	metrics  *server.Metrics
	close    func()
}

// openEnvironment loads the configuration named by --config and opens its store.
// Callers must call env.close.
func openEnvironment(c *cli.Context) (*environment, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		log.Error("failed to load config", "error", err)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env := &environment{
		cfg:      cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
		close:    func() {},
	}
	env.metrics = server.NewMetrics(env.registry)

	if err := env.openStore(c.String("log-level")); err != nil {
		log.Error("failed to open store", "kind", cfg.Config.Store.Kind, "error", err)
		return nil, err
	}

	env.builder = catalog.NewBuilder(env.store, cfg.Targets(), cfg.Prefixes(), log)
	return env, nil
}

func (e *environment) openStore(logLevel string) error {
	sc := e.cfg.Config.Store
	switch sc.Kind {
	case config.StoreKindSQLite:
		db, err := storage.InitDB(storage.Config{
			DatabasePath: sc.DatabasePath,
			LogLevel:     gormLogLevel(logLevel),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		e.store = db
		e.close = func() {
			if closeErr := db.Close(); closeErr != nil {
				// Log close error but don't fail - we're in cleanup
				e.logger.Warn("failed to close database", "error", closeErr)
			}
		}
	default:
		fsStore, err := storage.NewDir(sc.Root,
			storage.WithDropFunc(e.metrics.DropFunc()),
			storage.WithLogger(e.logger),
		)
		if err != nil {
			return fmt.Errorf("failed to open store root: %w", err)
		}
		e.store = fsStore
		e.files = fsStore
	}
	return nil
}
