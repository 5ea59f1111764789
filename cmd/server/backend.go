package main

import (
	"context"
	"fmt"

	"github.com/vedran77/dmcore/internal/config"
	"github.com/vedran77/dmcore/internal/database"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/observability"
	"github.com/vedran77/dmcore/internal/repository"
	"github.com/vedran77/dmcore/internal/repository/memory"
	postgresrepo "github.com/vedran77/dmcore/internal/repository/postgres"
	"github.com/vedran77/dmcore/internal/service"
)

type backend struct {
	dms       repository.DMRepository
	contacts  repository.ContactRepository
	retention repository.RetentionRepository
	close     func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	log := observability.Logger()

	var b *backend
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := database.RunMigrations(cfg.DSN()); err != nil {
				return nil, err
			}
			log.Info().Msg("migrations applied")
		}
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.DBHost).Msg("connected to database")
		b = &backend{
			dms:       postgresrepo.NewDMRepo(pool),
			contacts:  postgresrepo.NewContactRepo(pool),
			retention: postgresrepo.NewRetentionRepo(pool),
			close:     pool.Close,
		}
	default:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		b = &backend{
			dms:       memory.NewDMStore(),
			contacts:  memory.NewContactStore(),
			retention: memory.NewRetentionStore(),
			close:     func() {},
		}
	}

	if cfg.DirectorySeed != "" {
		if err := seedDirectory(ctx, b.contacts, cfg.DirectorySeed); err != nil {
			b.close()
			return nil, err
		}
	}
	return b, nil
}

func seedDirectory(ctx context.Context, contacts repository.ContactRepository, path string) error {
	seed, err := config.LoadDirectorySeed(path)
	if err != nil {
		return err
	}
	dir := service.NewRepoDirectory(contacts)
	for _, c := range seed {
		contact := domain.Contact{
			DisplayName: c.DisplayName,
			Email:       c.Email,
			Phone:       c.Phone,
			Role:        c.Role,
		}
		if err := dir.AddContact(ctx, c.Owner, contact); err != nil {
			return fmt.Errorf("seeding contact %s for %s: %w", c.Email, c.Owner, err)
		}
	}
	observability.Logger().Info().Int("contacts", len(seed)).Msg("directory seeded")
	return nil
}
