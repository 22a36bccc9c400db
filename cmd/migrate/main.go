// Command migrate applies the schema and seeds the demo account, so deployments
// can run it once ahead of rolling out the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/db"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/repo/postgres"
	"github.com/geocoder89/accounthub/internal/security"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL, 2)

	if err != nil {
		log.Error("db connect failed", observability.Err(err))
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migrate failed", observability.Err(err))
		os.Exit(1)
	}

	log.Info("migrations applied")

	created, err := db.EnsureDemoUser(ctx, postgres.NewUsersRepo(pool, nil), security.NewHasher(cfg.BcryptCost), db.DemoAccount{
		Email:        cfg.DemoEmail,
		Password:     cfg.DemoPassword,
		FirstName:    cfg.DemoFirstName,
		LastName:     cfg.DemoLastName,
		ProfilePhoto: cfg.DefaultProfilePhoto,
	})

	if err != nil {
		log.Error("demo seed failed", observability.Err(err))
		os.Exit(1)
	}

	log.Info("demo account checked", "created", created)
}
