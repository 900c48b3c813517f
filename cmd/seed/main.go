// cmd/seed/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/seed"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/bootstrap"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/logger"
)

// seedRunner is the part of the wired app Run() drives.
type seedRunner interface {
	Run(ctx context.Context) (seed.Report, error)
}

// seederBuilder builds the seeder and returns a cleanup function.
type seederBuilder func(ctx context.Context) (seedRunner, func(), error)

// Run builds the seeder, performs one run and maps the outcome to an exit code:
// 0 when every record was created, 1 otherwise.
func Run(ctx context.Context, build seederBuilder, lg zerolog.Logger) int {
	app, cleanup, err := build(ctx)
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	rep, err := app.Run(ctx)
	if err != nil {
		lg.Error().
			Err(err).
			Str("run_id", rep.RunID).
			Int("created", len(rep.Created)).
			Int("failed", rep.Failed()).
			Msg("seed failed")
		return 1
	}

	lg.Info().
		Str("run_id", rep.RunID).
		Int64("deleted", rep.Deleted).
		Int("created", len(rep.Created)).
		Msg("seed complete")
	return 0
}

func buildFromBootstrap(ctx context.Context) (seedRunner, func(), error) {
	app, cleanup, err := bootstrap.NewSeeder(ctx)
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

func main() {
	logger.Init()

	// interrupt cancels in-flight writes; whatever was written stays.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := Run(ctx, buildFromBootstrap, zlog.Logger)
	stop()
	os.Exit(code)
}
