// Command trivia-batch walks the clue corpus and generates a
// multiple-choice trivia question for each clue through the configured
// model backend.
//
// Usage:
//
//	trivia-batch                 process every clue
//	trivia-batch 1000 2000       process clue IDs 1000 through 2000
//	trivia-batch --resume        continue from the saved checkpoint
//	trivia-batch --force         regenerate questions that already exist
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/config"
	"github.com/trivia-api-service/internal/generation"
	"github.com/trivia-api-service/internal/pipeline"
	"github.com/trivia-api-service/internal/store"
)

type CLI struct {
	StartID int64 `arg:"" optional:"" help:"First clue ID to process (inclusive)."`
	EndID   int64 `arg:"" optional:"" help:"Last clue ID to process (inclusive)."`

	Resume bool `help:"Continue from the saved checkpoint instead of starting over."`
	Force  bool `help:"Regenerate questions for clues that already have one."`

	Checkpoint  string        `help:"Checkpoint file path." default:"trivia_generation_progress.json"`
	LogFile     string        `help:"Run log file path." default:"trivia_generation_log.txt"`
	PageSize    int           `help:"Clues fetched per batch." default:"1000"`
	Concurrency int           `help:"Clues processed in parallel." default:"5"`
	Retries     int           `help:"Retries per clue after the first attempt." default:"3"`
	RetryDelay  time.Duration `help:"Delay between retries." default:"5s"`
}

func main() {
	cli := CLI{}
	kong.Parse(&cli,
		kong.Name("trivia-batch"),
		kong.Description("Generate trivia questions from the clue corpus."),
		kong.UsageOnError(),
	)

	cfg, err := config.LoadBatch()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Str("level", cfg.LogLevel).Msg("invalid LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reach database")
	}

	runLog, err := pipeline.OpenRunLog(cli.LogFile, cli.Resume)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open run log")
	}
	defer runLog.Close()

	gen := generation.NewClient(cfg.GenerationURL, cfg.GenerationModel, cfg.GenerationTimeout)
	proc := pipeline.New(store.NewPostgres(pool), gen, runLog, pipeline.Options{
		StartID:        cli.StartID,
		EndID:          cli.EndID,
		Resume:         cli.Resume,
		Force:          cli.Force,
		PageSize:       cli.PageSize,
		Concurrency:    cli.Concurrency,
		RetryBudget:    cli.Retries,
		RetryDelay:     cli.RetryDelay,
		CheckpointPath: cli.Checkpoint,
		LogPath:        cli.LogFile,
	})

	if err := proc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("batch run ended early; checkpointed progress is preserved")
		os.Exit(1)
	}
}
