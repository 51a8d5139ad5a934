package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/privlink/internal/api"
	"github.com/privlink/internal/bsky"
	"github.com/privlink/internal/config"
	"github.com/privlink/internal/guard"
	"github.com/privlink/internal/reply"
	"github.com/privlink/internal/scan"
	"github.com/privlink/internal/video"
)

// RunCommand returns the CLI command for starting the bot
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the bot: interval scheduler plus HTTP trigger/health server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the HTTP server port",
			},
		},
		Action: runBot,
	}
}

func runBot(c *cli.Context) error {
	cfg, err := loadAndValidate(c)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	port := cfg.Server.Port
	if override := c.Int("port"); override != 0 {
		port = override
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	controller, err := buildController(ctx, cfg)
	if err != nil {
		return err
	}

	scheduler := scan.NewScheduler(controller, cfg.ScanInterval())
	scheduler.Start()
	log.Info().
		Str("tag", cfg.Bot.Tag).
		Str("domain", cfg.Bot.PrivacyDomain).
		Dur("interval", cfg.ScanInterval()).
		Int("port", port).
		Msg("Bot started")

	server := api.NewServer(port, controller)
	return server.Start(func() {
		log.Info().Msg("Shutting down, stopping scheduler")
		scheduler.Stop()
	})
}

// buildController wires the feed client and the core pipeline together.
func buildController(ctx context.Context, cfg *config.Config) (*scan.Controller, error) {
	client, err := bsky.NewClient(ctx, cfg.Feed.ServiceURL, cfg.Feed.Handle, cfg.Feed.AppPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed service: %w", err)
	}

	registry := video.NewRegistry()
	resolver := video.NewResolver(client)
	extractor := video.NewExtractor(registry, resolver, cfg.Bot.AllowTextFallback)
	sources := video.NewSourceResolver(client, extractor)
	g := guard.New(client, client.DID(), cfg.Bot.CacheCapacity)
	previewer := reply.NewPreviewer(client, client)

	return scan.NewController(client, sources, g, previewer, scan.Options{
		Tag:            cfg.Bot.Tag,
		PrivacyDomain:  cfg.Bot.PrivacyDomain,
		SelfDID:        client.DID(),
		CandidateLimit: cfg.Bot.CandidateLimit,
		MaxAge:         cfg.MaxAge(),
		DispatchDelay:  cfg.DispatchDelay(),
	}), nil
}

func loadAndValidate(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
