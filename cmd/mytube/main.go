package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/async"
	"github.com/mytube/mytube/internal/config"
	"github.com/mytube/mytube/provider/youtube"
)

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	youtube.Register(&mytube.DefaultMatcherRegistry)
	logger.Debug("registered reference matchers", zap.Strings("matchers", mytube.DefaultMatcherRegistry.List()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = mytube.WithLogger(ctx, logger)

	app := &cli.App{
		Name:  config.AppName,
		Usage: "download YouTube videos, channels and playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "read configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "resolution",
				Aliases: []string{"r"},
				Usage:   "preferred `RESOLUTION` (144p, 360p, 480p or 720p), lower ones are tried if unavailable",
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "save downloaded videos under `DIR`",
			},
			&cli.BoolFlag{
				Name:  "no-prefix",
				Usage: "don't prefix file names with the downloaded resolution",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "answer yes to all questions",
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "resolve at most `N` videos per second when listing channels and playlists",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				zapConfig.Level.SetLevel(zapcore.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			videoCommand,
			channelCommand,
			playlistCommand,
			getCommand,
			historyCommand,
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	select {
	case err = <-result:
	case <-ctx.Done():
		stop()
		err = <-result
	}
	if err != nil {
		logger.Fatal(mytube.UserMessage(err), zap.Error(err))
	}
}

// overrides turns the global flags the user actually gave into config overrides.
func overrides(c *cli.Context) map[string]any {
	o := make(map[string]any)
	if c.IsSet("resolution") {
		o[config.Keys.Resolution] = c.String("resolution")
	}
	if c.IsSet("target") {
		o[config.Keys.SaveDir] = c.String("target")
	}
	if c.IsSet("no-prefix") {
		o[config.Keys.PrefixResolution] = !c.Bool("no-prefix")
	}
	if c.IsSet("yes") {
		o[config.Keys.AssumeYes] = c.Bool("yes")
	}
	if c.IsSet("rate") {
		o[config.Keys.RateLimit] = c.Float64("rate")
	}
	if c.IsSet("debug") {
		o[config.Keys.Debug] = c.Bool("debug")
	}
	return o
}
