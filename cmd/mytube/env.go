package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/download"
	"github.com/mytube/mytube/internal/app"
	"github.com/mytube/mytube/internal/boltdb"
	"github.com/mytube/mytube/internal/config"
	"github.com/mytube/mytube/internal/session"
	"github.com/mytube/mytube/internal/sqlstore"
	"github.com/mytube/mytube/provider/youtube"
)

// env is everything a command needs, built from the configuration.
type env struct {
	config    *config.Config
	app       *app.App
	session   *session.Session
	confirmer *terminalConfirmer
	out       *terminal
}

// withEnv builds an env, runs f, and tears everything down again. keywords makes every resolved video also fetch its
// keyword tags, which costs one request per video.
func withEnv(c *cli.Context, keywords bool, f func(e *env) error) error {
	log := mytube.Logger(c.Context)
	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return err
	}
	log.Debug("loaded config", zap.Any("config", cfg))

	db, closeDB, err := openHistory(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDB(); err != nil {
			log.Warn("failed to close history", zap.Error(err))
		}
	}()

	provider := youtube.New(youtube.WithRateLimit(cfg.RateLimit), youtube.WithKeywords(keywords))
	ses, err := session.New(c.Context, session.Config{
		Runner:   download.New(provider),
		Database: db,
	})
	if err != nil {
		return err
	}

	out := newTerminal(c.App.Writer, log.Sugar())
	events, err := ses.Subscribe(0)
	if err != nil {
		ses.Close()
		return err
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out.watch(events)
	}()
	defer func() {
		for _, t := range ses.Tasks() {
			if !t.Status.IsFinished() {
				log.Warn("abandoning unfinished download", zap.Stringer("task", t))
			}
		}
		ses.Close()
		wg.Wait()
	}()

	e := &env{
		config:    cfg,
		session:   ses,
		confirmer: newTerminalConfirmer(os.Stdin, c.App.Writer, cfg.AssumeYes),
		out:       out,
		app: app.New(app.Services{
			Media:     provider,
			Channels:  provider,
			Playlists: provider,
			Index:     provider,
		}, ses, app.Options{
			Resolution:       cfg.Resolution,
			SaveDir:          cfg.SaveDir,
			PrefixResolution: cfg.PrefixResolution,
			Notice: func(message string) {
				out.printf("%s\n", message)
			},
		}),
	}
	return f(e)
}

func openHistory(cfg *config.Config, log *zap.Logger) (session.Database, func() error, error) {
	if cfg.HistoryDriver == config.HistoryNone {
		return session.NilDatabase{}, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.History), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	switch cfg.HistoryDriver {
	case config.HistorySQLite:
		db, err := sqlstore.Open(cfg.History, log)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		db, err := boltdb.Open(cfg.History)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
}

// report prints what happened to each task of a batch. Tasks that failed are summarised in the returned error, so a
// batch with failures exits non-zero.
func (e *env) report(tasks []session.Task, err error) error {
	if len(tasks) == 0 {
		return err
	}
	failed := 0
	for _, t := range tasks {
		if t.Status != session.StatusSucceeded {
			failed++
		}
		e.out.printf("%s\n", describe(t))
	}
	if failed == 0 {
		e.out.printf("Download complete!\n")
		return nil
	}
	if errors.Is(err, session.ErrSessionClosed) {
		return err
	}
	return cli.Exit(fmt.Sprintf("%d of %d downloads failed", failed, len(tasks)), 1)
}
