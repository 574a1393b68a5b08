package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lmeunier/resonance/internal/appstate"
	"github.com/lmeunier/resonance/internal/catalog"
	"github.com/lmeunier/resonance/internal/config"
	"github.com/lmeunier/resonance/internal/engine"
	"github.com/lmeunier/resonance/internal/library"
	"github.com/lmeunier/resonance/internal/playback"
	"github.com/lmeunier/resonance/internal/stderr"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file (overrides the default lookup)")
	scanOnly := flag.Bool("scan-only", false, "scan library sources and exit")
	albumID := flag.Int64("album", 0, "queue this album and play it")
	flag.Parse()

	// Capture native audio-library noise before anything touches the
	// speaker. The logger must write to the real stderr underneath the
	// capture, and must be pointed there before anything logs, or its own
	// output would be captured and fed back into it.
	captureErr := stderr.Start()
	defer stderr.Stop()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr.Original(), TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if captureErr != nil {
		log.Debug().Err(captureErr).Msg("stderr capture unavailable")
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath, err = catalog.DefaultPath()
		if err != nil {
			return err
		}
	}
	if err := catalog.EnsureDir(dbPath); err != nil {
		return err
	}
	store, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(cfg.LibrarySources) > 0 {
		if _, err := library.NewScanner(store).Scan(ctx, cfg.LibrarySources); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("no library_sources configured, skipping scan")
	}

	if *scanOnly {
		return nil
	}
	if *albumID == 0 {
		log.Info().Msg("no album requested, exiting (use -album <id>)")
		return nil
	}

	return play(ctx, store, cfg, *albumID)
}

// play queues the album and drives the controller's poll loop until the
// queue runs out or the process is signalled.
func play(ctx context.Context, store *catalog.Store, cfg *config.Config, albumID int64) error {
	events := engine.NewEventChannel()
	eng := engine.New(events)
	eng.SetBufferLen(time.Duration(cfg.Audio.BufferMs) * time.Millisecond)
	defer eng.Close()

	state := appstate.New()
	defer state.Close()

	ctrl := playback.NewController(eng, events, store)
	if err := ctrl.QueueAlbum(ctx, albumID); err != nil {
		return err
	}
	state.UpdateQueue(ctrl.Queue())

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctrl.Stop()
		case <-ticker.C:
			for {
				ev := ctrl.TryGetEvent()
				if ev == nil {
					break
				}
				publish(state, ctrl, ev)
			}
			// The queue ran out when the engine settled on Stopped
			// with nothing left to advance to.
			if ctrl.State() == engine.Stopped && ctrl.NextSongInfo() == nil {
				log.Info().Msg("end of queue")
				return nil
			}
		}
	}
}

// publish folds a controller event into the application state store.
func publish(state *appstate.Store, ctrl *playback.Controller, ev engine.Event) {
	switch e := ev.(type) {
	case engine.SongChanged:
		item := e.Item
		state.UpdateCurrentTrack(&item)
		state.UpdateQueue(ctrl.Queue())
		log.Info().Str("title", item.Title).Str("artist", item.Artist).Msg("now playing")
	case engine.StateChanged:
		state.UpdatePlaybackState(e.State)
	case engine.EndOfStream:
		state.UpdateQueue(ctrl.Queue())
	case engine.PositionChanged, engine.Error:
		// Position lives on the controller; errors are already logged.
	}
}
