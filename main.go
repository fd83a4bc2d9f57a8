package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/console"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
	"github.com/wfunc/monopoly/monitor"
	"github.com/wfunc/monopoly/persistence"
	"github.com/wfunc/monopoly/server"
	"github.com/wfunc/monopoly/services"
)

type flags struct {
	configDir string
	restore   string
	dumpPath  string
	seed      uint64
}

func main() {
	var f flags
	flag.StringVar(&f.configDir, "config", ".", "directory holding config.yaml")
	flag.StringVar(&f.restore, "restore", "", "replay a stored snapshot (game id or \"latest\") before reading commands")
	flag.StringVar(&f.dumpPath, "dump", "", "also write the exit dump to this file")
	flag.Uint64Var(&f.seed, "seed", 0, "dice seed, 0 picks one from the clock")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(f.configDir)
	if err != nil {
		logger.Init(false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Debug)
	defer logger.Sync()

	if err := run(cfg, f); err != nil {
		logger.Log.Errorf("monopoly: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, f flags) error {
	layout := board.DefaultLayout()
	if cfg.Board.Layout != "" {
		l, err := board.LoadLayout(cfg.Board.Layout)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		layout = l
	}

	// Initialize Database
	db, err := persistence.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if db != nil {
		defer db.Close()
		logger.Log.Infof("Records stored with %s", cfg.Storage.Driver)
	}
	snaps, err := persistence.OpenSnapshots(cfg.Snapshot, db)
	if err != nil {
		return fmt.Errorf("snapshots: %w", err)
	}

	term := console.NewTerminal(os.Stdin, os.Stdout)
	metrics := monitor.NewMetrics("monopoly", nil)
	sinks := event.MultiSink{console.NewPrinter(term.Writer()), metrics}

	var records *services.RecordService
	if db != nil {
		records = services.NewRecordService(db)
		sinks = append(sinks, records)
	}

	if cfg.Server.Enabled {
		opts := server.Options{
			Addr:        cfg.Server.HTTPAddress,
			Metrics:     metrics,
			IdleTimeout: time.Duration(cfg.Server.IdleTimeoutS) * time.Second,
		}
		if records != nil {
			opts.RPCAddr = cfg.Server.RPCAddress
			opts.Records = records
		}
		srv, err := server.NewSpectatorServer(opts)
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		sinks = append(sinks, srv.Feed(server.DefaultRoom))
		go func() {
			if err := srv.Start(); err != nil {
				logger.Log.Errorf("Spectator server: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Log.Warnf("Spectator server shutdown: %v", err)
			}
		}()
	}

	g, err := game.New(game.Options{
		Rules:     cfg.Game,
		Layout:    layout,
		Dice:      game.NewDice(f.seed),
		Terminal:  term,
		Sink:      sinks,
		ForceDump: cfg.Game.DumpOnExit || cfg.Debug,
	})
	if err != nil {
		return err
	}

	if f.restore != "" {
		if snaps == nil {
			return fmt.Errorf("-restore needs a snapshot backend")
		}
		snap, err := snaps.LoadSnapshot(f.restore)
		if err != nil {
			return fmt.Errorf("load snapshot %s: %w", f.restore, err)
		}
		if err := g.Restore(strings.NewReader(snap.Dump)); err != nil {
			return fmt.Errorf("restore snapshot %s: %w", snap.GameID, err)
		}
		logger.Log.Infof("Restored snapshot of game %s", snap.GameID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := console.NewDispatcher()
	if cfg.Board.Render {
		dispatcher.Board = term.Writer()
	}
	runErr := g.Run(ctx, metrics.Instrument(dispatcher))

	if g.NeedDump() {
		if err := saveDump(g, term, snaps, f.dumpPath); err != nil {
			logger.Log.Errorf("dump: %v", err)
		}
	}
	return runErr
}

// saveDump prints the dump and keeps a copy in the file and snapshot store
// when they are configured.
func saveDump(g *game.Game, term *console.Terminal, snaps persistence.SnapshotStore, path string) error {
	var buf bytes.Buffer
	if err := g.Dump(&buf); err != nil {
		return err
	}
	if _, err := term.Writer().Write(buf.Bytes()); err != nil {
		return err
	}
	if path != "" {
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	if snaps != nil {
		snap := &models.Snapshot{GameID: g.ID(), Dump: buf.String(), CreatedAt: time.Now()}
		if err := snaps.SaveSnapshot(snap); err != nil {
			return err
		}
		logger.Log.Infof("Saved snapshot of game %s", g.ID())
	}
	return nil
}
