package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"colonycraft/internal/persistence/indexdb"
	persistlog "colonycraft/internal/persistence/log"
	"colonycraft/internal/persistence/snapshot"
	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/scenario"
	"colonycraft/internal/sim/tuning"
	"colonycraft/internal/sim/world"
	"colonycraft/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", "127.0.0.1:8080", "http listen address")
		scenarioPath = flag.String("scenario", "./configs/scenario.yaml", "scenario file")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "tuning file")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite tick index")
		snapPath     = flag.String("snapshot", "", "snapshot to resume from (optional)")
		loadLatest   = flag.Bool("load_latest_snapshot", true, "resume from the newest snapshot in the data dir when -snapshot is empty")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning file missing, using defaults")
		tune = tuning.Defaults()
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	w, err := buildWorld(*scenarioPath, *snapPath, *dataDir, *loadLatest, tune, idx, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	tickLog := persistlog.NewTickLogger(*dataDir)
	defer tickLog.Close()

	snapDir := filepath.Join(*dataDir, "snapshots")
	w.AddSink(func(d protocol.TickDigest) {
		if err := tickLog.WriteTick(d); err != nil {
			logger.Printf("tick log: %v", err)
		}
		if idx != nil {
			idx.WriteTick(d)
		}
		every := tune.SnapshotEvery
		if every > 0 && d.Tick > 0 && d.Tick%uint64(every) == 0 {
			writeSnapshot(w, snapDir, idx, logger)
		}
	})

	obs := observer.NewServer(w, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/ws", obs.WSHandler())

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Printf("scenario %s starting at tick %d", w.Config().ScenarioID, w.CurrentTick())
	w.Run(ctx)

	// Final snapshot so a restart resumes where we stopped.
	writeSnapshot(w, snapDir, idx, logger)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	_ = httpSrv.Shutdown(shutCtx)
	logger.Printf("stopped at tick %d", w.CurrentTick())
}

func buildWorld(scenarioPath, snapPath, dataDir string, loadLatest bool, tune tuning.Tuning, idx *indexdb.SQLiteIndex, logger *log.Logger) (*world.World, error) {
	if snapPath == "" && loadLatest && idx != nil {
		if p, tick, ok, err := idx.LatestSnapshot(); err == nil && ok {
			logger.Printf("resuming from snapshot %s (tick %d)", p, tick)
			snapPath = p
		}
	}
	if snapPath != "" {
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return nil, err
		}
		return world.FromSnapshot(snap, tune, logger), nil
	}
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return nil, err
	}
	return scenario.Build(sc, tune, logger), nil
}

func writeSnapshot(w *world.World, snapDir string, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	snap := w.ExportSnapshot()
	name := strings.ReplaceAll(snap.Header.ScenarioID, "/", "_")
	path := filepath.Join(snapDir, name+"-"+strconv.FormatUint(snap.Header.Tick, 10)+".snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		logger.Printf("snapshot: %v", err)
		return
	}
	if idx != nil {
		idx.RecordSnapshot(path, snap)
	}
	logger.Printf("snapshot written: %s", path)
}
