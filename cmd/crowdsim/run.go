package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/config"
	"github.com/crowdnav/crowdsim/internal/core/command"
	"github.com/crowdnav/crowdsim/internal/core/event"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/data"
	"github.com/crowdnav/crowdsim/internal/diag"
	"github.com/crowdnav/crowdsim/internal/nav"
	"github.com/crowdnav/crowdsim/internal/parallel"
	"github.com/crowdnav/crowdsim/internal/pathreq"
	"github.com/crowdnav/crowdsim/internal/persist"
	"github.com/crowdnav/crowdsim/internal/scripting"
	"github.com/crowdnav/crowdsim/internal/system"
	"github.com/crowdnav/crowdsim/internal/telemetry"
	"github.com/crowdnav/crowdsim/internal/world"
)

func run(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printBanner(cfg.Server.Name)

	// ── Navmesh & placements ───────────────────────────────────────
	printSection("Assets")

	grid, _, err := data.LoadNavmesh(cfg.Navmesh.MapFile)
	if err != nil {
		return err
	}
	printStat("Navmesh cells", grid.Width()*grid.Height())

	placements, err := loadPlacements(cfg.Data.PlacementsFile)
	if err != nil {
		return err
	}
	printStat("Placements", len(placements))

	var profiler system.Profiler = system.DefaultProfiler{}
	if cfg.Data.ScriptsDir != "" {
		engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
		if err != nil {
			return fmt.Errorf("init lua engine: %w", err)
		}
		defer engine.Close()
		if engine.HasFunction("agent_profile") {
			profiler = engine
			printOK("Lua agent profiles loaded")
		}
	}

	// ── Simulation core ────────────────────────────────────────────
	printSection("Simulation")

	capacity := max(cfg.Simulation.InitialPopulation, 1024)
	ws := world.NewState(capacity)
	ws.Placements.Push(placements...)
	ws.Spawns.Add(cfg.Simulation.InitialPopulation)

	bus := event.NewBus()
	gateway := nav.NewGridQuerySystem(grid, nav.QueryConfig{
		Workers:    cfg.Navmesh.Workers,
		QueueSize:  cfg.Navmesh.QueueSize,
		CacheSize:  cfg.Navmesh.CacheSize,
		SnapExtent: cfg.Navmesh.SnapExtent,
	}, log.Named("nav"))
	coord := pathreq.NewCoordinator(gateway, ws.Agents, command.NewBuffer(), bus, log.Named("pathreq"))
	gateway.Start()
	defer gateway.Close()

	pool := parallel.NewPool(cfg.Simulation.Workers, cfg.Simulation.ChunkSize)
	printStat("Worker goroutines", pool.Workers())

	gridWidth := cfg.Avoidance.GridWidth
	if gridWidth <= 0 {
		gridWidth = grid.MaxMapWidth()
	}
	avoidance := system.NewAvoidanceSystem(ws, gateway, pool, system.AvoidanceConfig{
		MinSpeed:     cfg.Avoidance.MinSpeed,
		SampleExtent: cfg.Avoidance.SampleExtent,
		GridWidth:    gridWidth,
	})

	defaults := spawnDefaults(cfg.Agent)

	var publishers []system.Publisher
	var diagServer *diag.Server
	if cfg.Diagnostics.Enabled {
		diagServer = diag.NewServer(ws.Spawns, log.Named("diag"))
		publishers = append(publishers, diagServer)
	}
	diagnostics := system.NewDiagnosticsSystem(ws, coord, avoidance, cfg.Diagnostics.PublishInterval, publishers...)

	runner := coresys.NewRunner()
	runner.Register(system.NewPlacementSystem(ws, log))
	runner.Register(system.NewCommandSyncSystem(coord, bus))
	runner.Register(system.NewSpawnSystem(ws, profiler, defaults, bus, log))
	runner.Register(system.NewIdleDispatchSystem(ws, coord))
	runner.Register(system.NewNavAgentSystem(ws, coord, pool))
	runner.Register(avoidance)
	runner.Register(diagnostics)

	event.Subscribe(bus, func(e event.NavmeshRebuilt) {
		log.Info("navmesh version advanced", zap.Int("version", e.Version))
	})
	event.Subscribe(bus, func(e event.PathFailed) {
		log.Debug("path failed", zap.Uint64("entity", uint64(e.Entity)), zap.String("reason", e.Reason))
	})

	// ── Outputs ────────────────────────────────────────────────────
	printSection("Outputs")

	// One id tags this process in the frame log and in frame_stats.run_id.
	runID := newRunID()
	log.Info("run started", zap.String("run", runID))

	if cfg.Telemetry.Enabled {
		frames := telemetry.NewFrameLogger(cfg.Telemetry.Dir, runID)
		defer func() {
			if err := frames.Close(); err != nil {
				log.Error("close frame log", zap.Error(err))
			}
		}()
		runner.Register(system.NewTelemetrySystem(diagnostics, frames, cfg.Telemetry.EveryFrames, log))
		printOK("Frame telemetry: " + cfg.Telemetry.Dir)
	}

	var persistence *system.PersistenceSystem
	if cfg.Database.Enabled {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}

		go persist.RunPlacementFeed(ctx, persist.NewPlacementRepo(db), ws.Placements, cfg.Database.PlacementPoll, log.Named("feed"))

		stats := persist.NewStatsWriter(persist.NewFrameStatsRepo(db), log.Named("stats"))
		go stats.Run()
		defer stats.Close()

		persistence = system.NewPersistenceSystem(diagnostics, stats, runID, cfg.Database.StatsInterval, cfg.Database.StatsBatch)
		runner.Register(persistence)
		printOK(fmt.Sprintf("Database connected, schema version %d", version))
	}

	if diagServer != nil {
		go func() {
			if err := diagServer.Run(ctx, cfg.Diagnostics.BindAddress); err != nil {
				log.Error("diagnostics server", zap.Error(err))
			}
		}()
		printOK("Diagnostics on http://" + cfg.Diagnostics.BindAddress)
	}

	fmt.Println()
	printReady(fmt.Sprintf("Ticking every %s, %d agents queued for intake", cfg.Simulation.TickRate, cfg.Simulation.InitialPopulation))
	fmt.Println()

	// ── Frame loop ─────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	defer signal.Stop(reloadCh)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			runner.Tick(cfg.Simulation.TickRate)
			diagnostics.ObserveFrameTime(time.Since(start))

		case <-reloadCh:
			reloadNavmesh(cfg.Navmesh.MapFile, gateway, log)

		case sig := <-sigCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			if persistence != nil {
				persistence.Flush()
			}
			cancel()
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// reloadNavmesh swaps in a freshly loaded grid. Agents already moving finish
// their current route; new requests use the new grid.
func reloadNavmesh(path string, gateway *nav.GridQuerySystem, log *zap.Logger) {
	grid, _, err := data.LoadNavmesh(path)
	if err != nil {
		log.Error("navmesh reload failed, keeping current mesh", zap.Error(err))
		return
	}
	version := gateway.Rebuild(grid)
	log.Info("navmesh reloaded", zap.String("file", path), zap.Int("version", version))
}

func newRunID() string {
	return uuid.NewString()
}

func spawnDefaults(a config.AgentConfig) component.SpawnProfile {
	return component.SpawnProfile{
		Params: component.NavAgentParams{
			StoppingDistance: a.StoppingDistance,
			MoveSpeed:        a.MoveSpeed,
			Acceleration:     a.Acceleration,
			RotationSpeed:    a.RotationSpeed,
			AreaMask:         a.AreaMask,
		},
		Avoidance:       a.Avoidance,
		AvoidanceRadius: a.AvoidanceRadius,
	}
}

func loadPlacements(path string) ([]component.Placement, error) {
	if path == "" {
		return nil, nil
	}
	ps, err := data.LoadPlacements(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return ps, err
}
