// Package main provides the encounter simulator binary: it loads a scenario,
// runs the combat scheduler to completion with a simple strike policy, and
// optionally persists the event journal to PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/event"
	"github.com/cory-johannsen/skirmish/internal/game/journal"
	"github.com/cory-johannsen/skirmish/internal/game/scenario"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/simulator.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "content/scenarios/duel.yaml", "path to scenario YAML file")
	seed := flag.Int64("seed", 0, "RNG seed override; 0 = scenario/config/clock")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	scn, err := scenario.LoadFromFile(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	logger.Info("scenario loaded",
		zap.String("name", scn.Name),
		zap.Int("teams", len(scn.Teams)),
	)

	// Seed precedence: flag, scenario, config, clock.
	runSeed := *seed
	if runSeed == 0 {
		runSeed = scn.Seed
	}
	if runSeed == 0 {
		runSeed = cfg.Encounter.Seed
	}
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	src := dice.NewSeededSource(runSeed)
	logger.Info("rng seeded", zap.Int64("seed", runSeed))

	bus := event.NewBus()

	// Journal: postgres when enabled, in-memory otherwise.
	var store journal.Store
	if cfg.Journal.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = postgres.NewJournalRepository(pool.DB())
	} else {
		store = journal.NewMemoryStore()
	}
	recorder := journal.NewRecorder(store, logger)
	if err := recorder.Attach(bus); err != nil {
		logger.Fatal("attaching journal recorder", zap.Error(err))
	}

	sched := combat.NewScheduler(bus, src, logger)
	if err := sched.SetInitiativeDieSides(cfg.Encounter.InitiativeDieSides); err != nil {
		logger.Fatal("configuring initiative die", zap.Error(err))
	}

	// Initialise the scripting engine and wire it to the scheduler.
	roller := dice.NewLoggedRoller(src, logger)
	scriptMgr := scripting.NewManager(roller, logger)
	defer scriptMgr.Close()

	scriptDir := scn.ScriptDir
	if scriptDir == "" {
		scriptDir = cfg.Scripting.Dir
	}
	scriptsLoaded := false
	if info, statErr := os.Stat(scriptDir); statErr == nil && info.IsDir() {
		if err := scriptMgr.LoadScenario(scn.ID, scriptDir, cfg.Scripting.InstructionLimit, cfg.Scripting.Timeout); err != nil {
			logger.Fatal("loading effect scripts",
				zap.String("dir", scriptDir), zap.Error(err))
		}
		scriptsLoaded = true
		logger.Info("effect scripts loaded", zap.String("dir", scriptDir))
	}

	scriptMgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		c, ok := sched.Combatant(id)
		if !ok {
			return nil
		}
		return &scripting.CombatantInfo{
			ID:           c.ID,
			Name:         c.Name,
			Team:         string(c.Team),
			HP:           c.Stats.Health,
			MaxHP:        c.Stats.MaxHealth,
			ActionPoints: c.Stats.ActionPoints,
			Initiative:   c.Runtime.CurrentInitiative,
		}
	}
	scriptMgr.ModifyInitiative = sched.ModifyInitiative
	scriptMgr.DealDamage = func(id string, amount int) error {
		c, ok := sched.Combatant(id)
		if !ok {
			return nil
		}
		c.Stats.ApplyDamage(amount)
		return nil
	}

	// Dispatch script hooks on lifecycle events.
	if scriptsLoaded {
		mustSubscribe(logger, bus, event.TypeEncounterStarted, func(p event.Payload) {
			started := p.(event.EncounterStarted)
			scriptMgr.CallHook(scn.ID, scripting.HookEncounterStart, //nolint:errcheck
				lua.LString(started.EncounterID))
		})
		mustSubscribe(logger, bus, event.TypeRoundStarted, func(p event.Payload) {
			rs := p.(event.RoundStarted)
			scriptMgr.CallHook(scn.ID, scripting.HookRoundStart, //nolint:errcheck
				lua.LNumber(rs.Round))
		})
	}

	// Console trace of the turn flow.
	mustSubscribe(logger, bus, event.TypeTurnStarted, func(p event.Payload) {
		ts := p.(event.TurnStarted)
		logger.Info("turn started",
			zap.String("entity", ts.EntityID),
			zap.Int("round", ts.Round),
			zap.Int("initiative", ts.Initiative),
		)
	})
	mustSubscribe(logger, bus, event.TypeEncounterEnded, func(p event.Payload) {
		ended := p.(event.EncounterEnded)
		logger.Info("encounter ended",
			zap.String("outcome", ended.Outcome),
			zap.String("winning_team", ended.WinningTeam),
			zap.Int("rounds", ended.Summary.Round),
			zap.Int("turns", ended.Summary.Turns),
		)
	})

	roster := scn.Combatants()
	if err := sched.InitializeEncounter(scn.ID, roster); err != nil {
		logger.Fatal("initializing encounter", zap.Error(err))
	}

	runEncounter(sched, src, cfg.Encounter.MaxRounds, logger)

	logger.Info("simulation complete",
		zap.String("encounter_id", sched.EncounterID()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// runEncounter drives the scheduler until the encounter ends or the round
// guard trips. Each turn the active combatant strikes the first living enemy
// while it has action points.
func runEncounter(sched *combat.Scheduler, src dice.Source, maxRounds int, logger *zap.Logger) {
	for sched.Phase() == combat.PhaseActive {
		state := sched.State()
		if maxRounds > 0 && state.Round > maxRounds {
			logger.Warn("round guard tripped, abandoning encounter",
				zap.Int("round", state.Round),
				zap.Int("max_rounds", maxRounds),
			)
			return
		}

		attacker, ok := sched.Combatant(state.ActiveEntityID)
		if !ok {
			logger.Error("active combatant missing", zap.String("entity", state.ActiveEntityID))
			return
		}

		results := map[string]any{"action": "pass"}
		if target := firstLivingEnemy(sched, attacker); target != nil &&
			attacker.Stats.SpendActionPoints(combat.StrikeCost) {
			strike := combat.ResolveStrike(attacker, target, src)
			if strike.Hit {
				target.Stats.ApplyDamage(strike.Damage)
			}
			logger.Info("strike resolved",
				zap.String("attacker", strike.AttackerID),
				zap.String("target", strike.TargetID),
				zap.Int("attack_total", strike.AttackTotal),
				zap.Bool("hit", strike.Hit),
				zap.Bool("critical", strike.Critical),
				zap.Int("damage", strike.Damage),
			)
			results = map[string]any{
				"action":   "strike",
				"target":   strike.TargetID,
				"hit":      strike.Hit,
				"critical": strike.Critical,
				"damage":   strike.Damage,
			}
		}

		if err := sched.ActionResolved(event.ActionResolved{
			EntityID: state.ActiveEntityID,
			Results:  results,
		}); err != nil {
			logger.Error("resolving action", zap.Error(err))
			return
		}
	}
}

// firstLivingEnemy returns the first living combatant on another team, in
// registration order.
func firstLivingEnemy(sched *combat.Scheduler, attacker *combat.Combatant) *combat.Combatant {
	for _, c := range sched.Participants() {
		if c.Team != attacker.Team && !c.IsDown() {
			return c
		}
	}
	return nil
}

func mustSubscribe(logger *zap.Logger, bus *event.Bus, t event.Type, fn event.Handler) {
	if err := bus.Subscribe(t, fn); err != nil {
		logger.Fatal("subscribing", zap.String("type", string(t)), zap.Error(err))
	}
}
