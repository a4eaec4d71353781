package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// globalScenarioID is the reserved key for shared scripts loaded via
// LoadGlobal. CallHook falls back to this VM when no scenario VM is found.
const globalScenarioID = "__global__"

// Lifecycle hook names scripts may define. The runner dispatches these at the
// matching encounter transitions.
const (
	HookEncounterStart = "on_encounter_start"
	HookRoundStart     = "on_round_start"
)

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	ID           string
	Name         string
	Team         string
	HP           int
	MaxHP        int
	ActionPoints int
	Initiative   int
}

// scenarioVM is one loaded scenario's LState plus the execution budget armed
// before every hook invocation. mu serializes access to the single-threaded
// LState.
type scenarioVM struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	timeout   time.Duration
	cancel    context.CancelFunc
}

// Manager owns one sandboxed LState per scenario and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after all LoadScenario calls
// complete. Each scenario VM carries its own mutex, so concurrent calls into
// the same scenario serialize while different scenarios run concurrently.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*scenarioVM
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in encounter.* modules.
	GetCombatant     func(id string) *CombatantInfo
	ModifyInitiative func(id string, amount, duration int, source string) error
	DealDamage       func(id string, amount int) error
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil; violations panic.
// Postcondition: Returns a non-nil Manager with an empty scenario map.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: roller must not be nil")
	}
	if logger == nil {
		panic("scripting: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*scenarioVM),
		roller: roller,
		logger: logger,
	}
}

// LoadScenario creates a sandboxed VM for scenarioID, registers all
// encounter.* modules, then executes every *.lua file in scriptDir in
// lexicographic order. instLimit and timeout bound every subsequent hook
// invocation in this VM; zero values use the defaults.
//
// Precondition: scenarioID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Scenario VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScenario(scenarioID, scriptDir string, instLimit int, timeout time.Duration) error {
	return m.loadInto(scenarioID, scriptDir, instLimit, timeout)
}

// LoadGlobal creates the "__global__" VM for shared effect scripts accessible
// as a CallHook fallback from any scenario.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int, timeout time.Duration) error {
	return m.loadInto(globalScenarioID, scriptDir, instLimit, timeout)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int, timeout time.Duration) error {
	L := NewSandboxedState(instLimit, timeout)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.close()
	}
	m.states[key] = &scenarioVM{L: L, instLimit: instLimit, timeout: timeout}
	m.mu.Unlock()
	return nil
}

// CallHook calls the named Lua global function in scenarioID's VM. If the
// scenario has no VM, the __global__ VM is tried as a fallback. Returns
// (LNil, nil) if the hook is not defined or no VM exists. Each invocation
// runs under a fresh opcode and wall-clock budget. Lua runtime errors,
// including budget exhaustion, are logged at Warn level and never propagated,
// so a broken effect script cannot take down an encounter.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scenarioID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	vm, ok := m.states[scenarioID]
	if !ok {
		vm = m.states[globalScenarioID]
	}
	m.mu.RUnlock()

	if vm == nil {
		m.logger.Info("scripting: no VM for scenario",
			zap.String("scenario", scenarioID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	fn := vm.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	// Fresh execution budget per invocation; release the previous window's timer.
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.cancel = armLimits(vm.L, vm.instLimit, vm.timeout)

	if err := vm.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scenario", scenarioID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := vm.L.Get(-1)
	vm.L.Pop(1)
	return ret, nil
}

// Close releases every loaded VM. The Manager can be reused by loading new
// scenarios afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, vm := range m.states {
		vm.close()
		delete(m.states, key)
	}
}

func (v *scenarioVM) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}
