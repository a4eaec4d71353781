// Package scripting provides a sandboxed GopherLua execution environment for
// encounter effect scripts. It has no dependency on game domain packages;
// all scheduler interactions are injected via Manager callback fields.
package scripting

import (
	"context"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// script execution when no scenario-specific override is configured.
const DefaultInstructionLimit = 100_000

// DefaultScriptTimeout is the wall-clock budget per script execution when no
// override is configured.
const DefaultScriptTimeout = 250 * time.Millisecond

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit. The wall-clock
// budget rides on the wrapped deadline context.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel. Each call decrements the
// remaining counter; when it reaches zero the cancel function fires,
// terminating the Lua VM on the next opcode boundary.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to
// Done() or when timeout elapses, whichever comes first.
// Precondition: limit > 0; timeout > 0.
func newCountingContext(limit int, timeout time.Duration) (context.Context, context.CancelFunc) {
	base, cancel := context.WithTimeout(context.Background(), timeout)
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// armLimits installs a fresh execution budget on L: at most instLimit Lua
// opcodes and at most timeout wall-clock. Both windows start now, so this is
// called before every script execution, not once per state.
//
// Precondition: instLimit >= 0 and timeout >= 0; zero values use the defaults.
// Postcondition: Returns the cancel func releasing the window's timer; callers
// that re-arm must cancel the previous window first.
func armLimits(L *lua.LState, instLimit int, timeout time.Duration) context.CancelFunc {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	to := timeout
	if to <= 0 {
		to = DefaultScriptTimeout
	}
	ctx, cancel := newCountingContext(limit, to)
	L.SetContext(ctx)
	return cancel
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Execution limited to at most instLimit Lua opcodes (deterministic) and
//     timeout wall-clock
//
// Precondition: instLimit >= 0 and timeout >= 0; zero values use the defaults.
// Postcondition: Returns a non-nil LState ready for RegisterModules and DoFile.
// The caller owns the LState and must call L.Close() when done.
func NewSandboxedState(instLimit int, timeout time.Duration) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Open only safe standard libraries.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Strip dangerous globals left by OpenBase.
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	// The initial window covers script loading; the timer self-releases at
	// its deadline, so the cancel can be discarded here.
	_ = armLimits(L, instLimit, timeout)

	return L
}
