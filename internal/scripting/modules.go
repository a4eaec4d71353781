package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers the encounter.* Lua table into L:
//
//	encounter.get(id)                                  -> table|nil
//	encounter.modify_initiative(id, amount, dur, src)  -> true | nil, err
//	encounter.damage(id, amount)                       -> true | nil, err
//	encounter.roll(count, sides, modifier)             -> total | nil, err
//	encounter.log(msg)
//
// Callback fields left nil degrade to no-ops returning nil, so scripts can be
// loaded and unit-tested before the scheduler is wired in.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: encounter global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	encounter := L.NewTable()
	L.SetFuncs(encounter, map[string]lua.LGFunction{
		"get":               m.luaGet,
		"modify_initiative": m.luaModifyInitiative,
		"damage":            m.luaDamage,
		"roll":              m.luaRoll,
		"log":               m.luaLog,
	})
	L.SetGlobal("encounter", encounter)
}

func (m *Manager) luaGet(L *lua.LState) int {
	id := L.CheckString(1)
	if m.GetCombatant == nil {
		L.Push(lua.LNil)
		return 1
	}
	info := m.GetCombatant(id)
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}

	t := L.NewTable()
	L.SetField(t, "id", lua.LString(info.ID))
	L.SetField(t, "name", lua.LString(info.Name))
	L.SetField(t, "team", lua.LString(info.Team))
	L.SetField(t, "hp", lua.LNumber(info.HP))
	L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(t, "action_points", lua.LNumber(info.ActionPoints))
	L.SetField(t, "initiative", lua.LNumber(info.Initiative))
	L.Push(t)
	return 1
}

func (m *Manager) luaModifyInitiative(L *lua.LState) int {
	id := L.CheckString(1)
	amount := L.CheckInt(2)
	duration := L.CheckInt(3)
	source := L.CheckString(4)

	if m.ModifyInitiative == nil {
		L.Push(lua.LNil)
		return 1
	}
	if err := m.ModifyInitiative(id, amount, duration, source); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaDamage(L *lua.LState) int {
	id := L.CheckString(1)
	amount := L.CheckInt(2)

	if m.DealDamage == nil {
		L.Push(lua.LNil)
		return 1
	}
	if err := m.DealDamage(id, amount); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaRoll(L *lua.LState) int {
	count := L.CheckInt(1)
	sides := L.CheckInt(2)
	modifier := L.OptInt(3, 0)

	result, err := m.roller.Roll(count, sides, modifier)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(result.Total()))
	return 1
}

func (m *Manager) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	m.logger.Info("script: " + msg)
	return 0
}
