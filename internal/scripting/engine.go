package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
)

// Engine wraps a single gopher-lua VM holding the simulation's tuning
// scripts. Single-goroutine access only (frame loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under scriptsDir:
// core/ first, then the feature directories.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "agent", "ai"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasFunction reports whether a global Lua function is defined.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// AgentProfile calls the Lua agent_profile(seq, defaults) function. Fields
// the script leaves out keep their default; a missing function or a script
// error yields def unchanged.
//
// Script contract:
//
//	function agent_profile(seq, d)
//	  return { move_speed = d.move_speed * 1.2, avoidance = seq % 2 == 0 }
//	end
func (e *Engine) AgentProfile(seq int, def component.SpawnProfile) component.SpawnProfile {
	fn, ok := e.vm.GetGlobal("agent_profile").(*lua.LFunction)
	if !ok {
		return def
	}

	d := e.vm.NewTable()
	d.RawSetString("move_speed", lua.LNumber(def.Params.MoveSpeed))
	d.RawSetString("acceleration", lua.LNumber(def.Params.Acceleration))
	d.RawSetString("rotation_speed", lua.LNumber(def.Params.RotationSpeed))
	d.RawSetString("stopping_distance", lua.LNumber(def.Params.StoppingDistance))
	d.RawSetString("area_mask", lua.LNumber(def.Params.AreaMask))
	d.RawSetString("avoidance", lua.LBool(def.Avoidance))
	d.RawSetString("avoidance_radius", lua.LNumber(def.AvoidanceRadius))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(seq), d); err != nil {
		e.log.Error("lua agent_profile error", zap.Int("seq", seq), zap.Error(err))
		return def
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		if result != lua.LNil {
			e.log.Error("lua agent_profile returned non-table", zap.String("type", result.Type().String()))
		}
		return def
	}

	p := def
	p.Params.MoveSpeed = lFloat(rt, "move_speed", p.Params.MoveSpeed)
	p.Params.Acceleration = lFloat(rt, "acceleration", p.Params.Acceleration)
	p.Params.RotationSpeed = lFloat(rt, "rotation_speed", p.Params.RotationSpeed)
	p.Params.StoppingDistance = lFloat(rt, "stopping_distance", p.Params.StoppingDistance)
	p.Params.AreaMask = int32(lFloat(rt, "area_mask", float64(p.Params.AreaMask)))
	p.AvoidanceRadius = lFloat(rt, "avoidance_radius", p.AvoidanceRadius)
	if v, ok := rt.RawGetString("avoidance").(lua.LBool); ok {
		p.Avoidance = bool(v)
	}
	return p
}

// lFloat reads a numeric field, falling back to def when absent.
func lFloat(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
