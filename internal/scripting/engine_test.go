package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
)

var defaults = component.SpawnProfile{
	Params: component.NavAgentParams{
		StoppingDistance: 0.5,
		MoveSpeed:        4,
		Acceleration:     1,
		RotationSpeed:    5,
		AreaMask:         -1,
	},
	Avoidance:       true,
	AvoidanceRadius: 2,
}

func newEngine(t *testing.T, script string) *Engine {
	t.Helper()
	dir := t.TempDir()
	if script != "" {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "agent"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "agent", "profile.lua"), []byte(script), 0o644))
	}
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestAgentProfileOverrides(t *testing.T) {
	e := newEngine(t, `
function agent_profile(seq, d)
  local p = { move_speed = d.move_speed + seq }
  if seq % 2 == 1 then
    p.avoidance = false
    p.area_mask = 3
  end
  return p
end
`)
	require.True(t, e.HasFunction("agent_profile"))

	even := e.AgentProfile(2, defaults)
	assert.Equal(t, 6.0, even.Params.MoveSpeed)
	assert.True(t, even.Avoidance)
	assert.Equal(t, int32(-1), even.Params.AreaMask)
	assert.Equal(t, 0.5, even.Params.StoppingDistance)

	odd := e.AgentProfile(3, defaults)
	assert.Equal(t, 7.0, odd.Params.MoveSpeed)
	assert.False(t, odd.Avoidance)
	assert.Equal(t, int32(3), odd.Params.AreaMask)
	assert.Equal(t, 2.0, odd.AvoidanceRadius)
}

func TestAgentProfileFallbacks(t *testing.T) {
	assert.Equal(t, defaults, newEngine(t, "").AgentProfile(0, defaults))
	assert.Equal(t, defaults, newEngine(t, `function agent_profile() error("boom") end`).AgentProfile(0, defaults))
	assert.Equal(t, defaults, newEngine(t, `function agent_profile() return 12 end`).AgentProfile(0, defaults))
}

func TestNewEngineBadScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "bad.lua"), []byte("this is not lua"), 0o644))
	_, err := NewEngine(dir, zap.NewNop())
	assert.ErrorContains(t, err, "load core scripts")
}
