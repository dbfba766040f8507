package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/config"
	"github.com/crowdnav/crowdsim/internal/data"
	"github.com/crowdnav/crowdsim/internal/scripting"
)

// check loads every asset the run command would, without starting the loop.
func check(cfg *config.Config) error {
	printBanner(cfg.Server.Name)
	printSection("Navmesh")

	grid, info, err := data.LoadNavmesh(cfg.Navmesh.MapFile)
	if err != nil {
		return err
	}
	walkable := 0
	for z := 0; z < grid.Height(); z++ {
		for x := 0; x < grid.Width(); x++ {
			if grid.Walkable(x, z, cfg.Agent.AreaMask) {
				walkable++
			}
		}
	}
	printStat("Width", grid.Width())
	printStat("Height", grid.Height())
	printStat("Walkable cells", walkable)
	printStat("Avoidance grid width", grid.MaxMapWidth())
	if info.Name != "" {
		printOK("Loaded " + info.Name)
	}

	printSection("Placements")
	placements, err := loadPlacements(cfg.Data.PlacementsFile)
	if err != nil {
		return err
	}
	var residential, commercial int
	for _, p := range placements {
		switch p.Category {
		case component.Residential:
			residential++
		case component.Commercial:
			commercial++
		}
	}
	printStat("Residential", residential)
	printStat("Commercial", commercial)

	if cfg.Data.ScriptsDir != "" {
		printSection("Scripts")
		engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, zap.NewNop())
		if err != nil {
			return fmt.Errorf("init lua engine: %w", err)
		}
		defer engine.Close()
		if engine.HasFunction("agent_profile") {
			p := engine.AgentProfile(0, spawnDefaults(cfg.Agent))
			printOK(fmt.Sprintf("agent_profile(0): speed %.2f, stop %.2f, avoidance %t", p.Params.MoveSpeed, p.Params.StoppingDistance, p.Avoidance))
		} else {
			printOK("No agent_profile hook, config defaults apply")
		}
	}

	fmt.Println()
	printReady("Assets OK")
	return nil
}
