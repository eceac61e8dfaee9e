package commands

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/tasks"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct{}

func (p *PlanCmd) Run(g *Global, root *CLI) error {
	opts, err := root.LoadOptions()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(opts)
	if err != nil {
		return err
	}
	// Planning never runs a tool, so placeholder collaborators suffice.
	set, err := tasks.New(cfg, planDeps(g))
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(set.Plan())
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	_, err = g.Out.Write(out)
	return err
}

func planDeps(g *Global) tasks.Deps {
	var none unavailable
	return tasks.Deps{Compiler: none, Linter: none, Transformer: none, Deleter: none, Logger: g.Logger}
}
