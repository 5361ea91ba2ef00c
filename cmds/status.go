package cmds

import (
	"context"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
)

type StatusCommand struct{ *gcmds.CommandDescription }

type StatusSettings struct {
	Config    string `glazed.parameter:"config"`
	Algorithm string `glazed.parameter:"algorithm"`
}

func NewStatusCommand() (*StatusCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"status",
		gcmds.WithShort("Compare profile content hashes against the lock file"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithShortFlag("c"), parameters.WithHelp("Configuration file (default ~/.claude/mcp.json)")),
			parameters.NewParameterDefinition("algorithm", parameters.ParameterTypeChoice, parameters.WithChoices("sha256", "blake3"), parameters.WithDefault("sha256"), parameters.WithHelp("Content hash algorithm")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	return &StatusCommand{cd}, nil
}

// GlazeCommand: one row per profile with its change state.
func (c *StatusCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &StatusSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	b, err := newBuilder(s.Config, s.Algorithm, "")
	if err != nil {
		return err
	}

	statuses, err := b.Status(ctx)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		row := types.NewRow(
			types.MRP("profile", st.Profile),
			types.MRP("state", st.State),
			types.MRP("hash", st.Hash),
			types.MRP("locked", st.Locked),
			types.MRP("has_target", st.HasTarget),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

var _ gcmds.GlazeCommand = &StatusCommand{}
