package cmds

import (
	"context"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

type LockCommand struct{ *gcmds.CommandDescription }

type LockSettings struct {
	Config    string `glazed.parameter:"config"`
	Algorithm string `glazed.parameter:"algorithm"`
}

func NewLockCommand() (*LockCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"lock",
		gcmds.WithShort("Rebuild the lock file from the current configuration without deploying"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithShortFlag("c"), parameters.WithHelp("Configuration file (default ~/.claude/mcp.json)")),
			parameters.NewParameterDefinition("algorithm", parameters.ParameterTypeChoice, parameters.WithChoices("sha256", "blake3"), parameters.WithDefault("sha256"), parameters.WithHelp("Content hash algorithm")),
		),
		gcmds.WithLayersList(layer),
	)
	return &LockCommand{cd}, nil
}

func (c *LockCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &LockSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	b, err := newBuilder(s.Config, s.Algorithm, "")
	if err != nil {
		return err
	}
	return b.WriteLock(ctx)
}

var _ gcmds.BareCommand = &LockCommand{}
