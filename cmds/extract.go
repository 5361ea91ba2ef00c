package cmds

import (
	"context"
	"os"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

type ExtractCommand struct{ *gcmds.CommandDescription }

type ExtractSettings struct {
	Profile  string `glazed.parameter:"profile"`
	Config   string `glazed.parameter:"config"`
	Verbose  bool   `glazed.parameter:"verbose"`
	CheckEnv bool   `glazed.parameter:"check-env"`
}

func NewExtractCommand() (*ExtractCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"extract",
		gcmds.WithShort("Resolve and substitute a single profile and print its document"),
		gcmds.WithArguments(
			parameters.NewParameterDefinition("profile", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithHelp("Profile to extract")),
		),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithShortFlag("c"), parameters.WithHelp("Configuration file (default ~/.claude/mcp.json)")),
			parameters.NewParameterDefinition("verbose", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithShortFlag("v"), parameters.WithHelp("Show substitutions")),
			parameters.NewParameterDefinition("check-env", parameters.ParameterTypeBool, parameters.WithDefault(true), parameters.WithHelp("Report unresolved environment variables")),
		),
		gcmds.WithLayersList(layer),
	)
	return &ExtractCommand{cd}, nil
}

// Run prints the profile's envelope to stdout. The lock file is never
// touched on this path.
func (c *ExtractCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &ExtractSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	b, err := newBuilder(s.Config, "", "")
	if err != nil {
		return err
	}
	b.Verbose = s.Verbose
	b.CheckEnv = s.CheckEnv
	return b.Extract(ctx, s.Profile, os.Stdout)
}

var _ gcmds.BareCommand = &ExtractCommand{}
