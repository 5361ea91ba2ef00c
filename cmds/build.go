package cmds

import (
	"context"
	"fmt"
	"time"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/spf13/viper"

	"github.com/go-go-golems/buildmcp/pkg/builder"
	"github.com/go-go-golems/buildmcp/pkg/checksum"
	"github.com/go-go-golems/buildmcp/pkg/config"
)

type BuildCommand struct{ *gcmds.CommandDescription }

type BuildSettings struct {
	Config    string   `glazed.parameter:"config"`
	Verbose   bool     `glazed.parameter:"verbose"`
	DryRun    bool     `glazed.parameter:"dry-run"`
	CheckEnv  bool     `glazed.parameter:"check-env"`
	Force     bool     `glazed.parameter:"force"`
	Algorithm string   `glazed.parameter:"algorithm"`
	Timeout   string   `glazed.parameter:"timeout"`
	Profiles  []string `glazed.parameter:"profiles"`
}

func NewBuildCommand() (*BuildCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"build",
		gcmds.WithShort("Build all profiles and deploy changed ones to their targets"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithShortFlag("c"), parameters.WithHelp("Configuration file (default ~/.claude/mcp.json)")),
			parameters.NewParameterDefinition("verbose", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithShortFlag("v"), parameters.WithHelp("Show per-step progress and substitutions")),
			parameters.NewParameterDefinition("dry-run", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Preview payloads without writing targets or the lock file")),
			parameters.NewParameterDefinition("check-env", parameters.ParameterTypeBool, parameters.WithDefault(true), parameters.WithHelp("Report unresolved environment variables at the end")),
			parameters.NewParameterDefinition("force", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Write all targets even if checksums match")),
			parameters.NewParameterDefinition("algorithm", parameters.ParameterTypeChoice, parameters.WithChoices("sha256", "blake3"), parameters.WithDefault("sha256"), parameters.WithHelp("Content hash algorithm")),
			parameters.NewParameterDefinition("timeout", parameters.ParameterTypeString, parameters.WithDefault("30s"), parameters.WithHelp("Timeout for external write commands")),
			parameters.NewParameterDefinition("profiles", parameters.ParameterTypeStringList, parameters.WithHelp("Only process these profiles; default all")),
		),
		gcmds.WithLayersList(layer),
	)
	return &BuildCommand{cd}, nil
}

func (c *BuildCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &BuildSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	b, err := newBuilder(s.Config, s.Algorithm, s.Timeout)
	if err != nil {
		return err
	}
	b.Verbose = s.Verbose
	b.DryRun = s.DryRun
	b.CheckEnv = s.CheckEnv
	b.Force = s.Force
	b.Profiles = s.Profiles
	return b.Run(ctx)
}

var _ gcmds.BareCommand = &BuildCommand{}

// newBuilder wires the shared flag plumbing: config path fallback (flag, then
// viper, then the conventional default) plus algorithm and timeout parsing.
func newBuilder(configPath, algorithm, timeout string) (*builder.Builder, error) {
	if configPath == "" {
		configPath = viper.GetString("buildmcp.config")
	}
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	b := builder.New(configPath)

	algo, err := checksum.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	b.Algorithm = algo

	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout '%s': %w", timeout, err)
		}
		b.WriteTimeout = d
	}
	return b, nil
}
