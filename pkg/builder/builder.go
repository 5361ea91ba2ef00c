// Package builder implements the build pipeline: resolve each profile's
// server set from templates, substitute environment variables, hash the
// result, and commit it to the profile's target when the content changed
// since the last recorded build.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/buildmcp/pkg/checksum"
	"github.com/go-go-golems/buildmcp/pkg/cmdutil"
	"github.com/go-go-golems/buildmcp/pkg/config"
	"github.com/go-go-golems/buildmcp/pkg/envsub"
	"github.com/go-go-golems/buildmcp/pkg/lockfile"
)

// Builder drives one build pass over all profiles of a configuration.
type Builder struct {
	// ConfigPath locates the configuration document.
	ConfigPath string
	// Verbose enables per-step progress output, including substitution
	// reporting with sensitive-value redaction.
	Verbose bool
	// DryRun previews every dispatch and never writes the lock file.
	DryRun bool
	// CheckEnv reports unresolved environment variables at the end of the
	// run. Substitution itself is unaffected either way.
	CheckEnv bool
	// Force dispatches every profile regardless of the locked hashes.
	Force bool
	// Profiles restricts the run to the named profiles; empty means all.
	Profiles []string
	// Algorithm selects the content hash function.
	Algorithm checksum.Algorithm
	// WriteTimeout bounds external write commands.
	WriteTimeout time.Duration
	// Env resolves environment variables; defaults to os.LookupEnv.
	Env func(string) (string, bool)
}

// New returns a Builder with the conventional defaults.
func New(configPath string) *Builder {
	return &Builder{
		ConfigPath:   configPath,
		CheckEnv:     true,
		Algorithm:    checksum.SHA256,
		WriteTimeout: DefaultWriteTimeout,
		Env:          os.LookupEnv,
	}
}

func (b *Builder) newSubstitutor() *envsub.Substitutor {
	lookup := b.Env
	if lookup == nil {
		lookup = os.LookupEnv
	}
	sub := envsub.New(lookup)
	sub.Verbose = b.Verbose
	return sub
}

// Run executes the full build pass. It returns an error only for the fatal
// cases (missing or unparsable configuration, cancellation); individual
// profile failures are reported, counted, and skipped.
func (b *Builder) Run(ctx context.Context) error {
	cfg, err := config.Load(b.ConfigPath)
	if err != nil {
		return err
	}

	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles defined in configuration")
		return nil
	}
	if len(cfg.Targets) == 0 {
		fmt.Println("No targets defined in configuration")
		return nil
	}

	lock := lockfile.NewStore(b.ConfigPath)
	locked := lock.Load()
	sub := b.newSubstitutor()

	if b.Verbose {
		fmt.Printf("Configuration: %d base server(s), %d template(s), %d profile(s), %d target(s)\n",
			len(cfg.BaseServers), len(cfg.Templates), len(cfg.Profiles), len(cfg.Targets))
	}

	names := cmdutil.FilterItems(sortedProfileNames(cfg), b.Profiles, func(s string) string { return s })
	hashes := map[string]string{}
	if len(b.Profiles) > 0 {
		// The lock is replaced wholesale at the end, so a restricted run
		// carries over the entries of profiles it did not process.
		selected := cmdutil.BuildSelectorSet(b.Profiles)
		for name, h := range locked {
			if _, ok := selected[name]; !ok {
				hashes[name] = h
			}
		}
	}
	attempted := 0
	completed := 0

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempted++
		fmt.Printf("\nProcessing profile: %s\n", name)

		target, ok := cfg.Targets[name]
		if !ok {
			fmt.Printf("  ✗ No target defined for profile '%s'\n", name)
			log.Error().Str("profile", name).Msg("no target defined for profile")
			continue
		}

		servers, err := ResolveServers(cfg.Profiles[name], cfg.Templates, cfg.BaseServers)
		if err != nil {
			fmt.Printf("  ✗ Failed to resolve profile: %v\n", err)
			log.Error().Str("profile", name).Err(err).Msg("profile resolution failed")
			continue
		}
		if servers.Len() == 0 {
			fmt.Printf("  No valid servers for profile %s\n", name)
			completed++
			continue
		}
		fmt.Printf("  Built %d server(s)\n", servers.Len())

		servers = substituteServers(sub, servers)

		hash, err := checksum.Hash(servers, b.Algorithm)
		if err != nil {
			fmt.Printf("  ✗ Failed to hash profile: %v\n", err)
			log.Error().Str("profile", name).Err(err).Msg("content hashing failed")
			continue
		}
		if b.Verbose {
			fmt.Printf("  Built config hash: %.16s...\n", hash)
		}

		lockedHash, hasLock := locked[name]
		if !b.Force && hasLock && lockedHash == hash {
			fmt.Println("  ⊘ Skipping (unchanged, use --force to override)")
			hashes[name] = hash
			completed++
			continue
		}
		if hasLock && lockedHash != hash {
			log.Debug().Str("profile", name).Str("locked", lockedHash).Str("built", hash).Msg("lock hash differs")
		}

		if Dispatch(ctx, target, servers, DispatchOptions{
			DryRun:  b.DryRun,
			Verbose: b.Verbose,
			Timeout: b.WriteTimeout,
		}) {
			hashes[name] = hash
			completed++
		} else {
			// Keep the previous committed hash so a failed write stays
			// marked as stale on the next run.
			if hasLock {
				hashes[name] = lockedHash
			}
			fmt.Printf("  ✗ Failed to process profile: %s\n", name)
		}
	}

	fmt.Printf("\n✓ Processed %d/%d profiles\n", completed, attempted)

	if !b.DryRun {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := lock.Save(hashes); err != nil {
			fmt.Printf("Warning: could not write lock file: %v\n", err)
			log.Warn().Err(err).Msg("lock file update failed")
		}
	}

	b.reportMissing(sub)
	return nil
}

// Extract resolves and substitutes a single profile and writes its envelope
// to w. The lock file is neither read nor written.
func (b *Builder) Extract(ctx context.Context, profile string, w io.Writer) error {
	cfg, err := config.Load(b.ConfigPath)
	if err != nil {
		return err
	}
	templateNames, ok := cfg.Profiles[profile]
	if !ok {
		return fmt.Errorf("unknown profile '%s'", profile)
	}

	sub := b.newSubstitutor()
	servers, err := ResolveServers(templateNames, cfg.Templates, cfg.BaseServers)
	if err != nil {
		return fmt.Errorf("failed to resolve profile '%s': %w", profile, err)
	}
	servers = substituteServers(sub, servers)

	payload, err := json.MarshalIndent(Envelope(servers), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize profile '%s': %w", profile, err)
	}
	if _, err := fmt.Fprintln(w, string(payload)); err != nil {
		return err
	}

	b.reportMissing(sub)
	return nil
}

// ProfileStatus is one row of a lock comparison.
type ProfileStatus struct {
	Profile   string
	Hash      string
	Locked    string
	State     string
	HasTarget bool
}

// Status compares every profile's current content hash against the lock file
// without dispatching anything. States are "new", "changed" and "unchanged".
func (b *Builder) Status(ctx context.Context) ([]ProfileStatus, error) {
	cfg, err := config.Load(b.ConfigPath)
	if err != nil {
		return nil, err
	}
	locked := lockfile.NewStore(b.ConfigPath).Load()
	sub := b.newSubstitutor()

	statuses := make([]ProfileStatus, 0, len(cfg.Profiles))
	for _, name := range sortedProfileNames(cfg) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		servers, err := ResolveServers(cfg.Profiles[name], cfg.Templates, cfg.BaseServers)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve profile '%s': %w", name, err)
		}
		servers = substituteServers(sub, servers)
		hash, err := checksum.Hash(servers, b.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("failed to hash profile '%s': %w", name, err)
		}

		state := "new"
		lockedHash, ok := locked[name]
		switch {
		case ok && lockedHash == hash:
			state = "unchanged"
		case ok:
			state = "changed"
		}
		_, hasTarget := cfg.Targets[name]
		statuses = append(statuses, ProfileStatus{
			Profile:   name,
			Hash:      hash,
			Locked:    lockedHash,
			State:     state,
			HasTarget: hasTarget,
		})
	}
	return statuses, nil
}

// WriteLock recomputes every profile's content hash and replaces the lock
// file, without dispatching any target. Profiles that resolve to zero
// servers are left out, matching Run.
func (b *Builder) WriteLock(ctx context.Context) error {
	cfg, err := config.Load(b.ConfigPath)
	if err != nil {
		return err
	}
	sub := b.newSubstitutor()

	hashes := map[string]string{}
	for _, name := range sortedProfileNames(cfg) {
		if err := ctx.Err(); err != nil {
			return err
		}
		servers, err := ResolveServers(cfg.Profiles[name], cfg.Templates, cfg.BaseServers)
		if err != nil {
			return fmt.Errorf("failed to resolve profile '%s': %w", name, err)
		}
		if servers.Len() == 0 {
			continue
		}
		servers = substituteServers(sub, servers)
		hash, err := checksum.Hash(servers, b.Algorithm)
		if err != nil {
			return fmt.Errorf("failed to hash profile '%s': %w", name, err)
		}
		hashes[name] = hash
	}

	lock := lockfile.NewStore(b.ConfigPath)
	if err := lock.Save(hashes); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote lock file: %s (%d profiles)\n", lock.Path(), len(hashes))
	return nil
}

// substituteServers expands environment placeholders in every definition,
// preserving entry order.
func substituteServers(sub *envsub.Substitutor, servers *ServerSet) *ServerSet {
	out := NewServerSet()
	servers.Each(func(name string, def any) {
		out.Set(name, sub.Substitute(def))
	})
	return out
}

// sortedProfileNames gives a deterministic iteration order for a run.
func sortedProfileNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Builder) reportMissing(sub *envsub.Substitutor) {
	if !b.CheckEnv {
		return
	}
	missing := sub.Missing()
	if len(missing) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\nMissing environment variables:")
	for _, name := range missing {
		fmt.Fprintf(os.Stderr, "  - ${%s}\n", name)
	}
	fmt.Fprintln(os.Stderr, "\nSet these variables or use --check-env=false to suppress this report")
}
