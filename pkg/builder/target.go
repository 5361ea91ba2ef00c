package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/buildmcp/pkg/config"
	"github.com/go-go-golems/buildmcp/pkg/document"
)

// DefaultWriteTimeout bounds how long an external write command may run.
const DefaultWriteTimeout = 30 * time.Second

// successPhrases are sniffed case-insensitively in a write command's combined
// output. Some wrapped tools exit non-zero yet announce success in text, so
// text wins over the exit code here. Deliberately fuzzy; swap the predicate,
// not the call sites, if a deployment target needs stricter classification.
var successPhrases = []string{
	"configuration saved successfully",
	"successfully",
	"success",
	"updated",
	"complete",
}

// reportsSuccess is the single place where free-text success detection lives.
func reportsSuccess(output string) bool {
	lowered := strings.ToLower(output)
	for _, phrase := range successPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// DispatchOptions tune one dispatch call.
type DispatchOptions struct {
	// DryRun surfaces the payload without touching the filesystem or
	// running any command, and reports success.
	DryRun bool
	// Verbose echoes command output on success.
	Verbose bool
	// Timeout bounds shell write commands; zero means DefaultWriteTimeout.
	Timeout time.Duration
}

// Envelope wraps a server set under the fixed emission key.
func Envelope(servers *ServerSet) map[string]any {
	return map[string]any{config.ServerSetKey: servers}
}

// Dispatch commits a resolved server set to its target and classifies the
// outcome. Expected failures (bad command, I/O error, malformed target) are
// reported and returned as false; they never abort the run.
func Dispatch(ctx context.Context, target config.Target, servers *ServerSet, opts DispatchOptions) bool {
	payload, err := json.MarshalIndent(Envelope(servers), "", "  ")
	if err != nil {
		fmt.Printf("  ✗ failed to serialize document: %v\n", err)
		return false
	}

	if opts.DryRun {
		fmt.Printf("  Would write to: %s\n", target.String())
		fmt.Println(string(payload))
		return true
	}

	switch target.Kind {
	case config.TargetFile:
		return dispatchFile(target, servers)
	case config.TargetShell:
		return dispatchShell(ctx, target, payload, opts)
	default:
		fmt.Printf("  ✗ %s\n", target.String())
		log.Error().Str("reason", target.Reason).Msg("malformed target specification")
		return false
	}
}

func dispatchFile(target config.Target, servers *ServerSet) bool {
	path := document.ExpandHome(target.Path)
	if err := document.WriteFileAt(path, servers, target.At); err != nil {
		fmt.Printf("  ✗ failed to write target: %v\n", err)
		log.Error().Str("path", path).Err(err).Msg("file target write failed")
		return false
	}
	fmt.Printf("  ✓ Wrote to %s\n", path)
	return true
}

func dispatchShell(ctx context.Context, target config.Target, payload []byte, opts DispatchOptions) bool {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", target.Command)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		fmt.Printf("  ✗ Command timed out after %s: %s\n", timeout, target.Command)
		log.Error().Str("command", target.Command).Dur("timeout", timeout).Msg("write command timed out")
		return false
	}

	combined := stdout.String() + stderr.String()
	succeeded := runErr == nil || reportsSuccess(combined)
	if succeeded {
		if opts.Verbose && stdout.Len() > 0 {
			fmt.Printf("  Output: %s\n", strings.TrimSpace(stdout.String()))
		}
		if stderr.Len() > 0 && reportsSuccess(combined) {
			fmt.Printf("  ✓ %s\n", strings.TrimSpace(stderr.String()))
		} else {
			fmt.Printf("  ✓ %s\n", target.Command)
		}
		return true
	}

	detail := strings.TrimSpace(stderr.String())
	if detail == "" {
		detail = strings.TrimSpace(stdout.String())
	}
	fmt.Printf("  ✗ Command failed: %s\n", target.Command)
	if detail != "" {
		fmt.Printf("    %s\n", detail)
	}
	log.Error().Str("command", target.Command).Err(runErr).Str("output", detail).Msg("write command failed")
	return false
}
