package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/buildmcp/pkg/config"
	"github.com/go-go-golems/buildmcp/pkg/document"
)

func testServers(t *testing.T) *ServerSet {
	t.Helper()
	servers, err := ResolveServers(
		[]string{"srv"},
		map[string]any{"srv": map[string]any{"command": "cmd", "env": map[string]any{"K": "hello"}}},
		nil,
	)
	require.NoError(t, err)
	return servers
}

func fileTarget(path string) config.Target {
	return config.Target{Kind: config.TargetFile, Path: path, At: config.DefaultSubPath}
}

func shellTarget(cmd string) config.Target {
	return config.Target{Kind: config.TargetShell, Command: cmd}
}

func TestDispatchFileWritesAtSubPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	ok := Dispatch(context.Background(), fileTarget(path), testServers(t), DispatchOptions{})
	assert.True(t, ok)

	got, err := document.ReadFileAt(path, ".mcpServers")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"srv": map[string]any{"command": "cmd", "env": map[string]any{"K": "hello"}},
	}, got)
}

func TestDispatchFilePreservesOtherSubPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, document.WriteFileAt(path, map[string]any{"setting": true}, ".other"))

	ok := Dispatch(context.Background(), fileTarget(path), testServers(t), DispatchOptions{})
	assert.True(t, ok)

	other, err := document.ReadFileAt(path, ".other")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"setting": true}, other)
}

func TestDispatchShellReceivesEnvelopeOnStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "captured.json")

	ok := Dispatch(context.Background(), shellTarget("cat > "+out), testServers(t), DispatchOptions{})
	assert.True(t, ok)

	got, err := document.ReadFileAt(out, ".mcpServers.srv.command")
	require.NoError(t, err)
	assert.Equal(t, "cmd", got)
}

func TestDispatchShellNonZeroWithSuccessPhraseSucceeds(t *testing.T) {
	cmd := `echo "Configuration saved successfully" >&2; exit 1`
	ok := Dispatch(context.Background(), shellTarget(cmd), testServers(t), DispatchOptions{})
	assert.True(t, ok)
}

func TestDispatchShellNonZeroWithoutSuccessPhraseFails(t *testing.T) {
	cmd := `echo "it broke" >&2; exit 1`
	ok := Dispatch(context.Background(), shellTarget(cmd), testServers(t), DispatchOptions{})
	assert.False(t, ok)
}

func TestDispatchShellTimeoutFails(t *testing.T) {
	ok := Dispatch(context.Background(), shellTarget("sleep 5"), testServers(t), DispatchOptions{
		Timeout: 50 * time.Millisecond,
	})
	assert.False(t, ok)
}

func TestDispatchDryRunTouchesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	ok := Dispatch(context.Background(), fileTarget(path), testServers(t), DispatchOptions{DryRun: true})
	assert.True(t, ok)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	marker := filepath.Join(t.TempDir(), "marker")
	ok = Dispatch(context.Background(), shellTarget("touch "+marker), testServers(t), DispatchOptions{DryRun: true})
	assert.True(t, ok)
	_, err = os.Stat(marker)
	assert.True(t, os.IsNotExist(err))
}

func TestDispatchMalformedTargetFails(t *testing.T) {
	target := config.Target{Kind: config.TargetMalformed, Reason: "mapping without a 'write' command or 'path'"}
	ok := Dispatch(context.Background(), target, testServers(t), DispatchOptions{})
	assert.False(t, ok)
}

func TestReportsSuccess(t *testing.T) {
	assert.True(t, reportsSuccess("Configuration saved SUCCESSFULLY"))
	assert.True(t, reportsSuccess("profile Updated"))
	assert.True(t, reportsSuccess("sync Complete"))
	assert.False(t, reportsSuccess("nothing to see here"))
	assert.False(t, reportsSuccess(""))
}

func TestEnvelopeUsesFixedKey(t *testing.T) {
	env := Envelope(testServers(t))
	_, ok := env["mcpServers"]
	assert.True(t, ok)
	assert.Len(t, env, 1)
}
