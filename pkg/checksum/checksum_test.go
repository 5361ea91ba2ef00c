package checksum

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIgnoresKeyOrder(t *testing.T) {
	// Decode from JSON text so the trees really are built in different
	// orders, not just written differently here.
	var a, b any
	require.NoError(t, json.Unmarshal([]byte(`{"x":{"k1":1,"k2":[{"a":true,"b":null}]},"y":"v"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"y":"v","x":{"k2":[{"b":null,"a":true}],"k1":1}}`), &b))

	ha, err := Hash(a, SHA256)
	require.NoError(t, err)
	hb, err := Hash(b, SHA256)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHashDistinguishesEmptyMappingFromSequence(t *testing.T) {
	hm, err := Hash(map[string]any{}, SHA256)
	require.NoError(t, err)
	hs, err := Hash([]any{}, SHA256)
	require.NoError(t, err)
	assert.NotEqual(t, hm, hs)
}

func TestHashDiffersForDifferentValues(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1}, SHA256)
	require.NoError(t, err)
	h2, err := Hash(map[string]any{"a": 2}, SHA256)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashIsStable(t *testing.T) {
	v := map[string]any{"srv": map[string]any{"command": "cmd"}}
	h1, err := Hash(v, SHA256)
	require.NoError(t, err)
	h2, err := Hash(v, SHA256)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestAlgorithmsProduceDifferentDigests(t *testing.T) {
	v := map[string]any{"a": 1}
	sha, err := Hash(v, SHA256)
	require.NoError(t, err)
	b3, err := Hash(v, BLAKE3)
	require.NoError(t, err)
	assert.NotEqual(t, sha, b3)
	assert.Len(t, b3, 64)
}

func TestHashRejectsUnknownAlgorithm(t *testing.T) {
	_, err := Hash(map[string]any{}, Algorithm("md5"))
	assert.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	algo, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, SHA256, algo)

	algo, err = ParseAlgorithm("blake3")
	require.NoError(t, err)
	assert.Equal(t, BLAKE3, algo)

	_, err = ParseAlgorithm("crc32")
	assert.Error(t, err)
}

func TestCanonicalSortsNestedKeys(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"b":{"z":1,"a":2},"a":3}`), &v))
	canonical, err := Canonical(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":{"a":2,"z":1}}`, string(canonical))
}

func TestHashPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"profiles":{"default":["a"]},"mcpServers":{"s":{}}}`), 0644))

	h1, err := HashPaths(path, SHA256, ".profiles.default", ".mcpServers")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"profiles":{"default":["b"]},"mcpServers":{"s":{}}}`), 0644))
	h2, err := HashPaths(path, SHA256, ".profiles.default", ".mcpServers")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	_, err = HashPaths(path, SHA256, ".missing")
	assert.Error(t, err)
}
