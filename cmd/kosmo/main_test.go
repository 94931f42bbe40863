package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosmojs/dev/internal/errors"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := loadConfig(&globals{dir: dir})
	assert.True(t, errors.HasCode(err, "E141"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "kosmo.json"), []byte(`{"framework": "vue"}`), 0o644))
	_, err = loadConfig(&globals{dir: dir})
	assert.True(t, errors.HasCode(err, "E123"))

	nested := filepath.Join(dir, "src", "api")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	cfg, err := loadConfig(&globals{dir: nested})
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.AppRoot())
	assert.Equal(t, "vue", cfg.Framework)
}

func TestRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kosmo.json"), []byte(`{}`), 0o644))
	for rel, content := range map[string]string{
		"src/api/users/index.ts":      "export default defineRoute(({ GET }) => [\n  GET(async (ctx) => {}),\n]);\n",
		"src/api/users/[id]/index.ts": "export default defineRoute(({ PUT }) => [\n  PUT(async (ctx) => {}),\n]);\n",
		"src/pages/about/index.tsx":   "export default () => null;\n",
	} {
		file := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	}

	var out bytes.Buffer
	cmd := routesCmd(&globals{dir: dir})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var rows []struct {
		Name    string   `json:"name"`
		Methods []string `json:"methods"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 3)
	byName := map[string][]string{}
	for _, r := range rows {
		byName[r.Name] = r.Methods
	}
	assert.Equal(t, []string{"PUT"}, byName["users/[id]"])
	assert.Equal(t, []string{"GET"}, byName["users"])
	assert.Contains(t, byName, "about")

	out.Reset()
	cmd = routesCmd(&globals{dir: dir})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--pages=false"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "users/:id")
	assert.NotContains(t, out.String(), "about")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--short"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, buildVersion()+"\n", out.String())
}
