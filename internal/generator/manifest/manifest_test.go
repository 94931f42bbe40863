package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/generator"
	"github.com/kosmojs/dev/internal/resolver"
	"github.com/kosmojs/dev/pkg/route"
)

func snapshot(root string) route.Snapshot {
	api := resolver.NewEntry("api", "books/[category]/index.ts", filepath.Join(root, "src/api/books/[category]/index.ts"))
	static := resolver.NewEntry("api", "books/new/index.ts", filepath.Join(root, "src/api/books/new/index.ts"))
	page := resolver.NewEntry("pages", "about/index.tsx", filepath.Join(root, "src/pages/about/index.tsx"))

	return route.Snapshot{
		{Kind: route.KindAPI, API: &route.APIRoute{Entry: api, Params: route.APIParams{Schema: api.ParamsSchema()}, Methods: []string{"GET"}}},
		{Kind: route.KindAPI, API: &route.APIRoute{Entry: static, Methods: []string{"POST"}}},
		{Kind: route.KindPage, Page: &route.PageRoute{Entry: page}},
	}
}

func TestBuild(t *testing.T) {
	rows := Build(snapshot("/app"), false)
	require.Len(t, rows, 2)

	assert.Equal(t, "books/new", rows[0].Name)
	assert.Equal(t, "/books/new", rows[0].Path)
	assert.Equal(t, "api/books/new/index.ts", rows[0].File)
	assert.Empty(t, rows[0].Params)

	assert.Equal(t, "/books/:category", rows[1].Path)
	require.Len(t, rows[1].Params, 1)
	assert.Equal(t, "category", rows[1].Params[0].Name)

	withPages := Build(snapshot("/app"), true)
	require.Len(t, withPages, 3)
	assert.Equal(t, "books/new", withPages[0].Name)
	assert.Equal(t, route.KindPage, withPages[1].Kind)
}

func TestManifestGenerator(t *testing.T) {
	root := t.TempDir()
	cfg := config.New()
	cfg.SetAppRoot(root)

	c, err := Factory(json.RawMessage(`{"file": "manifest.json"}`))
	require.NoError(t, err)
	assert.Empty(t, c.Kind)

	g, err := c.Factory(context.Background(), generator.NewEnv(cfg, nil))
	require.NoError(t, err)
	require.NoError(t, g.WatchHandler(context.Background(), snapshot(root), nil))

	data, err := os.ReadFile(filepath.Join(root, "lib", "src", "manifest.json"))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "api", rows[0]["kind"])
}
