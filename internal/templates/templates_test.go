package templates

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/pkg/route"
)

func TestGet(t *testing.T) {
	for _, name := range []string{"types", "resolved-types", "api-route", "api-lib", "api-index", "fetch-lib", "fetch-index", "react", "solid", "vue", "svelte"} {
		t.Run(name, func(t *testing.T) {
			tmpl, err := Get(name)
			require.NoError(t, err)
			assert.Equal(t, name, tmpl.Name)
			assert.NotEmpty(t, tmpl.Text)
		})
	}

	_, err := Get("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "E227"))
}

func TestList(t *testing.T) {
	names := List()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "types")
}

func TestRender(t *testing.T) {
	out, err := Render(`{{.Name}} {{quote .Name}} {{join .List ","}} {{json .List}}`, map[string]any{
		"Name": "a\"b",
		"List": []string{"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, `a"b "a\"b" x,y ["x","y"]`, out)

	_, err = Render(`{{.Missing}}`, map[string]any{})
	assert.True(t, errors.HasCode(err, "E225"))

	_, err = Render(`{{.Name`, nil)
	assert.True(t, errors.HasCode(err, "E225"))
}

func TestRenderTypes(t *testing.T) {
	tmpl, err := Get("types")
	require.NoError(t, err)

	out, err := Render(tmpl.Text, TypesData{
		Params: route.APIParams{ID: "ParamsT1"},
		ParamsSchema: []ParamField{
			{ParamSpec: route.ParamSpec{Name: "id", IsRequired: true}, Type: "TRefine<number, { minimum: 1 }>"},
			{ParamSpec: route.ParamSpec{Name: "path", IsRest: true}, Type: "Array<string>"},
		},
		TypeDeclarations: []route.TypeDeclaration{{Text: `import type { User } from "src/types"`}},
		PayloadTypes:     []route.PayloadType{{ID: "PayloadT_PUT", Text: "{ name: string }"}},
		ResponseTypes:    []route.ResponseType{{ID: "ResponseT_PUT", Text: "User"}},
	})
	require.NoError(t, err)

	assert.Equal(t, `import type { User } from "src/types"

export type ParamsT1 = {
  "id": TRefine<number, { minimum: 1 }>;
  "path"?: Array<string>;
};

export type PayloadT_PUT = { name: string };

export type ResponseT_PUT = User;
`, out)
}

func TestRenderToFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "nested", "index.ts")

	written, err := RenderToFile(ctx, file, "first {{.}}", "a")
	require.NoError(t, err)
	assert.True(t, written)
	assertFile(t, file, "first a")

	// not blank, default policy protects it
	written, err = RenderToFile(ctx, file, "second {{.}}", "a")
	require.NoError(t, err)
	assert.False(t, written)
	assertFile(t, file, "first a")

	written, err = RenderToFile(ctx, file, "second {{.}}", "a", WithOverwrite(Always))
	require.NoError(t, err)
	assert.True(t, written)
	assertFile(t, file, "second a")

	// unchanged content is not rewritten
	written, err = RenderToFile(ctx, file, "second {{.}}", "a", WithOverwrite(Always))
	require.NoError(t, err)
	assert.False(t, written)

	require.NoError(t, os.WriteFile(file, []byte("  \n"), 0o644))
	written, err = RenderToFile(ctx, file, "third", nil)
	require.NoError(t, err)
	assert.True(t, written)
	assertFile(t, file, "third")
}

func TestRenderToFileFormatters(t *testing.T) {
	trim, err := LoadFormatter("trim", json.RawMessage(`{"include": ["*.{ts,tsx}"]}`))
	require.NoError(t, err)

	dir := t.TempDir()
	ts := filepath.Join(dir, "a.ts")
	txt := filepath.Join(dir, "a.txt")

	_, err = RenderToFile(context.Background(), ts, "a  \nb\t\n\n\n", nil, WithFormatters(trim))
	require.NoError(t, err)
	assertFile(t, ts, "a\nb\n")

	_, err = RenderToFile(context.Background(), txt, "a  \n\n", nil, WithFormatters(trim))
	require.NoError(t, err)
	assertFile(t, txt, "a  \n\n")
}

func TestLoadFormatter(t *testing.T) {
	_, err := LoadFormatter("prettier", nil)
	assert.True(t, errors.HasCode(err, "E224"))

	_, err = LoadFormatter("exec", json.RawMessage(`{}`))
	assert.True(t, errors.HasCode(err, "E224"))

	_, err = LoadFormatter("trim", json.RawMessage(`{"include": 1}`))
	assert.True(t, errors.HasCode(err, "E224"))

	f, err := LoadFormatter("trim", json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, "trim", f.Name())
}

func TestExecFormatter(t *testing.T) {
	if _, err := exec.LookPath("tr"); err != nil {
		t.Skip("tr not available")
	}

	f, err := LoadFormatter("exec", json.RawMessage(`{"command": ["tr", "a-z", "A-Z"]}`))
	require.NoError(t, err)

	out, err := f.Format(context.Background(), "x.ts", "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)

	f, err = LoadFormatter("exec", json.RawMessage(`{"command": ["tr"]}`))
	require.NoError(t, err)
	_, err = f.Format(context.Background(), "x.ts", "hello")
	assert.Error(t, err)
}

func assertFile(t *testing.T, file, want string) {
	t.Helper()
	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}
