package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E120",
			wantMsg: "Invalid kosmo.json",
			wantCat: CategoryConfig,
		},
		{
			name:    "resolve error",
			code:    "E201",
			wantMsg: "Route signature extraction failed",
			wantCat: CategoryResolve,
		},
		{
			name:    "worker error",
			code:    "E232",
			wantMsg: "Worker exited",
			wantCat: CategoryWorker,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryGenerator, "generator %q not found", "api")
	assert.Equal(t, `generator "api" not found`, err.Message)
	assert.Equal(t, CategoryGenerator, err.Category)
}

func TestKosmoError_Error(t *testing.T) {
	assert.Equal(t, "E222: Generator failed", New("E222").Error())

	err := New("E201").WithFile("src/api/books/index.ts").Wrap(fmt.Errorf("boom"))
	assert.Equal(t, "E201: Route signature extraction failed (src/api/books/index.ts): boom", err.Error())

	assert.Equal(t, "plain", (&KosmoError{Message: "plain"}).Error())
}

func TestKosmoError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := New("E141").Wrap(cause)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWithLocationReadsContext(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.ts")
	lines := []string{"a", "b", "c", "d", "e", "f"}
	require.NoError(t, os.WriteFile(file, []byte(strings.Join(lines, "\n")), 0o644))

	err := New("E201").WithLocation(file, 3, 2)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, err.Context)
	assert.Equal(t, file+":3:2", err.Location.String())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "E222"))

	orig := New("E201")
	assert.Same(t, orig, FromError(fmt.Errorf("ctx: %w", orig), "E222"))

	wrapped := FromError(fmt.Errorf("plain"), "E222")
	assert.Equal(t, "E222", wrapped.Code)
	assert.EqualError(t, wrapped.Wrapped, "plain")
}

func TestHasCode(t *testing.T) {
	joined := errors.Join(fmt.Errorf("other"), fmt.Errorf("wrap: %w", New("E204")))
	assert.True(t, HasCode(joined, "E204"))
	assert.False(t, HasCode(joined, "E201"))
	assert.False(t, HasCode(nil, "E201"))
	assert.True(t, HasCode(New("E204").Wrap(New("E201")), "E201"))
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E222").WithSuggestion("check the generator config").Wrap(fmt.Errorf("boom"))
	out := err.Format()

	assert.Contains(t, out, "ERROR E222: Generator failed")
	assert.Contains(t, out, "Cause: boom")
	assert.Contains(t, out, "Hint: check the generator config")
	assert.Contains(t, out, "Learn more: https://kosmojs.dev/docs/errors/E222")
	assert.NotContains(t, out, "\033[")
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Print(&b, errors.Join(New("E204"), fmt.Errorf("plain")))
	assert.Contains(t, b.String(), "ERROR E204: Route resolution failed")
	assert.Contains(t, b.String(), "ERROR plain")
}

func TestFormatCompact(t *testing.T) {
	err := New("E201").WithLocation("missing.ts", 4, 0)
	assert.Equal(t, "missing.ts:4: E201: Route signature extraction failed", err.FormatCompact())
}

func TestMarshalJSON(t *testing.T) {
	err := New("E233").Wrap(fmt.Errorf("nil map"))
	b, jerr := json.Marshal(err)
	require.NoError(t, jerr)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "E233", out["code"])
	assert.Equal(t, "worker", out["category"])
	assert.Equal(t, "nil map", out["cause"])
}

func TestRegistryTemplatesComplete(t *testing.T) {
	for _, code := range GetAllCodes() {
		tpl, ok := GetTemplate(code)
		require.True(t, ok)
		assert.NotEmpty(t, tpl.Category, code)
		assert.NotEmpty(t, tpl.Message, code)
		assert.True(t, strings.HasSuffix(tpl.DocURL, code), code)
	}
}

func TestWrapText(t *testing.T) {
	assert.Nil(t, wrapText("", 10))
	assert.Equal(t, []string{"short"}, wrapText("short", 10))
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
}
