package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		alias string
		want  string
		ok    bool
	}{
		{"architecture", "architecture", true},
		{"arch", "architecture", true},
		{"product", "product", true},
		{"product design", "product", true},
		{"requirements", "requirements", true},
		{"reqs", "requirements", true},
		{"nonsense", "", false},
	}
	for _, tt := range tests {
		got, ok := Canonical(tt.alias)
		assert.Equal(t, tt.ok, ok, tt.alias)
		assert.Equal(t, tt.want, got, tt.alias)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"architecture", "product", "requirements"}, Names())
}

func TestLoad_Builtin(t *testing.T) {
	name, content, err := Load("", "arch")
	require.NoError(t, err)
	assert.Equal(t, "architecture", name)
	assert.NotEmpty(t, content)
}

func TestLoad_FileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "product.md"), []byte("custom product template"), 0o644))

	name, content, err := Load(dir, "product design")
	require.NoError(t, err)
	assert.Equal(t, "product", name)
	assert.Equal(t, "custom product template", content)

	// Missing file in the dir falls back to the built-in.
	_, content, err = Load(dir, "reqs")
	require.NoError(t, err)
	assert.Contains(t, content, "Requirements")
}

func TestLoad_UnknownName(t *testing.T) {
	_, _, err := Load("", "marketing")
	require.Error(t, err)
}
