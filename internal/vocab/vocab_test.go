package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	v, err := New([]string{"HELLO", " YES ", "NO"})
	require.NoError(t, err)

	assert.Equal(t, 3, v.Len())
	assert.Equal(t, []string{"HELLO", "YES", "NO"}, v.Names())

	name, ok := v.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "YES", name)

	_, ok = v.Name(3)
	assert.False(t, ok)
	_, ok = v.Name(-1)
	assert.False(t, ok)

	idx, ok := v.Index("NO")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = v.Index("MAYBE")
	assert.False(t, ok)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		signs []string
	}{
		{name: "nil", signs: nil},
		{name: "empty", signs: []string{}},
		{name: "blank name", signs: []string{"HELLO", "  "}},
		{name: "duplicate", signs: []string{"YES", "NO", "YES"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.signs)
			assert.Error(t, err)
		})
	}

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestVocabulary_NamesIsACopy(t *testing.T) {
	v, err := New([]string{"A", "B"})
	require.NoError(t, err)

	names := v.Names()
	names[0] = "Z"

	name, _ := v.Name(0)
	assert.Equal(t, "A", name)
}

func TestVocabulary_Equal(t *testing.T) {
	v, err := New([]string{"HELLO", "YES"})
	require.NoError(t, err)

	assert.True(t, v.Equal([]string{"HELLO", "YES"}))
	assert.False(t, v.Equal([]string{"YES", "HELLO"}))
	assert.False(t, v.Equal([]string{"HELLO"}))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads signs in order", func(t *testing.T) {
		path := filepath.Join(dir, "signs.yaml")
		content := "signs:\n  - HELLO\n  - I LOVE YOU\n  - GOOD\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		v, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"HELLO", "I LOVE YOU", "GOOD"}, v.Names())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("no signs", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("signs: []\n"), 0644))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("signs: [HELLO\n"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
