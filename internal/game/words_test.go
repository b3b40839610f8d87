package game

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDictionary(t *testing.T) {
	t.Run("trims and de-duplicates", func(t *testing.T) {
		words, err := LoadDictionary([]byte("words:\n  - apple\n  - ' Apple '\n  - banana\n  - ''\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "banana"}, words)
	})

	t.Run("empty list is an error", func(t *testing.T) {
		_, err := LoadDictionary([]byte("words: []\n"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		_, err := LoadDictionary([]byte("words: [unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadDictionaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  - kite\n  - lamp\n"), 0o644))

	words, err := LoadDictionaryFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"kite", "lamp"}, words)

	_, err = LoadDictionaryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWordSelector_Choices(t *testing.T) {
	ws := NewWordSelector(testWords, rand.NewPCG(7, 7))
	assert.Equal(t, len(testWords), ws.Size())

	for i := 0; i < 50; i++ {
		choices := ws.Choices(3)
		require.Len(t, choices, 3)
		assert.Subset(t, testWords, choices)

		seen := map[string]bool{}
		for _, c := range choices {
			assert.False(t, seen[c], "duplicate choice %q", c)
			seen[c] = true
		}
	}

	assert.Len(t, ws.Choices(10), len(testWords))
	assert.Empty(t, ws.Choices(0))
}

func TestWordSelector_Pick(t *testing.T) {
	ws := NewWordSelector(testWords, nil)

	offered := []string{"banana", "eel"}
	for i := 0; i < 20; i++ {
		assert.Contains(t, offered, ws.Pick(offered))
	}
	assert.Contains(t, testWords, ws.Pick(nil))
	assert.Empty(t, NewWordSelector(nil, nil).Pick(nil))
}

func TestHint(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"apple", "_ _ _ _ _"},
		{"a", "_"},
		{"ice cream", "_ _ _   _ _ _ _ _"},
		{"café", "_ _ _ _"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Hint(tt.word), "Hint(%q)", tt.word)
	}
}
