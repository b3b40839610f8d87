package game

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// hintPlaceholder stands in for every non-space character of the word
const hintPlaceholder = "_"

// Dictionary is the on-disk word list format
type Dictionary struct {
	Words []string `yaml:"words"`
}

// LoadDictionary parses a YAML word list. Entries are trimmed and
// de-duplicated case-insensitively; an empty result is an error.
func LoadDictionary(data []byte) ([]string, error) {
	var dict Dictionary
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to parse word dictionary: %w", err)
	}

	seen := make(map[string]bool, len(dict.Words))
	words := make([]string, 0, len(dict.Words))
	for _, w := range dict.Words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		words = append(words, w)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("word dictionary is empty")
	}
	return words, nil
}

// LoadDictionaryFile reads and parses a YAML word list from disk
func LoadDictionaryFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word dictionary %s: %w", path, err)
	}
	return LoadDictionary(data)
}

// WordSelector hands out candidate words. It is shared by all rooms.
type WordSelector struct {
	mu    sync.Mutex
	words []string
	rng   *rand.Rand
}

// NewWordSelector creates a selector over words. A nil src seeds randomly.
func NewWordSelector(words []string, src rand.Source) *WordSelector {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &WordSelector{
		words: append([]string(nil), words...),
		rng:   rand.New(src),
	}
}

// Size returns the dictionary size
func (ws *WordSelector) Size() int {
	return len(ws.words)
}

// Choices returns up to n distinct random words
func (ws *WordSelector) Choices(n int) []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if n > len(ws.words) {
		n = len(ws.words)
	}
	if n <= 0 {
		return nil
	}

	perm := ws.rng.Perm(len(ws.words))
	choices := make([]string, n)
	for i := 0; i < n; i++ {
		choices[i] = ws.words[perm[i]]
	}
	return choices
}

// Pick chooses uniformly from offered, or from the whole dictionary when
// nothing was offered.
func (ws *WordSelector) Pick(offered []string) string {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	pool := offered
	if len(pool) == 0 {
		pool = ws.words
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[ws.rng.IntN(len(pool))]
}

// Hint masks a word: one placeholder per character, spaces kept as literal
// spaces, tokens separated by a single space. "apple" -> "_ _ _ _ _".
func Hint(word string) string {
	runes := []rune(word)
	tokens := make([]string, len(runes))
	for i, r := range runes {
		if r == ' ' {
			tokens[i] = " "
		} else {
			tokens[i] = hintPlaceholder
		}
	}
	return strings.Join(tokens, " ")
}
