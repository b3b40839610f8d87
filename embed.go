package scribbly

import (
	_ "embed"
)

// WordsYAML is the built-in word dictionary, used when no words file is
// configured.
//
//go:embed static/words.yaml
var WordsYAML []byte
