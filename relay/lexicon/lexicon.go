// Package lexicon holds the four fixed word tables an avatar description is
// drawn from. The tables are embedded at build time, split once during
// package init and read-only afterwards.
package lexicon

import (
	_ "embed"
	"fmt"
	"strings"
)

const (
	AdjectiveCount = 1109
	AdverbCount    = 324
	NounCount      = 939
	AnimalCount    = 224
)

//go:embed adjectives.txt
var adjectivesRaw string

//go:embed adverbs.txt
var adverbsRaw string

//go:embed nouns.txt
var nounsRaw string

//go:embed animals.txt
var animalsRaw string

var (
	Adjectives = mustSplit("adjectives", adjectivesRaw, AdjectiveCount)
	Adverbs    = mustSplit("adverbs", adverbsRaw, AdverbCount)
	Nouns      = mustSplit("nouns", nounsRaw, NounCount)
	Animals    = mustSplit("animals", animalsRaw, AnimalCount)
)

func mustSplit(name, raw string, want int) []string {
	words := strings.Split(strings.TrimSpace(raw), "\n")
	if len(words) != want {
		panic(fmt.Sprintf("lexicon: %s table has %d entries, want %d", name, len(words), want))
	}
	return words
}
