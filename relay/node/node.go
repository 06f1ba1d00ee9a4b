// Package node validates and decodes the 32-byte ENS node identifier that
// keys every avatar. The node is the only entropy source: fixed hex slices
// of it select the words describing the avatar and seed the generator.
package node

import (
	"strconv"

	"github.com/ensdomains/ens-avatar-fallback/relay/lexicon"
)

// Length is the external form: "0x" followed by 64 hex characters.
const Length = 66

// WordSelection is the lexicon tuple derived from a node.
type WordSelection struct {
	Adjective string
	Adverb    string
	Noun      string
	Animal    string
}

// IsValid reports whether s is a well-formed node identifier. It is a cheap
// classification so the gateway can reject before any downstream work.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	if s[0] != '0' || s[1] != 'x' {
		return false
	}
	for i := 2; i < Length; i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// parseSlice reads the hex characters s[start:end] as an unsigned integer.
// Both hex cases are accepted, matching JavaScript's parseInt(s, 16).
// The caller guarantees a valid node, so the parse cannot fail; the widest
// slice used is 12 hex chars (48 bits), well inside uint64.
func parseSlice(s string, start, end int) uint64 {
	v, _ := strconv.ParseUint(s[start:end], 16, 64)
	return v
}

// Indices returns the four table indices for a valid node, each already
// reduced modulo its table length.
func Indices(s string) (adjective, adverb, noun, animal int) {
	adjective = int(parseSlice(s, 2, 14) % lexicon.AdjectiveCount)
	adverb = int(parseSlice(s, 14, 26) % lexicon.AdverbCount)
	noun = int(parseSlice(s, 26, 38) % lexicon.NounCount)
	animal = int(parseSlice(s, 38, 50) % lexicon.AnimalCount)
	return
}

// Words resolves the node's indices through the lexicon tables. Pure and
// deterministic: the same node always yields the same selection.
func Words(s string) WordSelection {
	adjective, adverb, noun, animal := Indices(s)
	return WordSelection{
		Adjective: lexicon.Adjectives[adjective],
		Adverb:    lexicon.Adverbs[adverb],
		Noun:      lexicon.Nouns[noun],
		Animal:    lexicon.Animals[animal],
	}
}

// Seed returns the generation seed fragment, the final 4 hex chars of the node.
func Seed(s string) uint32 {
	return uint32(parseSlice(s, 62, 66))
}
