package lexicon

import "testing"

func TestTableLengths(t *testing.T) {
	tests := []struct {
		name  string
		table []string
		want  int
	}{
		{"adjectives", Adjectives, AdjectiveCount},
		{"adverbs", Adverbs, AdverbCount},
		{"nouns", Nouns, NounCount},
		{"animals", Animals, AnimalCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.table) != tt.want {
				t.Errorf("len(%s) = %d, want %d", tt.name, len(tt.table), tt.want)
			}
		})
	}
}

func TestTableEntriesNonEmpty(t *testing.T) {
	for name, table := range map[string][]string{
		"adjectives": Adjectives,
		"adverbs":    Adverbs,
		"nouns":      Nouns,
		"animals":    Animals,
	} {
		for i, word := range table {
			if word == "" {
				t.Errorf("%s[%d] is empty", name, i)
			}
		}
	}
}
