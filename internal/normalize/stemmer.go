package normalize

import (
	"fmt"

	"github.com/kljensen/snowball/english"

	"keysearch/internal/domain"
)

// SnowballStemmer applies the English Snowball (Porter2) algorithm.
type SnowballStemmer struct{}

func (SnowballStemmer) Name() string { return "snowball-english" }

func (SnowballStemmer) Stem(term string) string { return english.Stem(term, true) }

// StemmerByName resolves the stemmer named in configuration.
// "none" and "" return a nil Stemmer.
func StemmerByName(name string) (domain.Stemmer, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "snowball", "porter2":
		return SnowballStemmer{}, nil
	default:
		return nil, fmt.Errorf("unknown stemmer: %s", name)
	}
}
