package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/calorio/recommender/internal/domain"
)

// AnalyzerMode selects how character n-grams are extracted. The zero value is
// invalid on purpose: the mode materially changes matching for scripts
// without whitespace-delimited words, so callers must pick one explicitly.
type AnalyzerMode int

const (
	analyzerUnset AnalyzerMode = iota

	// AnalyzerChar extracts n-grams from the whole string, crossing word
	// boundaries.
	AnalyzerChar

	// AnalyzerCharWB extracts n-grams only inside space-padded words. Edges
	// of words count, which helps for names in non-space-delimited scripts.
	AnalyzerCharWB
)

// VectorizerConfig holds the text analysis settings for a TextVectorizer.
type VectorizerConfig struct {
	Analyzer     AnalyzerMode
	MinN         int
	MaxN         int
	Lowercase    bool
	StripAccents bool
}

// FoodNameVectorizerConfig is the analysis configuration for food names:
// unbounded character 1-3 grams with case and accent folding.
func FoodNameVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		Analyzer:     AnalyzerChar,
		MinN:         1,
		MaxN:         3,
		Lowercase:    true,
		StripAccents: true,
	}
}

// ActivityNameVectorizerConfig is the analysis configuration for activity
// names: word-bounded character 2-4 grams, tuned for Thai sport names.
func ActivityNameVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		Analyzer:  AnalyzerCharWB,
		MinN:      2,
		MaxN:      4,
		Lowercase: true,
	}
}

func (c VectorizerConfig) validate() error {
	if c.Analyzer != AnalyzerChar && c.Analyzer != AnalyzerCharWB {
		return domain.ErrInvalidAnalyzer
	}
	if c.MinN < 1 || c.MaxN < c.MinN {
		return domain.ErrInvalidAnalyzer
	}
	return nil
}

// TextVectorizer converts short name strings into TF-IDF weighted vectors
// over a character n-gram feature space. The feature space is fixed by Fit;
// vectors produced by different fits are not comparable, so a vectorizer is
// never reused across corpora.
type TextVectorizer struct {
	config VectorizerConfig

	vocabulary map[string]int // n-gram -> feature index
	idf        []float64      // per feature index
	fitted     bool
}

// NewTextVectorizer creates an unfitted vectorizer with the given analysis
// configuration.
func NewTextVectorizer(config VectorizerConfig) *TextVectorizer {
	return &TextVectorizer{config: config}
}

// Dimensions returns the size of the fitted feature space.
func (v *TextVectorizer) Dimensions() int {
	return len(v.vocabulary)
}

// Fit learns the n-gram vocabulary and inverse document frequencies from the
// corpus. Returns ErrEmptyCorpus when the corpus has no documents.
func (v *TextVectorizer) Fit(corpus []string) error {
	if err := v.config.validate(); err != nil {
		return err
	}
	if len(corpus) == 0 {
		return domain.ErrEmptyCorpus
	}

	// Document frequency: each n-gram counts once per document.
	docFrequencies := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, gram := range v.analyze(doc) {
			if !seen[gram] {
				docFrequencies[gram]++
				seen[gram] = true
			}
		}
	}

	// Feature indices are assigned in sorted n-gram order so that repeated
	// fits over the same corpus produce identical vectors.
	terms := make([]string, 0, len(docFrequencies))
	for gram := range docFrequencies {
		terms = append(terms, gram)
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, gram := range terms {
		v.vocabulary[gram] = i
		// Smoothed IDF: ln((1+n)/(1+df)) + 1. Smoothing keeps n-grams that
		// appear in every document from being zeroed out entirely.
		v.idf[i] = math.Log((1+n)/(1+float64(docFrequencies[gram]))) + 1
	}
	v.fitted = true
	return nil
}

// Transform maps documents into L2-normalized TF-IDF vectors in the fitted
// feature space. Documents absent from the fit corpus transform validly;
// n-grams unseen during Fit contribute zero.
func (v *TextVectorizer) Transform(docs []string) ([]SparseVector, error) {
	if !v.fitted {
		return nil, domain.ErrNotFitted
	}

	vectors := make([]SparseVector, len(docs))
	for i, doc := range docs {
		counts := make(map[int]float64)
		for _, gram := range v.analyze(doc) {
			if idx, ok := v.vocabulary[gram]; ok {
				counts[idx]++
			}
		}

		vec := SparseVector{
			Indices: make([]int, 0, len(counts)),
			Values:  make([]float64, 0, len(counts)),
		}
		for idx := range counts {
			vec.Indices = append(vec.Indices, idx)
		}
		sort.Ints(vec.Indices)
		for _, idx := range vec.Indices {
			vec.Values = append(vec.Values, counts[idx]*v.idf[idx])
		}
		vectors[i] = vec.normalized()
	}
	return vectors, nil
}

// FitTransform fits the vectorizer on the corpus and transforms it in one
// pass.
func (v *TextVectorizer) FitTransform(corpus []string) ([]SparseVector, error) {
	if err := v.Fit(corpus); err != nil {
		return nil, err
	}
	return v.Transform(corpus)
}

// analyze extracts character n-grams from a single document.
func (v *TextVectorizer) analyze(doc string) []string {
	doc = v.preprocess(doc)
	if v.config.Analyzer == AnalyzerCharWB {
		return charWBNgrams(doc, v.config.MinN, v.config.MaxN)
	}
	return charNgrams(doc, v.config.MinN, v.config.MaxN)
}

func (v *TextVectorizer) preprocess(doc string) string {
	if v.config.Lowercase {
		doc = strings.ToLower(doc)
	}
	if v.config.StripAccents {
		doc = foldAccents(doc)
	}
	return collapseWhitespace(doc)
}

// accentFolder removes diacritics by canonical decomposition followed by
// stripping combining marks.
var accentFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// charNgrams extracts all n-grams of length minN..maxN from the whole rune
// sequence, crossing word boundaries.
func charNgrams(doc string, minN, maxN int) []string {
	text := []rune(doc)
	var grams []string
	for n := minN; n <= maxN && n <= len(text); n++ {
		for i := 0; i+n <= len(text); i++ {
			grams = append(grams, string(text[i:i+n]))
		}
	}
	return grams
}

// charWBNgrams extracts n-grams inside each word after padding it with a
// single space on both sides. A word shorter than n is emitted once as its
// whole padded form.
func charWBNgrams(doc string, minN, maxN int) []string {
	var grams []string
	for _, word := range strings.Fields(doc) {
		padded := []rune(" " + word + " ")
		for n := minN; n <= maxN; n++ {
			if n >= len(padded) {
				grams = append(grams, string(padded))
				break
			}
			for i := 0; i+n <= len(padded); i++ {
				grams = append(grams, string(padded[i:i+n]))
			}
		}
	}
	return grams
}
