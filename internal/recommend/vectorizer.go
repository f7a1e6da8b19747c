// Package recommend implements the content-based recommender: TF-IDF
// vectorization of the canonical job corpus, cosine scoring against a
// profile, and extraction of human-readable reasons. Every operation is
// deterministic for a fixed corpus and profile.
package recommend

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/jobscope/jobscope/internal/canonical"
)

var (
	// ErrEmptyCorpus means vectorization was attempted over zero jobs.
	ErrEmptyCorpus = errors.New("recommender corpus is empty")
	// ErrEmptyVocabulary means no usable term survived tokenization.
	ErrEmptyVocabulary = errors.New("recommender vocabulary is empty")
)

// Options tunes vectorization and reason extraction.
type Options struct {
	MinTermLength int
	MaxReasons    int
}

func (o Options) withDefaults() Options {
	if o.MinTermLength <= 0 {
		o.MinTermLength = 2
	}
	if o.MaxReasons <= 0 {
		o.MaxReasons = 4
	}
	return o
}

// Vectorizer holds the frozen TF-IDF model fitted once over the corpus.
// Profiles are transformed against this fixed vocabulary; unseen profile
// terms contribute zero weight and never trigger a re-fit.
type Vectorizer struct {
	opts Options
	jobs []*canonical.Job
	idf  map[string]float64
	// docs[i] maps term -> tf-idf weight for job i; norms[i] is the
	// Euclidean norm of that vector.
	docs  []map[string]float64
	norms []float64
}

// NewVectorizer fits the model over the canonical jobs. The corpus text of
// a job is its title, skill list and description combined.
func NewVectorizer(jobs []*canonical.Job, opts Options) (*Vectorizer, error) {
	if len(jobs) == 0 {
		return nil, ErrEmptyCorpus
	}
	opts = opts.withDefaults()

	tokenized := make([][]string, len(jobs))
	df := map[string]int{}
	for i, job := range jobs {
		tokens := tokenize(corpusText(job), opts.MinTermLength)
		tokenized[i] = tokens
		for _, term := range uniqueTerms(tokens) {
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	n := float64(len(jobs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(n/(1+float64(count))) + 1
	}

	v := &Vectorizer{
		opts:  opts,
		jobs:  jobs,
		idf:   idf,
		docs:  make([]map[string]float64, len(jobs)),
		norms: make([]float64, len(jobs)),
	}
	for i, tokens := range tokenized {
		v.docs[i] = v.weigh(tokens)
		v.norms[i] = norm(v.docs[i])
	}
	return v, nil
}

// corpusText combines the job fields used for similarity, mirroring what
// the description-driven artifacts expose downstream.
func corpusText(job *canonical.Job) string {
	parts := []string{job.Title, strings.Join(job.Skills, " "), job.Description}
	return strings.Join(parts, " ")
}

// weigh turns a token list into a tf-idf vector over the frozen
// vocabulary. Terms outside the vocabulary are ignored.
func (v *Vectorizer) weigh(tokens []string) map[string]float64 {
	if len(tokens) == 0 {
		return map[string]float64{}
	}
	counts := map[string]int{}
	known := 0
	for _, term := range tokens {
		if _, ok := v.idf[term]; ok {
			counts[term]++
			known++
		}
	}
	vec := make(map[string]float64, len(counts))
	if known == 0 {
		return vec
	}
	for term, count := range counts {
		tf := float64(count) / float64(len(tokens))
		vec[term] = tf * v.idf[term]
	}
	return vec
}

// tokenize lower-cases and splits on anything that is not a letter, digit,
// '+' or '#' (keeping c++ and c# intact), dropping stopwords and tokens
// below the minimum length.
func tokenize(text string, minLen int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minLen || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func norm(vec map[string]float64) float64 {
	// Accumulate over terms in ascending lexical order so the float sum
	// is identical on every run.
	sum := 0.0
	for _, term := range sortedTerms(vec) {
		w := vec[term]
		sum += w * w
	}
	return math.Sqrt(sum)
}

func sortedTerms(vec map[string]float64) []string {
	terms := make([]string, 0, len(vec))
	for t := range vec {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
