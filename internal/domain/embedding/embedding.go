// Package embedding loads plain-text word-vector tables and computes
// averaged document vectors and cosine similarity over them.
package embedding

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/talentgrid/placer/pkg/metrics"
)

// Fallback strategies for out-of-vocabulary tokens, reported to metrics.
const (
	strategyExact     = "exact"
	strategySubstring = "substring"
	strategyCharacter = "character"
)

// charOverlapFloor is the minimum character-set similarity a fallback
// match must reach before it is used for an unknown token.
const charOverlapFloor = 0.3

// Table is an immutable word → vector lookup.
type Table struct {
	vectors map[string][]float64
	words   []string // sorted; fallback scans must be deterministic
	dim     int
}

// NewTable builds a table from an in-memory vector map. All vectors
// must share one dimension.
func NewTable(vectors map[string][]float64) (*Table, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyTable
	}
	t := &Table{vectors: make(map[string][]float64, len(vectors))}
	for word, vec := range vectors {
		if t.dim == 0 {
			t.dim = len(vec)
		}
		if len(vec) != t.dim || t.dim == 0 {
			return nil, fmt.Errorf("%w: %q has %d dims, want %d", ErrDimensionMismatch, word, len(vec), t.dim)
		}
		t.vectors[word] = vec
		t.words = append(t.words, word)
	}
	sort.Strings(t.words)
	return t, nil
}

// Load reads a table in the usual text format: one entry per line,
// "word v1 v2 … vn".
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embedding table: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	vectors := make(map[string][]float64)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	dim := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		vec := make([]float64, 0, len(fields)-1)
		for _, raw := range fields[1:] {
			v, perr := strconv.ParseFloat(raw, 64)
			if perr != nil {
				return nil, fmt.Errorf("parse vector for %q: %w", fields[0], perr)
			}
			vec = append(vec, v)
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: %q has %d dims, want %d", ErrDimensionMismatch, fields[0], len(vec), dim)
		}
		vectors[strings.ToLower(fields[0])] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read embedding table: %w", err)
	}
	t, err := NewTable(vectors)
	if err != nil {
		return nil, err
	}
	metrics.UpdateEmbeddingVocabSize(len(t.words))
	return t, nil
}

// Size returns the vocabulary size.
func (t *Table) Size() int { return len(t.words) }

// Dim returns the vector dimension.
func (t *Table) Dim() int { return t.dim }

// vectorFor resolves a token to a vector. Unknown tokens fall back to
// substring containment, then to the best character-overlap match
// above the floor. The scan order is the sorted vocabulary, so the
// result is stable across runs.
func (t *Table) vectorFor(token string) ([]float64, bool) {
	if vec, ok := t.vectors[token]; ok {
		metrics.RecordEmbeddingFallback(strategyExact)
		return vec, true
	}
	for _, word := range t.words {
		if strings.Contains(word, token) || strings.Contains(token, word) {
			metrics.RecordEmbeddingFallback(strategySubstring)
			return t.vectors[word], true
		}
	}
	best := ""
	bestSim := charOverlapFloor
	for _, word := range t.words {
		if sim := charOverlap(token, word); sim > bestSim {
			best = word
			bestSim = sim
		}
	}
	if best != "" {
		metrics.RecordEmbeddingFallback(strategyCharacter)
		return t.vectors[best], true
	}
	return nil, false
}

// DocumentVector averages the vectors of the text's tokens. Tokens
// with no resolvable vector are skipped; a text with no resolvable
// tokens yields the zero vector.
func (t *Table) DocumentVector(text string) []float64 {
	out := make([]float64, t.dim)
	tokens := tokenize(text)
	matched := 0
	for _, token := range tokens {
		vec, ok := t.vectorFor(token)
		if !ok {
			continue
		}
		for i, v := range vec {
			out[i] += v
		}
		matched++
	}
	if matched > 0 {
		for i := range out {
			out[i] /= float64(matched)
		}
	}
	return out
}

// Similarity is the cosine similarity of the two texts' document
// vectors, clamped to [0, 1].
func (t *Table) Similarity(a, b string) float64 {
	return math.Max(0, Cosine(t.DocumentVector(a), t.DocumentVector(b)))
}

// Cosine computes the cosine similarity of two equal-length vectors.
// Zero vectors compare as 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// charOverlap is the Jaccard similarity of the two words' character
// sets.
func charOverlap(a, b string) float64 {
	setA := make(map[rune]struct{})
	for _, r := range a {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{})
	for _, r := range b {
		setB[r] = struct{}{}
	}
	inter := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	out := raw[:0]
	for _, tok := range raw {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
