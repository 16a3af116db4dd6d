// Package storage holds helpers shared by the vector store adapters.
package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Rank orders records by closeness to text.
//
// When an embedding function is given and records carry embeddings, the
// distance is 1 - cosine similarity over those records. Otherwise the
// distance is the fraction of query terms absent from the record, and
// records sharing no term with the query are dropped.
// A limit of zero or less returns every match.
func Rank(ctx context.Context, text string, records []domain.Record, ef driven.EmbeddingFunction, limit int) ([]domain.QueryMatch, error) {
	var matches []domain.QueryMatch

	if ef != nil && anyEmbedded(records) {
		query, err := ef.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
		for _, rec := range records {
			if len(rec.Embedding) == 0 || len(rec.Embedding) != len(query) {
				continue
			}
			matches = append(matches, domain.QueryMatch{
				Record:   rec,
				Distance: 1 - CosineSimilarity(query, rec.Embedding),
			})
		}
	} else {
		terms := uniqueTerms(text)
		for _, rec := range records {
			if len(terms) == 0 {
				matches = append(matches, domain.QueryMatch{Record: rec, Distance: 1})
				continue
			}
			present := termSet(rec.Content)
			hits := 0
			for _, term := range terms {
				if present[term] {
					hits++
				}
			}
			if hits == 0 {
				continue
			}
			matches = append(matches, domain.QueryMatch{
				Record:   rec,
				Distance: 1 - float64(hits)/float64(len(terms)),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Handle zero vectors
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func anyEmbedded(records []domain.Record) bool {
	for _, rec := range records {
		if len(rec.Embedding) > 0 {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func uniqueTerms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, tok := range tokenize(text) {
		if !seen[tok] {
			seen[tok] = true
			terms = append(terms, tok)
		}
	}
	return terms
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(text) {
		set[tok] = true
	}
	return set
}
