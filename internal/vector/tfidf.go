package vector

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// minTokenRunes is the shortest term kept.
const minTokenRunes = 2

// Vectorizer builds TF-IDF vectors. A Vectorizer holds no fitted state: every call to
// FitTransform derives the vocabulary from the texts it is given.
type Vectorizer struct {
	tokenizer analysis.Tokenizer
	filter    analysis.TokenFilter
}

// NewVectorizer returns a vectorizer that splits on Unicode word boundaries and lowercases.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		tokenizer: unicode.NewUnicodeTokenizer(),
		filter:    lowercase.NewLowerCaseFilter(),
	}
}

// Tokenize returns the terms of text in order of appearance.
func (v *Vectorizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	stream := v.filter.Filter(v.tokenizer.Tokenize([]byte(text)))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < minTokenRunes {
			continue
		}
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// Matrix is a fitted TF-IDF document-term matrix.
type Matrix struct {
	Vocabulary []string
	Rows       []SparseVector
}

// FitTransform fits a vocabulary on texts and returns one L2-normalized row per text.
// Weights are raw term counts times smoothed idf: ln((1+n)/(1+df)) + 1.
// Texts without terms yield zero rows.
func (v *Vectorizer) FitTransform(texts []string) *Matrix {
	docTerms := make([]map[string]int, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range v.Tokenize(text) {
			counts[term]++
		}
		for term := range counts {
			df[term]++
		}
		docTerms[i] = counts
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	termIndex := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(texts))
	for i, term := range vocab {
		termIndex[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([]SparseVector, len(texts))
	for i, counts := range docTerms {
		row := SparseVector{
			Indices: make([]int, 0, len(counts)),
			Values:  make([]float64, 0, len(counts)),
		}
		for term := range counts {
			row.Indices = append(row.Indices, termIndex[term])
		}
		sort.Ints(row.Indices)
		for _, idx := range row.Indices {
			row.Values = append(row.Values, float64(counts[vocab[idx]])*idf[idx])
		}
		NormalizeL2(row)
		rows[i] = row
	}
	return &Matrix{Vocabulary: vocab, Rows: rows}
}
