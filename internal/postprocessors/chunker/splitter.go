// Package chunker provides recursive, separator-aware text splitting.
//
// Text is split on the first separator of a priority list that occurs in it;
// pieces still too long are split again with the remaining separators, and
// small neighbouring pieces are merged back into chunks of at most the
// configured size with the configured overlap. Separators stay attached to
// the start of the piece that follows them, so every chunk is an exact
// substring of the input and the chunks together cover it.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 2000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// DefaultSeparators are tried in order when no language profile applies.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Span is a half-open byte range [Start, End) of the split text.
type Span struct {
	Start int
	End   int
}

// Splitter splits text recursively on a list of separators.
// Lengths are measured in characters (runes).
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
	language   Language
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator priority list.
func WithSeparators(separators ...string) Option {
	return func(s *Splitter) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

// New creates a splitter with the default separators.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the maximum chunk length.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Language returns the profile the splitter was built from, if any.
func (s *Splitter) Language() Language { return s.language }

// Split returns the chunks of text. Empty text yields no chunks.
func (s *Splitter) Split(text string) []string {
	spans := s.SplitSpans(text)
	chunks := make([]string, len(spans))
	for i, sp := range spans {
		chunks[i] = text[sp.Start:sp.End]
	}
	return chunks
}

// SplitSpans returns the byte ranges of each chunk in text.
func (s *Splitter) SplitSpans(text string) []Span {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []Span{{Start: 0, End: len(text)}}
	}
	return s.split(text, Span{Start: 0, End: len(text)}, s.separators)
}

func (s *Splitter) split(text string, within Span, separators []string) []Span {
	segment := text[within.Start:within.End]

	separator := ""
	var remaining []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(segment, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var (
		final []Span
		good  []Span
	)
	for _, piece := range pieces(text, within, separator) {
		if s.length(text, piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(text, good)...)
			good = nil
		}
		if len(remaining) == 0 {
			// Nothing left to split on; emit as is.
			final = append(final, piece)
			continue
		}
		final = append(final, s.split(text, piece, remaining)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(text, good)...)
	}
	return final
}

// merge joins adjacent pieces into chunks no longer than chunkSize,
// carrying up to overlap characters from the end of one chunk into the next.
func (s *Splitter) merge(text string, splits []Span) []Span {
	var (
		merged  []Span
		current []Span
		total   int
	)
	for _, sp := range splits {
		n := s.length(text, sp)
		if total+n > s.chunkSize && len(current) > 0 {
			merged = append(merged, Span{Start: current[0].Start, End: current[len(current)-1].End})
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= s.length(text, current[0])
				current = current[1:]
			}
		}
		current = append(current, sp)
		total += n
	}
	if len(current) > 0 {
		merged = append(merged, Span{Start: current[0].Start, End: current[len(current)-1].End})
	}
	return merged
}

func (s *Splitter) length(text string, sp Span) int {
	return utf8.RuneCountInString(text[sp.Start:sp.End])
}

// pieces cuts within at every occurrence of separator, keeping each
// separator at the start of the following piece. An empty separator cuts
// between characters. Empty pieces are dropped.
func pieces(text string, within Span, separator string) []Span {
	var out []Span
	if separator == "" {
		for i := within.Start; i < within.End; {
			_, size := utf8.DecodeRuneInString(text[i:within.End])
			out = append(out, Span{Start: i, End: i + size})
			i += size
		}
		return out
	}

	start := within.Start
	searchFrom := within.Start
	for {
		idx := strings.Index(text[searchFrom:within.End], separator)
		if idx < 0 {
			break
		}
		cut := searchFrom + idx
		if cut > start {
			out = append(out, Span{Start: start, End: cut})
			start = cut
		}
		searchFrom = cut + len(separator)
	}
	if within.End > start {
		out = append(out, Span{Start: start, End: within.End})
	}
	return out
}
