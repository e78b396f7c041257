// Package textsplit segments prose into word-bounded chunks that never cut
// through a sentence.
package textsplit

import (
	"regexp"
	"strings"
)

const (
	DefaultMaxWords = 120
	DefaultMinWords = 30
)

// A sentence ends at . ! or ? followed by whitespace; the punctuation stays
// with the sentence.
var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// Chunk is one emitted segment and its position in the source text.
type Chunk struct {
	Text      string
	WordCount int
	Index     int
}

// Split breaks text into chunks of at most maxWords words using, in order,
// paragraphs, lines and sentences as the unit of packing. A unit that alone
// exceeds maxWords is emitted as-is. Chunks with fewer than minWords words
// are dropped, not merged into a neighbour.
func Split(text string, maxWords, minWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if minWords < 0 {
		minWords = 0
	}

	text = normalizeNewlines(text)

	var chunks []string
	for _, para := range nonEmpty(strings.Split(text, "\n\n")) {
		if countWords(para) <= maxWords {
			chunks = append(chunks, para)
			continue
		}

		lines := nonEmpty(strings.Split(para, "\n"))
		if len(lines) > 1 {
			chunks = append(chunks, pack(lines, maxWords)...)
			continue
		}

		chunks = append(chunks, pack(splitSentences(para), maxWords)...)
	}

	kept := chunks[:0]
	for _, c := range chunks {
		if countWords(c) >= minWords {
			kept = append(kept, c)
		}
	}
	return kept
}

// SplitChunks is Split with word counts and positions attached.
func SplitChunks(text string, maxWords, minWords int) []Chunk {
	parts := Split(text, maxWords, minWords)
	out := make([]Chunk, len(parts))
	for i, p := range parts {
		out[i] = Chunk{Text: p, WordCount: countWords(p), Index: i}
	}
	return out
}

// normalizeNewlines turns CRLF and lone CR line endings into LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// pack greedily joins units with a single space, flushing the current chunk
// before a unit that would push it past maxWords.
func pack(units []string, maxWords int) []string {
	var (
		out     []string
		current []string
		count   int
	)
	for _, u := range units {
		n := countWords(u)
		if count+n > maxWords && len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = current[:0]
			count = 0
		}
		current = append(current, u)
		count += n
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, " "))
	}
	return out
}

func splitSentences(para string) []string {
	var (
		out  []string
		last int
	)
	for _, loc := range sentenceEnd.FindAllStringIndex(para, -1) {
		// keep the punctuation, drop the trailing whitespace
		out = append(out, para[last:loc[0]+1])
		last = loc[1]
	}
	if last < len(para) {
		out = append(out, para[last:])
	}
	return out
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
