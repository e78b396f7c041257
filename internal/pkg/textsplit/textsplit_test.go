package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = prefix
	}
	return strings.Join(parts, " ")
}

func TestSplit_ShortParagraphKeptVerbatim(t *testing.T) {
	text := words("A", 31)

	chunks := Split(text, 120, 30)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
	assert.Equal(t, 31, countWords(chunks[0]))
}

func TestSplit_DropsParagraphsBelowMinimum(t *testing.T) {
	text := words("keep", 40) + "\n\n" + words("drop", 5) + "\n\n   \n\n"

	chunks := Split(text, 120, 30)

	require.Len(t, chunks, 1)
	assert.Equal(t, words("keep", 40), chunks[0])
}

func TestSplit_DocumentBelowMinimumProducesNothing(t *testing.T) {
	assert.Empty(t, Split("Campaign: Foo\nDescription: Bar", 120, 30))
	assert.Empty(t, Split("", 120, 30))
	assert.Empty(t, Split("\n\n\n", 120, 30))
}

func TestSplit_PacksLinesGreedily(t *testing.T) {
	lines := []string{words("a", 50), words("b", 50), words("c", 50), words("d", 10)}
	text := strings.Join(lines, "\n")

	chunks := Split(text, 120, 30)

	require.Len(t, chunks, 2)
	assert.Equal(t, lines[0]+" "+lines[1], chunks[0])
	assert.Equal(t, lines[2]+" "+lines[3], chunks[1])
}

func TestSplit_TrailingShortLineGroupIsDropped(t *testing.T) {
	lines := []string{words("a", 100), words("b", 115), words("c", 10)}
	text := strings.Join(lines, "\n")

	chunks := Split(text, 120, 30)

	require.Len(t, chunks, 2)
	assert.Equal(t, lines[0], chunks[0])
	assert.Equal(t, lines[1], chunks[1])
}

func TestSplit_SentencesWhenSingleLine(t *testing.T) {
	s1 := words("one", 70) + "."
	s2 := words("two", 70) + "!"
	s3 := words("three", 40) + "?"
	text := s1 + " " + s2 + "  " + s3

	chunks := Split(text, 120, 30)

	require.Len(t, chunks, 2)
	assert.Equal(t, s1, chunks[0])
	assert.Equal(t, s2+" "+s3, chunks[1])
}

func TestSplit_IrreducibleParagraphEmittedWhole(t *testing.T) {
	text := words("word", 200)

	chunks := Split(text, 120, 30)

	require.Len(t, chunks, 1)
	assert.Equal(t, 200, countWords(chunks[0]))
}

func TestSplit_Properties(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString(words("p", 20+i*25))
		b.WriteString(". ")
		b.WriteString(words("q", 15+i*10))
		b.WriteString(".\n")
		b.WriteString(words("r", 33))
		b.WriteString("\n\n")
	}
	text := b.String()

	chunks := Split(text, 120, 30)
	require.NotEmpty(t, chunks)

	lastPos := -1
	for _, c := range chunks {
		n := countWords(c)
		assert.GreaterOrEqual(t, n, 30)

		// order is preserved: each chunk's first words appear after the previous chunk's
		pos := strings.Index(text[lastPos+1:], strings.Fields(c)[0])
		require.GreaterOrEqual(t, pos, 0)
		lastPos += pos + 1
	}
}

func TestSplit_Idempotent(t *testing.T) {
	text := words("x", 90) + "\n\n" + strings.Join([]string{words("y", 80), words("z", 80)}, "\n")

	for _, c := range Split(text, 120, 30) {
		again := Split(c, 120, 30)
		require.Len(t, again, 1)
		assert.Equal(t, c, again[0])
	}
}

func TestSplit_Defaults(t *testing.T) {
	text := words("w", DefaultMaxWords+1)

	chunks := Split(text, 0, DefaultMinWords)

	require.Len(t, chunks, 1)
}

func TestSplitChunks_AssignsPositions(t *testing.T) {
	text := words("a", 40) + "\n\n" + words("b", 3) + "\n\n" + words("c", 35)

	chunks := SplitChunks(text, 120, 30)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 40, chunks[0].WordCount)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 35, chunks[1].WordCount)
}

func TestSplit_CRLFBlankLinesSeparateParagraphs(t *testing.T) {
	p1, p2 := words("first", 40), words("second", 40)

	crlf := Split(p1+"\r\n\r\n"+p2+"\r\n", 120, 30)
	lf := Split(p1+"\n\n"+p2, 120, 30)

	require.Len(t, crlf, 2)
	assert.Equal(t, lf, crlf)
	assert.Equal(t, p1, crlf[0])
	assert.Equal(t, p2, crlf[1])
}
