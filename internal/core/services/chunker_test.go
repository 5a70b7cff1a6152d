package services

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, Chunk("", 100, 4))
	assert.Empty(t, Chunk("  \n\n \t ", 100, 4))
}

func TestChunk_SingleParagraph(t *testing.T) {
	chunks := Chunk("  The Earth orbits the Sun.  ", 100, 4)
	assert.Equal(t, []string{"The Earth orbits the Sun."}, chunks)
}

func TestChunk_PacksParagraphs(t *testing.T) {
	text := "alpha one.\n\nbeta two.\n\n\n  \ngamma three."

	chunks := Chunk(text, 25, 8)

	assert.Equal(t, []string{"alpha one.\n\nbeta two.", "gamma three."}, chunks)
}

func TestChunk_SplitsOversizedParagraphIntoSentences(t *testing.T) {
	text := "First sentence here. Second one! Third?"

	chunks := Chunk(text, 25, 8)

	assert.Equal(t, []string{"First sentence here.", "Second one!\n\nThird?"}, chunks)
}

func TestChunk_SentenceKeepsClosingQuote(t *testing.T) {
	text := `He said "yes." Then he left the room quietly.`

	chunks := Chunk(text, 20, 8)

	require.NotEmpty(t, chunks)
	assert.Equal(t, `He said "yes."`, chunks[0])
}

func TestChunk_RespectsCap(t *testing.T) {
	var paras []string
	for i := 0; i < 50; i++ {
		paras = append(paras, strings.Repeat("word ", 10)+"end.")
	}

	chunks := Chunk(strings.Join(paras, "\n\n"), 60, 3)

	assert.Len(t, chunks, 3)
}

func TestChunk_DefaultsForNonPositiveArguments(t *testing.T) {
	text := strings.Repeat("a", 2500)

	chunks := Chunk(text, 0, 0)

	// One paragraph, one sentence unit longer than the default target.
	require.Len(t, chunks, 1)
	assert.Equal(t, 2500, utf8.RuneCountInString(chunks[0]))
}

func TestChunk_CountsRunes(t *testing.T) {
	para := strings.Repeat("é", 10)
	text := para + "\n\n" + para

	chunks := Chunk(text, 22, 8)

	assert.Equal(t, []string{para + "\n\n" + para}, chunks)
}

func TestChunk_LosslessForShortParagraphs(t *testing.T) {
	paras := []string{"One fact.", "Two facts here.", "Three facts, all true.", "Four."}

	chunks := Chunk(strings.Join(paras, "\n\n"), 30, 10)

	assert.Equal(t, strings.Join(paras, "\n\n"), strings.Join(chunks, "\n\n"))
}

func TestChunk_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"sun", "earth", "orbit", "moon", "gravity", "planet", "star", "light"}

	for iter := 0; iter < 200; iter++ {
		var paras []string
		for p := 0; p < 1+rng.Intn(12); p++ {
			var sentences []string
			for s := 0; s < 1+rng.Intn(8); s++ {
				n := 1 + rng.Intn(25)
				ws := make([]string, n)
				for i := range ws {
					ws[i] = words[rng.Intn(len(words))]
				}
				sentences = append(sentences, strings.Join(ws, " ")+".")
			}
			paras = append(paras, strings.Join(sentences, " "))
		}
		text := strings.Join(paras, "\n\n")
		target := 20 + rng.Intn(300)
		maxChunks := 1 + rng.Intn(6)

		chunks := Chunk(text, target, maxChunks)

		require.LessOrEqual(t, len(chunks), maxChunks)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			if utf8.RuneCountInString(c) <= target {
				continue
			}
			// Only a single unit (one sentence of an oversized paragraph) may overflow.
			assert.NotContains(t, c, chunkSeparator, "packed chunk exceeds target %d", target)
			assert.True(t, paragraphLongerThan(paras, c, target), "overflowing chunk must come from an oversized paragraph")
		}
	}
}

func paragraphLongerThan(paras []string, fragment string, target int) bool {
	for _, p := range paras {
		if strings.Contains(p, fragment) && utf8.RuneCountInString(p) > target {
			return true
		}
	}
	return false
}

func TestSliceRunes(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, sliceRunes("abcdefg", 3, 5))
	assert.Equal(t, []string{"abc", "def"}, sliceRunes("abcdefg", 3, 2))
}
