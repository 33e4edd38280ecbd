package glitch

import (
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramesReproducible(t *testing.T) {
	a := NewScrambler(rand.New(rand.NewSource(42))).Frames("noisefield")
	b := NewScrambler(rand.New(rand.NewSource(42))).Frames("noisefield")
	assert.Equal(t, a, b)

	c := NewScrambler(rand.New(rand.NewSource(43))).Frames("noisefield")
	assert.NotEqual(t, a, c)
}

func TestFramesResolve(t *testing.T) {
	text := "SCRAPBOOK"
	frames := NewScrambler(rand.New(rand.NewSource(1))).Frames(text)

	require.Len(t, frames, 2*len(text))
	assert.Equal(t, text, frames[len(frames)-1])

	for i, f := range frames {
		require.Equal(t, utf8.RuneCountInString(text), utf8.RuneCountInString(f), "frame %d", i)
		runes := []rune(f)
		for j := 0; 2*j < i && j < len(runes); j++ {
			assert.Equal(t, rune(text[j]), runes[j], "frame %d rune %d", i, j)
		}
	}

	// unresolved positions only ever show charset runes
	for _, r := range []rune(frames[0]) {
		assert.True(t, strings.ContainsRune(Charset, r), "unexpected %q", r)
	}
}

func TestFramesEmpty(t *testing.T) {
	frames := NewScrambler(rand.New(rand.NewSource(1))).Frames("")
	assert.Equal(t, []string{""}, frames)
}

func TestSequence(t *testing.T) {
	start := time.Unix(100, 0)
	seq := NewScrambler(rand.New(rand.NewSource(3))).Start("abc", start)

	first, done := seq.At(start)
	assert.False(t, done)
	assert.Equal(t, 3, utf8.RuneCountInString(first))

	last, done := seq.At(start.Add(5 * Interval))
	assert.True(t, done)
	assert.Equal(t, "abc", last)

	last, done = seq.At(start.Add(time.Hour))
	assert.True(t, done)
	assert.Equal(t, "abc", last)
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 25*time.Millisecond, Interval)
}
