// Package glitch scrambles text into random block characters and resolves it
// back to the original a half character per frame.
package glitch

import (
	"math/rand"
	"time"
)

// Charset is the pool scrambled characters are drawn from.
const Charset = "█▓▒░╔╗╚╝║═╠╣╬▲▶▼◀●◆★!@#$%^&*<>{}[]01"

const (
	// Duration is the nominal length of one glitch.
	Duration = 150 * time.Millisecond
	// Interval is the time between two frames.
	Interval = Duration / 6
)

type Scrambler struct {
	rng     *rand.Rand
	charset []rune
}

// NewScrambler draws from Charset using rng. A fixed seed gives a fixed
// sequence.
func NewScrambler(rng *rand.Rand) *Scrambler {
	return &Scrambler{rng: rng, charset: []rune(Charset)}
}

// Frames returns every frame of the glitch of text. At frame i the first i/2
// runes are already resolved; the last frame is text itself.
func (s *Scrambler) Frames(text string) []string {
	orig := []rune(text)
	n := 2 * len(orig)
	if n == 0 {
		return []string{text}
	}
	frames := make([]string, 0, n)
	buf := make([]rune, len(orig))
	for i := 0; i < n-1; i++ {
		for j := range orig {
			if 2*j < i {
				buf[j] = orig[j]
			} else {
				buf[j] = s.charset[s.rng.Intn(len(s.charset))]
			}
		}
		frames = append(frames, string(buf))
	}
	return append(frames, text)
}

// Sequence plays a precomputed glitch against a clock.
type Sequence struct {
	frames []string
	start  time.Time
}

func (s *Scrambler) Start(text string, now time.Time) *Sequence {
	return &Sequence{frames: s.Frames(text), start: now}
}

// At returns the frame showing at now and whether the sequence has finished.
func (q *Sequence) At(now time.Time) (string, bool) {
	i := int(now.Sub(q.start) / Interval)
	if i < 0 {
		i = 0
	}
	if i >= len(q.frames)-1 {
		return q.frames[len(q.frames)-1], true
	}
	return q.frames[i], false
}
