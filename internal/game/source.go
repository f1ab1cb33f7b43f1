package game

import (
	"math/rand"
	"time"
)

// Source is the entropy a session draws prompts, distractors and shuffles from.
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// NewSource returns a seeded pseudo-random source.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource seeds from the wall clock.
func NewTimeSource() Source {
	return NewSource(time.Now().UnixNano())
}

// shuffle is an in-place Fisher-Yates shuffle driven by src.
func shuffle(src Source, words []wordRef) {
	for i := len(words) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		words[i], words[j] = words[j], words[i]
	}
}

// sample moves k uniformly chosen elements to the front of words.
func sample(src Source, words []wordRef, k int) []wordRef {
	if k > len(words) {
		k = len(words)
	}
	for i := 0; i < k; i++ {
		j := i + src.Intn(len(words)-i)
		words[i], words[j] = words[j], words[i]
	}
	return words[:k]
}
