// Package audio defines the speech capability the game uses to read words aloud.
package audio

// Speaker reads a word aloud. Calls are fire-and-forget.
type Speaker interface {
	Speak(word string)
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(word string)

func (f SpeakerFunc) Speak(word string) { f(word) }

// Nop is a Speaker that stays silent.
var Nop Speaker = SpeakerFunc(func(string) {})

// OrNop returns s, or Nop when s is nil.
func OrNop(s Speaker) Speaker {
	if s == nil {
		return Nop
	}
	return s
}
