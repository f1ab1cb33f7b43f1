package game

import (
	"strings"

	"vocab-quiz-service/internal/domain"
)

// DefaultPool returns the built-in sight words used when no word list is chosen.
func DefaultPool() []domain.WordEntry {
	return []domain.WordEntry{
		{Word: "cat", PronunciationHint: "cat", Subcategory: "animals"},
		{Word: "dog", PronunciationHint: "dog", Subcategory: "animals"},
		{Word: "run", PronunciationHint: "run", Subcategory: "actions"},
		{Word: "jump", PronunciationHint: "jump", Subcategory: "actions"},
		{Word: "play", PronunciationHint: "play", Subcategory: "actions"},
		{Word: "book", PronunciationHint: "book", Subcategory: "objects"},
		{Word: "tree", PronunciationHint: "tree", Subcategory: "nature"},
		{Word: "ball", PronunciationHint: "ball", Subcategory: "objects"},
		{Word: "happy", PronunciationHint: "happy", Subcategory: "emotions"},
		{Word: "school", PronunciationHint: "school", Subcategory: "places"},
	}
}

// Normalize is the single comparison rule for answers: trimmed and case-folded.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameWord reports whether two words are equal under Normalize.
func SameWord(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// wordRef is a pool index, so options can be compared without re-normalizing.
type wordRef int

// distinctPool drops blank words and repeats, keeping first occurrences in order.
func distinctPool(pool []domain.WordEntry) []domain.WordEntry {
	seen := make(map[string]struct{}, len(pool))
	out := make([]domain.WordEntry, 0, len(pool))
	for _, entry := range pool {
		key := Normalize(entry.Word)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}
