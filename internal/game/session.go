package game

import (
	"errors"
	"fmt"
	"math"

	"vocab-quiz-service/internal/domain"
)

const (
	// OptionCount is the number of choices shown in normal mode.
	OptionCount = 4
	// MismatchToken is posted in easy mode when the player answers "no".
	MismatchToken = "mismatch"
	// DefaultMatchRate is the easy-mode chance that the displayed word is the prompt.
	DefaultMatchRate = 0.5

	FeedbackCorrect = "Great job! 🎉"
)

// ErrWrongMode is returned when an operation does not apply to the session's difficulty.
var ErrWrongMode = errors.New("operation not valid for difficulty")

// IncorrectFeedback is the message shown after a wrong answer.
func IncorrectFeedback(word string) string {
	return fmt.Sprintf("Try again! The word was %q", word)
}

// Outcome is the result of scoring one answer.
type Outcome struct {
	Correct  bool   `json:"correct"`
	Expected string `json:"expected"`
	Feedback string `json:"feedback"`
}

// Stats is the derived score summary of a session.
type Stats struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Percentage rounds 100*score/total, or 0 when nothing was answered.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

// Option configures a Session.
type Option func(*Session)

// WithMatchRate sets the easy-mode probability that the displayed word is the prompt.
func WithMatchRate(p float64) Option {
	return func(s *Session) {
		if p >= 0 && p <= 1 {
			s.matchRate = p
		}
	}
}

// Session is the state of one player's practice game. It is not safe for
// concurrent use; callers own it exclusively.
type Session struct {
	src       Source
	matchRate float64

	pool       []domain.WordEntry
	difficulty Difficulty
	prompt     wordRef
	options    []wordRef
	score      int
	answered   int
	feedback   string
	started    bool
}

// NewSession returns a NotStarted session drawing entropy from src.
func NewSession(src Source, opts ...Option) *Session {
	s := &Session{src: src, matchRate: DefaultMatchRate}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a session over pool (the built-in pool when empty). On an invalid
// pool the session is left as it was and the error wraps domain.ErrInvalidPool.
func (s *Session) Start(pool []domain.WordEntry, d Difficulty) error {
	if d == "" {
		d = Normal
	}
	if !d.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	if len(pool) == 0 {
		pool = DefaultPool()
	}
	words := distinctPool(pool)
	if len(words) < d.MinPool() {
		return fmt.Errorf("%w: %s mode needs at least %d distinct words, got %d",
			domain.ErrInvalidPool, d, d.MinPool(), len(words))
	}

	s.Reset()
	s.pool = words
	s.difficulty = d
	s.started = true
	s.advance()
	return nil
}

// NextPrompt draws a new prompt uniformly from the pool (repeats allowed) and
// regenerates the options for the session's difficulty.
func (s *Session) NextPrompt() (domain.WordEntry, error) {
	if !s.started {
		return domain.WordEntry{}, domain.ErrNotStarted
	}
	s.advance()
	return s.pool[s.prompt], nil
}

func (s *Session) advance() {
	s.prompt = wordRef(s.src.Intn(len(s.pool)))
	s.feedback = ""

	switch s.difficulty {
	case Normal:
		distractors := sample(s.src, s.others(), OptionCount-1)
		options := append([]wordRef{s.prompt}, distractors...)
		shuffle(s.src, options)
		s.options = options
	case Easy:
		s.options = []wordRef{s.candidate()}
	default:
		s.options = nil
	}
}

// candidate picks the easy-mode displayed word.
func (s *Session) candidate() wordRef {
	match := s.src.Float64() < s.matchRate
	others := s.others()
	if match || len(others) == 0 {
		return s.prompt
	}
	return others[s.src.Intn(len(others))]
}

func (s *Session) others() []wordRef {
	refs := make([]wordRef, 0, len(s.pool)-1)
	for i := range s.pool {
		if wordRef(i) != s.prompt {
			refs = append(refs, wordRef(i))
		}
	}
	return refs
}

// Answer scores submitted against the prompt. The round does not advance.
// In easy mode MismatchToken means "the displayed word is not the one I heard".
func (s *Session) Answer(submitted string) (Outcome, error) {
	if !s.started {
		return Outcome{}, domain.ErrNotStarted
	}
	prompt := s.pool[s.prompt].Word
	if s.difficulty == Easy && Normalize(submitted) == MismatchToken && !SameWord(prompt, MismatchToken) {
		return s.record(s.options[0] != s.prompt), nil
	}
	return s.record(SameWord(submitted, prompt)), nil
}

// Confirm answers an easy-mode round: match is the player's yes/no.
func (s *Session) Confirm(match bool) (Outcome, error) {
	if !s.started {
		return Outcome{}, domain.ErrNotStarted
	}
	if s.difficulty != Easy {
		return Outcome{}, fmt.Errorf("%w: confirm in %s mode", ErrWrongMode, s.difficulty)
	}
	return s.record(match == (s.options[0] == s.prompt)), nil
}

func (s *Session) record(correct bool) Outcome {
	s.answered++
	word := s.pool[s.prompt].Word
	if correct {
		s.score++
		s.feedback = FeedbackCorrect
	} else {
		s.feedback = IncorrectFeedback(word)
	}
	return Outcome{Correct: correct, Expected: word, Feedback: s.feedback}
}

// Reset returns the session to NotStarted.
func (s *Session) Reset() {
	s.pool = nil
	s.difficulty = ""
	s.prompt = 0
	s.options = nil
	s.score = 0
	s.answered = 0
	s.feedback = ""
	s.started = false
}

// Stats returns the running score summary.
func (s *Session) Stats() Stats {
	return Stats{Score: s.score, Total: s.answered, Percentage: Percentage(s.score, s.answered)}
}

func (s *Session) Started() bool          { return s.started }
func (s *Session) Difficulty() Difficulty { return s.difficulty }
func (s *Session) Score() int             { return s.score }
func (s *Session) Answered() int          { return s.answered }
func (s *Session) Feedback() string       { return s.feedback }
func (s *Session) PoolSize() int          { return len(s.pool) }

// Prompt returns the word being tested; ok is false before Start.
func (s *Session) Prompt() (domain.WordEntry, bool) {
	if !s.started {
		return domain.WordEntry{}, false
	}
	return s.pool[s.prompt], true
}

// Candidate is the word displayed in an easy-mode round.
func (s *Session) Candidate() (domain.WordEntry, bool) {
	if !s.started || s.difficulty != Easy {
		return domain.WordEntry{}, false
	}
	return s.pool[s.options[0]], true
}

// Options returns a copy of the entries shown this round.
func (s *Session) Options() []domain.WordEntry {
	out := make([]domain.WordEntry, len(s.options))
	for i, ref := range s.options {
		out[i] = s.pool[ref]
	}
	return out
}

// View is what a player may see of the round; it never carries the prompt word.
type View struct {
	Started    bool       `json:"started"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Options    []string   `json:"options"`
	Letters    int        `json:"letters,omitempty"`
	Score      int        `json:"score"`
	Answered   int        `json:"answered"`
	Feedback   string     `json:"feedback,omitempty"`
}

// View snapshots the round for rendering. Hard mode exposes the word length.
func (s *Session) View() View {
	v := View{
		Started:    s.started,
		Difficulty: s.difficulty,
		Options:    make([]string, 0, len(s.options)),
		Score:      s.score,
		Answered:   s.answered,
		Feedback:   s.feedback,
	}
	for _, ref := range s.options {
		v.Options = append(v.Options, s.pool[ref].Word)
	}
	if s.started && s.difficulty == Hard {
		v.Letters = len([]rune(s.pool[s.prompt].Word))
	}
	return v
}
