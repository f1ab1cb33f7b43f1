package game

import (
	"errors"
	"fmt"

	"vocab-quiz-service/internal/domain"
)

// Team is one side of a classroom team game.
type Team string

const (
	TeamX Team = "X"
	TeamO Team = "O"
)

const (
	// BoardSize is the number of cells on the 3x3 grid.
	BoardSize = 9
	// WinBonus is added to a team's score for three in a row.
	WinBonus = 10
	// Draw is the TeamView.Winner value when the grid fills without a line.
	Draw = "draw"
)

var (
	ErrBadCell     = errors.New("cell out of range")
	ErrCellTaken   = errors.New("cell already claimed")
	ErrNoSelection = errors.New("no cell selected")
	ErrGameOver    = errors.New("team game is over")
)

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func (t Team) other() Team {
	if t == TeamX {
		return TeamO
	}
	return TeamX
}

type teamCell struct {
	word      domain.WordEntry
	owner     Team
	attempted bool
}

// TeamBoard is a tic-tac-toe spelling game between two teams. A team picks a
// cell, hears its word, and claims the cell if the teacher marks the spelling
// correct. A wrong spelling passes the turn and leaves the cell open.
// Like Session it is not safe for concurrent use.
type TeamBoard struct {
	src      Source
	pool     []domain.WordEntry
	cells    [BoardSize]teamCell
	turn     Team
	selected int
	scores   map[Team]int
	winner   string
	started  bool
}

func NewTeamBoard(src Source) *TeamBoard {
	return &TeamBoard{src: src, selected: -1, scores: map[Team]int{TeamX: 0, TeamO: 0}}
}

// Start deals a fresh grid from pool (the built-in pool when empty) and zeroes
// both scores. Pools smaller than the grid repeat words.
func (b *TeamBoard) Start(pool []domain.WordEntry) error {
	if len(pool) == 0 {
		pool = DefaultPool()
	}
	words := distinctPool(pool)
	if len(words) == 0 {
		return fmt.Errorf("%w: team game needs at least one word", domain.ErrInvalidPool)
	}
	b.pool = words
	b.scores[TeamX], b.scores[TeamO] = 0, 0
	b.deal()
	b.started = true
	return nil
}

// Replay deals a new grid and keeps the running scores.
func (b *TeamBoard) Replay() error {
	if !b.started {
		return domain.ErrNotStarted
	}
	b.deal()
	return nil
}

// NewRound deals a new grid and zeroes both scores.
func (b *TeamBoard) NewRound() error {
	if !b.started {
		return domain.ErrNotStarted
	}
	b.scores[TeamX], b.scores[TeamO] = 0, 0
	b.deal()
	return nil
}

func (b *TeamBoard) deal() {
	refs := make([]wordRef, len(b.pool))
	for i := range refs {
		refs[i] = wordRef(i)
	}
	shuffle(b.src, refs)
	for i := range b.cells {
		b.cells[i] = teamCell{word: b.pool[refs[i%len(refs)]]}
	}
	b.turn = TeamX
	b.selected = -1
	b.winner = ""
}

// Select picks an open cell for the team whose turn it is and returns the word
// to read aloud. Selecting again replaces the previous choice.
func (b *TeamBoard) Select(cell int) (domain.WordEntry, error) {
	if err := b.playable(); err != nil {
		return domain.WordEntry{}, err
	}
	if cell < 0 || cell >= BoardSize {
		return domain.WordEntry{}, fmt.Errorf("%w: %d", ErrBadCell, cell)
	}
	if b.cells[cell].owner != "" {
		return domain.WordEntry{}, fmt.Errorf("%w: %d", ErrCellTaken, cell)
	}
	b.selected = cell
	return b.cells[cell].word, nil
}

// Selected returns the word of the selected cell.
func (b *TeamBoard) Selected() (domain.WordEntry, bool) {
	if !b.started || b.selected < 0 {
		return domain.WordEntry{}, false
	}
	return b.cells[b.selected].word, true
}

// Mark records the teacher's verdict on the selected cell. A correct spelling
// claims the cell and scores a point; three in a row adds WinBonus and ends the
// game, a full grid without a line is a draw. Otherwise the turn passes.
func (b *TeamBoard) Mark(correct bool) (TeamView, error) {
	if err := b.playable(); err != nil {
		return TeamView{}, err
	}
	if b.selected < 0 {
		return TeamView{}, ErrNoSelection
	}
	cell := &b.cells[b.selected]
	cell.attempted = true
	b.selected = -1

	if !correct {
		b.turn = b.turn.other()
		return b.View(), nil
	}
	cell.owner = b.turn
	b.scores[b.turn]++
	switch {
	case b.hasLine(b.turn):
		b.winner = string(b.turn)
		b.scores[b.turn] += WinBonus
	case b.full():
		b.winner = Draw
	default:
		b.turn = b.turn.other()
	}
	return b.View(), nil
}

func (b *TeamBoard) playable() error {
	if !b.started {
		return domain.ErrNotStarted
	}
	if b.winner != "" {
		return ErrGameOver
	}
	return nil
}

func (b *TeamBoard) hasLine(t Team) bool {
	for _, line := range winLines {
		if b.cells[line[0]].owner == t && b.cells[line[1]].owner == t && b.cells[line[2]].owner == t {
			return true
		}
	}
	return false
}

func (b *TeamBoard) full() bool {
	for _, c := range b.cells {
		if c.owner == "" {
			return false
		}
	}
	return true
}

func (b *TeamBoard) Started() bool { return b.started }
func (b *TeamBoard) Turn() Team    { return b.turn }
func (b *TeamBoard) Score(t Team) int {
	return b.scores[t]
}

// Reset returns the board to not started.
func (b *TeamBoard) Reset() {
	*b = *NewTeamBoard(b.src)
}

// TeamCellView hides the word of an open cell; only its length is shown.
type TeamCellView struct {
	Owner     Team   `json:"owner,omitempty"`
	Word      string `json:"word,omitempty"`
	Letters   int    `json:"letters"`
	Attempted bool   `json:"attempted"`
}

type TeamView struct {
	Started  bool           `json:"started"`
	Cells    []TeamCellView `json:"cells"`
	Turn     Team           `json:"turn,omitempty"`
	Selected *int           `json:"selected,omitempty"`
	ScoreX   int            `json:"scoreX"`
	ScoreO   int            `json:"scoreO"`
	Winner   string         `json:"winner,omitempty"`
}

func (b *TeamBoard) View() TeamView {
	v := TeamView{
		Started: b.started,
		Cells:   make([]TeamCellView, 0, BoardSize),
		ScoreX:  b.scores[TeamX],
		ScoreO:  b.scores[TeamO],
		Winner:  b.winner,
	}
	if !b.started {
		return v
	}
	v.Turn = b.turn
	if b.selected >= 0 {
		sel := b.selected
		v.Selected = &sel
	}
	for _, c := range b.cells {
		cv := TeamCellView{Owner: c.owner, Letters: len([]rune(c.word.Word)), Attempted: c.attempted}
		if c.owner != "" {
			cv.Word = c.word.Word
		}
		v.Cells = append(v.Cells, cv)
	}
	return v
}
