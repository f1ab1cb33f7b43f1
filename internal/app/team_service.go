package app

import (
	"context"

	"go.uber.org/zap"

	"vocab-quiz-service/internal/audio"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
)

// Team games are run by a teacher for a classroom; they replace any quiz in
// progress on the same session and are never submitted to the leaderboard.

// StartTeam deals a tic-tac-toe board from the requested word list.
func (s *GameService) StartTeam(ctx context.Context, req StartRequest, speaker audio.Speaker) (game.TeamView, error) {
	listID, title, pool, err := s.resolvePool(ctx, req.UserID, req.WordListID)
	if err != nil {
		return game.TeamView{}, err
	}
	board := game.NewTeamBoard(s.newSource())
	if err := board.Start(pool); err != nil {
		return game.TeamView{}, err
	}

	ps := s.attach(req, listID, title, speaker, func(ps *PlayerSession) {
		ps.team = board
		ps.game = nil
	})
	ps.mu.Lock()
	view := board.View()
	ps.mu.Unlock()

	s.metrics.SessionStarted("team")
	s.logger.Info("team game started",
		zap.String("user_id", req.UserID),
		zap.String("word_list_id", listID),
	)
	s.countUsage(ctx, listID)
	return view, nil
}

// SelectCell picks a cell for the team on turn and reads its word aloud.
func (s *GameService) SelectCell(_ context.Context, userID string, cell int) (game.TeamView, error) {
	return s.withTeam(userID, func(ps *PlayerSession) (game.TeamView, error) {
		word, err := ps.team.Select(cell)
		if err != nil {
			return game.TeamView{}, err
		}
		ps.speaker.Speak(word.Word)
		return ps.team.View(), nil
	})
}

// MarkCell records whether the team spelled the selected word correctly.
func (s *GameService) MarkCell(_ context.Context, userID string, correct bool) (game.TeamView, error) {
	return s.withTeam(userID, func(ps *PlayerSession) (game.TeamView, error) {
		view, err := ps.team.Mark(correct)
		if err != nil {
			return game.TeamView{}, err
		}
		if view.Winner != "" {
			s.logger.Info("team game decided",
				zap.String("user_id", userID),
				zap.String("winner", view.Winner),
				zap.Int("score_x", view.ScoreX),
				zap.Int("score_o", view.ScoreO),
			)
		}
		return view, nil
	})
}

// SpeakCell repeats the selected cell's word.
func (s *GameService) SpeakCell(_ context.Context, userID string) error {
	_, err := s.withTeam(userID, func(ps *PlayerSession) (game.TeamView, error) {
		word, ok := ps.team.Selected()
		if !ok {
			return game.TeamView{}, game.ErrNoSelection
		}
		ps.speaker.Speak(word.Word)
		return game.TeamView{}, nil
	})
	return err
}

// ReplayTeam deals a new board keeping the scores.
func (s *GameService) ReplayTeam(_ context.Context, userID string) (game.TeamView, error) {
	return s.withTeam(userID, func(ps *PlayerSession) (game.TeamView, error) {
		if err := ps.team.Replay(); err != nil {
			return game.TeamView{}, err
		}
		return ps.team.View(), nil
	})
}

// NewTeamRound deals a new board and clears the scores.
func (s *GameService) NewTeamRound(_ context.Context, userID string) (game.TeamView, error) {
	return s.withTeam(userID, func(ps *PlayerSession) (game.TeamView, error) {
		if err := ps.team.NewRound(); err != nil {
			return game.TeamView{}, err
		}
		return ps.team.View(), nil
	})
}

func (s *GameService) withTeam(userID string, fn func(*PlayerSession) (game.TeamView, error)) (game.TeamView, error) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return game.TeamView{}, domain.ErrSessionNotFound
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.team == nil {
		return game.TeamView{}, domain.ErrNotStarted
	}
	return fn(ps)
}
