package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"quizroom/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizService owns the single room and the quiz content behind it. Every
// transport handler talks to the same instance; there are no ambient globals.
type QuizService struct {
	quizzes QuizRepository
	quizID  string
	session *Session
	log     zerolog.Logger
}

func NewQuizService(quizzes QuizRepository, quizID string, settings Settings, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes: quizzes,
		quizID:  quizID,
		session: newSession(settings, log),
		log:     log,
	}
}

// Join registers or refreshes a player. The nickname is trimmed and truncated;
// an empty one is rejected and reported to the caller only.
func (s *QuizService) Join(connID, nickname string) error {
	return s.session.join(connID, nickname)
}

// StartSession resolves the quiz content and serves the first question.
// Starting an already-started session is a no-op.
func (s *QuizService) StartSession(ctx context.Context) error {
	quiz, err := s.quizzes.GetQuiz(ctx, s.quizID)
	if err != nil {
		return fmt.Errorf("load quiz: %w", err)
	}
	s.session.start(quiz)
	return nil
}

// RestartSession begins a fresh run, optionally keeping accumulated scores.
// Quiz content is re-resolved so catalog edits land between runs.
func (s *QuizService) RestartSession(ctx context.Context, resetScores bool) error {
	quiz, err := s.quizzes.GetQuiz(ctx, s.quizID)
	if err != nil {
		return fmt.Errorf("load quiz: %w", err)
	}
	s.session.restart(quiz, resetScores)
	return nil
}

// SubmitAnswer records one player's answer for the active question. Stale,
// duplicate, out-of-window, and unknown-player submissions are ignored.
func (s *QuizService) SubmitAnswer(connID, questionID string, optionIndex int) {
	s.session.submit(connID, questionID, optionIndex)
}

// AdvanceByHost force-ends the active round. No-op before the first start.
func (s *QuizService) AdvanceByHost() {
	s.session.advanceByHost()
}

// Leave removes a player who asked out but keeps the connection open.
func (s *QuizService) Leave(connID string) {
	s.session.leave(connID)
}

// Disconnect removes a player whose connection went away. The transport calls
// this exactly once per connection teardown.
func (s *QuizService) Disconnect(connID string) {
	s.session.disconnect(connID)
}

// Leaderboard returns the current standings, best first.
func (s *QuizService) Leaderboard() []domain.LeaderboardEntry {
	return s.session.leaderboard()
}

// Subscribe returns a channel receiving every event addressed to id plus all
// room broadcasts. The caller must invoke the cancel function to avoid leaks.
func (s *QuizService) Subscribe(id string) (<-chan domain.Event, func()) {
	return s.session.subscribe(id)
}
