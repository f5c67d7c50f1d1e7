package domain

import "fmt"

// Question models a single multiple-choice question. Options are positional;
// CorrectOption is an index into Options.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOptionIndex"`
}

// Quiz is the ordered question catalog a session runs through.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Validate checks that the quiz is playable before it reaches a session.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", ErrInvalidQuiz, q.ID)
	}
	for _, question := range q.Questions {
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %q needs at least 2 options", ErrInvalidQuiz, question.ID)
		}
		if question.CorrectOption < 0 || question.CorrectOption >= len(question.Options) {
			return fmt.Errorf("%w: question %q correct option %d out of range", ErrInvalidQuiz, question.ID, question.CorrectOption)
		}
	}
	return nil
}

// Player is a joined connection and its accumulated score.
type Player struct {
	ConnectionID string
	Nickname     string
	Score        int
}

// LeaderboardEntry is a snapshot-friendly view of a player.
type LeaderboardEntry struct {
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// SessionStatus is the coarse lifecycle state of the room.
type SessionStatus string

const (
	StatusLobby    SessionStatus = "lobby"
	StatusRunning  SessionStatus = "running"
	StatusFinished SessionStatus = "finished"
)
