package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates loaded quiz content is not playable.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrEmptyNickname is returned when a join carries a blank nickname.
	ErrEmptyNickname = errors.New("nickname must not be empty")
)
