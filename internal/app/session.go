package app

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"quizroom/internal/domain"
)

// Settings carries the timing and scoring knobs of a session.
type Settings struct {
	QuestionDuration    time.Duration
	PostRoundPause      time.Duration
	CorrectAnswerPoints int
}

const (
	DefaultQuestionDuration    = 15 * time.Second
	DefaultPostRoundPause      = 1500 * time.Millisecond
	DefaultCorrectAnswerPoints = 10
)

func (s Settings) withDefaults() Settings {
	if s.QuestionDuration <= 0 {
		s.QuestionDuration = DefaultQuestionDuration
	}
	if s.PostRoundPause <= 0 {
		s.PostRoundPause = DefaultPostRoundPause
	}
	if s.CorrectAnswerPoints <= 0 {
		s.CorrectAnswerPoints = DefaultCorrectAnswerPoints
	}
	return s
}

// maxNicknameRunes bounds stored nicknames; longer ones are truncated, not rejected.
const maxNicknameRunes = 20

// Round end reasons as shown to clients.
const (
	reasonAllAnswered  = "All players answered"
	reasonTimeUp       = "Time up!"
	reasonHostAdvance  = "Advanced by host"
	reasonAllRemaining = "All remaining players answered"
)

// Session is the single shared quiz room. All state is guarded by mu; the only
// asynchronous inputs are the question and pause timers, whose callbacks re-take
// the lock and check the generation counter so a stale fire is a no-op.
type Session struct {
	settings Settings
	log      zerolog.Logger

	mu          sync.Mutex
	status      domain.SessionStatus
	quiz        domain.Quiz
	current     int
	accepting   bool
	players     *registry
	round       *roundTracker
	hostID      string
	generation  uint64
	timer       *time.Timer
	subscribers map[string]chan domain.Event
}

func newSession(settings Settings, log zerolog.Logger) *Session {
	return &Session{
		settings:    settings.withDefaults(),
		log:         log,
		status:      domain.StatusLobby,
		current:     -1,
		players:     newRegistry(),
		round:       newRoundTracker(),
		subscribers: make(map[string]chan domain.Event),
	}
}

func (s *Session) join(connID, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return domain.ErrEmptyNickname
	}
	if utf8.RuneCountInString(nickname) > maxNicknameRunes {
		nickname = string([]rune(nickname)[:maxNicknameRunes])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.players.upsert(connID, nickname)
	if s.hostID == "" {
		s.hostID = connID
	}
	isHost := s.hostID == connID

	// The join ack reports running only while a question is in bounds; a
	// finished room reads as lobby to a newcomer.
	status := domain.StatusLobby
	if s.status == domain.StatusRunning && s.current >= 0 && s.current < len(s.quiz.Questions) {
		status = domain.StatusRunning
	}
	s.unicastLocked(connID, domain.Event{Type: domain.EventSessionStatus, Payload: domain.StatusNotice{Status: status, IsHost: &isHost}})
	s.broadcastLocked(s.leaderboardLocked())
	s.log.Debug().Str("conn", connID).Str("nickname", nickname).Bool("host", isHost).Msg("player joined")
	return nil
}

func (s *Session) start(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-start guard: once the pointer moved off -1 the run is underway.
	if s.current != -1 {
		return
	}
	s.quiz = quiz
	s.status = domain.StatusRunning
	s.broadcastLocked(statusEvent(domain.StatusRunning))
	s.advanceLocked()
}

func (s *Session) restart(quiz domain.Quiz, resetScores bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.round.reset()
	s.current = -1
	s.accepting = false
	if resetScores {
		s.players.resetScores()
	}
	s.quiz = quiz
	s.status = domain.StatusRunning
	s.broadcastLocked(statusEvent(domain.StatusRunning))
	s.advanceLocked()
}

func (s *Session) submit(connID, questionID string, optionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.accepting {
		return
	}
	question := s.quiz.Questions[s.current]
	if question.ID != questionID {
		return
	}
	if s.round.has(connID) {
		return
	}
	player, ok := s.players.get(connID)
	if !ok {
		return
	}

	s.round.mark(connID)
	correct := optionIndex == question.CorrectOption
	if correct {
		player.Score += s.settings.CorrectAnswerPoints
	}
	s.unicastLocked(connID, domain.Event{Type: domain.EventAnswerOutcome, Payload: domain.AnswerReceipt{
		QuestionID:         question.ID,
		CorrectOptionIndex: question.CorrectOption,
		WasCorrect:         correct,
		Saved:              true,
	}})
	s.broadcastLocked(s.leaderboardLocked())

	if s.round.count() == s.players.size() && s.players.size() > 0 {
		s.endRoundLocked(reasonAllAnswered)
	}
}

func (s *Session) advanceByHost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == -1 {
		return
	}
	s.endRoundLocked(reasonHostAdvance)
}

func (s *Session) leave(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.removePlayerLocked(connID) {
		return
	}
	s.broadcastLocked(s.leaderboardLocked())
}

// disconnect is leave plus a re-check: with fewer players left, the active
// round may now be fully answered.
func (s *Session) disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.removePlayerLocked(connID) {
		return
	}
	if s.accepting && s.players.size() > 0 && s.round.count() == s.players.size() {
		s.endRoundLocked(reasonAllRemaining)
		return
	}
	s.broadcastLocked(s.leaderboardLocked())
}

func (s *Session) removePlayerLocked(connID string) bool {
	if !s.players.remove(connID) {
		return false
	}
	s.round.drop(connID)
	if s.hostID == connID {
		s.hostID = s.players.firstJoined()
	}
	s.log.Debug().Str("conn", connID).Msg("player removed")
	return true
}

func (s *Session) leaderboard() []domain.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players.entries()
}

// advanceLocked moves to the next question or finishes the run.
func (s *Session) advanceLocked() {
	s.cancelTimerLocked()
	s.current++
	s.round.reset()

	if s.current >= len(s.quiz.Questions) {
		s.status = domain.StatusFinished
		s.accepting = false
		s.broadcastLocked(statusEvent(domain.StatusFinished))
		s.broadcastLocked(s.leaderboardLocked())
		s.log.Info().Int("questions", len(s.quiz.Questions)).Msg("session finished")
		return
	}

	question := s.quiz.Questions[s.current]
	s.accepting = true
	s.broadcastLocked(domain.Event{Type: domain.EventQuestion, Payload: domain.QuestionPrompt{
		ID:         question.ID,
		Text:       question.Text,
		Options:    question.Options,
		Position:   s.current + 1,
		TotalCount: len(s.quiz.Questions),
		DurationMs: s.settings.QuestionDuration.Milliseconds(),
	}})
	s.armQuestionTimerLocked()
	s.log.Info().Str("question", question.ID).Int("position", s.current+1).Msg("question started")
}

// endRoundLocked closes the active round at most once and schedules the advance.
func (s *Session) endRoundLocked(reason string) {
	if !s.accepting {
		return
	}
	s.cancelTimerLocked()
	s.accepting = false

	question := s.quiz.Questions[s.current]
	s.broadcastLocked(domain.Event{Type: domain.EventAnswerOutcome, Payload: domain.RoundResult{
		QuestionID:         question.ID,
		CorrectOptionIndex: question.CorrectOption,
		ReasonSummary:      reason,
	}})
	s.broadcastLocked(s.leaderboardLocked())
	s.log.Info().Str("question", question.ID).Str("reason", reason).Msg("round ended")

	gen := s.generation
	s.timer = time.AfterFunc(s.settings.PostRoundPause, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return
		}
		s.advanceLocked()
	})
}

// armQuestionTimerLocked schedules the round timeout. The captured generation
// detects a stale fire that raced cancellation.
func (s *Session) armQuestionTimerLocked() {
	gen := s.generation
	s.timer = time.AfterFunc(s.settings.QuestionDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation || !s.accepting {
			return
		}
		s.endRoundLocked(reasonTimeUp)
	})
}

// cancelTimerLocked invalidates any scheduled callback. Stop is best-effort;
// the generation bump is what makes a fired-but-not-yet-run callback a no-op.
func (s *Session) cancelTimerLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) subscribe(id string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subscribers[id] = ch
	// Fresh buffered channel, no competing sender: safe under the lock.
	ch <- s.leaderboardLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.subscribers[id]; ok && existing == ch {
			delete(s.subscribers, id)
			close(existing)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(evt domain.Event) {
	for _, ch := range s.subscribers {
		offer(ch, evt)
	}
}

func (s *Session) unicastLocked(connID string, evt domain.Event) {
	if ch, ok := s.subscribers[connID]; ok {
		offer(ch, evt)
	}
}

// offer never blocks; when a subscriber is full the oldest event is dropped to
// make room for the newer one.
func offer(ch chan domain.Event, evt domain.Event) {
	select {
	case ch <- evt:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

func (s *Session) leaderboardLocked() domain.Event {
	return domain.Event{Type: domain.EventLeaderboard, Payload: s.players.entries()}
}

func statusEvent(status domain.SessionStatus) domain.Event {
	return domain.Event{Type: domain.EventSessionStatus, Payload: domain.StatusNotice{Status: status}}
}
