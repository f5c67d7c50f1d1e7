package app

import (
	"sort"

	"quizroom/internal/domain"
)

// registry tracks joined players keyed by connection id, preserving join order
// so leaderboard ties stay stable.
type registry struct {
	players map[string]*domain.Player
	order   []string
}

func newRegistry() *registry {
	return &registry{players: make(map[string]*domain.Player)}
}

// upsert creates the player or refreshes the nickname of an existing one.
// Existing players keep their score, which is what tolerates reconnects.
func (r *registry) upsert(connID, nickname string) {
	if player, ok := r.players[connID]; ok {
		player.Nickname = nickname
		return
	}
	r.players[connID] = &domain.Player{ConnectionID: connID, Nickname: nickname}
	r.order = append(r.order, connID)
}

func (r *registry) get(connID string) (*domain.Player, bool) {
	player, ok := r.players[connID]
	return player, ok
}

func (r *registry) remove(connID string) bool {
	if _, ok := r.players[connID]; !ok {
		return false
	}
	delete(r.players, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) size() int { return len(r.players) }

func (r *registry) resetScores() {
	for _, player := range r.players {
		player.Score = 0
	}
}

// firstJoined returns the earliest-joined connection still present, or "".
func (r *registry) firstJoined() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// entries projects the leaderboard: score descending, join order breaking ties.
func (r *registry) entries() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(r.players))
	for _, id := range r.order {
		player := r.players[id]
		entries = append(entries, domain.LeaderboardEntry{Nickname: player.Nickname, Score: player.Score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// roundTracker records which connections have answered the active question.
type roundTracker struct {
	answered map[string]struct{}
}

func newRoundTracker() *roundTracker {
	return &roundTracker{answered: make(map[string]struct{})}
}

func (t *roundTracker) reset() {
	t.answered = make(map[string]struct{})
}

func (t *roundTracker) has(connID string) bool {
	_, ok := t.answered[connID]
	return ok
}

func (t *roundTracker) mark(connID string) {
	t.answered[connID] = struct{}{}
}

func (t *roundTracker) drop(connID string) {
	delete(t.answered, connID)
}

func (t *roundTracker) count() int { return len(t.answered) }
