package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"quizroom/internal/domain"
)

func TestLeaderboardMirrorWritesStandings(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mirror := NewLeaderboardMirror(newClient(mr), time.Minute, zerolog.Nop())

	events := make(chan domain.Event, 4)
	events <- domain.Event{Type: domain.EventSessionStatus, Payload: domain.StatusNotice{Status: domain.StatusRunning}}
	events <- domain.Event{Type: domain.EventLeaderboard, Payload: []domain.LeaderboardEntry{
		{Nickname: "Alice", Score: 20},
		{Nickname: "Bob", Score: 10},
	}}
	close(events)

	done := make(chan struct{})
	go func() {
		mirror.Run(events)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("mirror did not drain events")
	}

	if got, err := mr.Get("quizroom:status"); err != nil || got != "running" {
		t.Fatalf("expected running status mirrored, got %q (%v)", got, err)
	}
	score, err := mr.ZScore("quizroom:leaderboard", "Alice")
	if err != nil || score != 20 {
		t.Fatalf("expected Alice at 20, got %v (%v)", score, err)
	}
	if got := mr.HGet("quizroom:ranks", "1"); got != "Alice" {
		t.Fatalf("expected Alice at rank 1, got %q", got)
	}
	if got := mr.HGet("quizroom:ranks", "2"); got != "Bob" {
		t.Fatalf("expected Bob at rank 2, got %q", got)
	}
}

func TestLeaderboardMirrorRewritesOnUpdate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mirror := NewLeaderboardMirror(newClient(mr), time.Minute, zerolog.Nop())

	events := make(chan domain.Event, 4)
	events <- domain.Event{Type: domain.EventLeaderboard, Payload: []domain.LeaderboardEntry{
		{Nickname: "Alice", Score: 0},
		{Nickname: "Bob", Score: 0},
	}}
	// Bob left; the mirror must not keep him around from the previous write.
	events <- domain.Event{Type: domain.EventLeaderboard, Payload: []domain.LeaderboardEntry{
		{Nickname: "Alice", Score: 10},
	}}
	close(events)

	mirror.Run(events)

	if _, err := mr.ZScore("quizroom:leaderboard", "Bob"); err == nil {
		t.Fatalf("expected Bob removed from mirror")
	}
	score, err := mr.ZScore("quizroom:leaderboard", "Alice")
	if err != nil || score != 10 {
		t.Fatalf("expected Alice at 10, got %v (%v)", score, err)
	}
}
