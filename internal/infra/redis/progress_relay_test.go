package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
)

func TestProgressRelayForwardsToLocalHub(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	hub := app.NewProgressHub()
	updates, cancelSub := hub.Subscribe(42)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// subscriber instance
	ready, _ := NewProgressRelay(newClient(mr), hub, nil).Run(ctx)
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatalf("relay did not subscribe")
	}

	// publishing instance with its own, empty hub
	publisher := NewProgressRelay(newClient(mr), app.NewProgressHub(), nil)
	date := "2026-01-10"
	publisher.Publish(42, app.ProgressUpdate{
		AttemptID:    1,
		ContentID:    7,
		ScorePercent: 80,
		XPAwarded:    40,
		TotalXP:      40,
		Streak:       domain.StreakView{CurrentStreakDays: 1, LastActiveDateUTC: &date},
	})

	select {
	case got := <-updates:
		if got.XPAwarded != 40 || got.TotalXP != 40 || got.ContentID != 7 {
			t.Fatalf("unexpected update %+v", got)
		}
		if got.Streak.LastActiveDateUTC == nil || *got.Streak.LastActiveDateUTC != date {
			t.Fatalf("streak not relayed: %+v", got.Streak)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for relayed update")
	}
}

func TestProgressRelayFallsBackToLocalHub(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	hub := app.NewProgressHub()
	updates, cancelSub := hub.Subscribe(5)
	defer cancelSub()

	NewProgressRelay(client, hub, nil).Publish(5, app.ProgressUpdate{AttemptID: 9})

	select {
	case got := <-updates:
		if got.AttemptID != 9 {
			t.Fatalf("unexpected update %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected local delivery when redis is down")
	}
}
