package simclock

import (
	"testing"
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/simerr"
)

func TestAdvanceByClampsToEnd(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c := New(start, end)

	_, next, err := c.AdvanceBy(time.Hour)
	if err != nil {
		t.Fatalf("AdvanceBy returned error: %v", err)
	}
	if !next.Equal(end) {
		t.Errorf("AdvanceBy should clamp to simEnd, got %v want %v", next, end)
	}
	if !c.AtEnd() {
		t.Error("clock should report AtEnd after clamping")
	}
}

func TestAdvanceByAtEndIsConflict(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	end := start
	c := New(start, end)

	_, _, err := c.AdvanceBy(time.Minute)
	if simerr.KindOf(err) != simerr.KindConflict {
		t.Fatalf("expected Conflict advancing past simEnd, got %v", err)
	}
}

func TestAdvanceByRejectsNegativeDuration(t *testing.T) {
	c := New(time.Now(), time.Now().Add(time.Hour))
	_, _, err := c.AdvanceBy(-time.Minute)
	if simerr.KindOf(err) != simerr.KindInvalidArgument {
		t.Fatalf("expected InvalidArgument for negative duration, got %v", err)
	}
}

func TestAdvanceToRejectsBackwardsTravel(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	c := New(start, end)
	c.now = start.Add(10 * time.Minute)

	_, _, err := c.AdvanceTo(start.Add(5 * time.Minute))
	if simerr.KindOf(err) != simerr.KindInvalidArgument {
		t.Fatalf("expected InvalidArgument for backwards travel, got %v", err)
	}
}

func TestTickAppliesSpeedMultiplier(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	c := New(start, end)
	if err := c.SetSpeed(2.0); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}

	wall := start
	c.WithWallClock(func() time.Time { return wall })
	c.Play()

	wall = wall.Add(30 * time.Second)
	_, next, err := c.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	want := start.Add(time.Minute) // 30s wall * 2x speed
	if !next.Equal(want) {
		t.Errorf("Tick() = %v, want %v", next, want)
	}
}

func TestTickNoopWhenPaused(t *testing.T) {
	c := New(time.Now(), time.Now().Add(time.Hour))
	prev, next, err := c.Tick()
	if err != nil || !prev.Equal(next) {
		t.Errorf("Tick() while paused should be a no-op, got prev=%v next=%v err=%v", prev, next, err)
	}
}

func TestSetSpeedRejectsNonPositive(t *testing.T) {
	c := New(time.Now(), time.Now().Add(time.Hour))
	if err := c.SetSpeed(0); simerr.KindOf(err) != simerr.KindInvalidArgument {
		t.Errorf("SetSpeed(0) should be InvalidArgument, got %v", err)
	}
	if err := c.SetSpeed(-1); simerr.KindOf(err) != simerr.KindInvalidArgument {
		t.Errorf("SetSpeed(-1) should be InvalidArgument, got %v", err)
	}
}

func TestRestoreRoundTrips(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	now := start.Add(45 * time.Minute)
	sess := domain.Session{
		SimStart: start,
		SimEnd:   end,
		SimNow:   now,
		Playback: domain.PlaybackPaused,
		Speed:    1.5,
	}
	c := Restore(sess)
	if !c.Now().Equal(now) || c.Speed() != 1.5 || c.Playback() != domain.PlaybackPaused {
		t.Errorf("Restore did not round-trip session fields: now=%v speed=%v playback=%v", c.Now(), c.Speed(), c.Playback())
	}
}

func TestRestoreDefaultsZeroSpeed(t *testing.T) {
	sess := domain.Session{SimStart: time.Now(), SimEnd: time.Now().Add(time.Hour), Speed: 0}
	c := Restore(sess)
	if c.Speed() != 1.0 {
		t.Errorf("Restore should default a zero speed to 1.0, got %v", c.Speed())
	}
}
