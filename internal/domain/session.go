package domain

import (
	"time"

	"jax-trading-assistant/internal/money"
)

// PlaybackState is the simulation clock's playback mode.
type PlaybackState string

const (
	PlaybackPaused      PlaybackState = "paused"
	PlaybackPlaying     PlaybackState = "playing"
	PlaybackStepPending PlaybackState = "stepPending"
)

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Session is the root of an isolated simulation: its own clock, accounts,
// orders, and positions. SimNow only advances and is clamped to
// [SimStart, SimEnd].
type Session struct {
	ID       string
	OwnerKey string

	SimStart time.Time
	SimEnd   time.Time
	SimNow   time.Time

	Playback PlaybackState
	Speed    float64 // sim-seconds per wall-second, > 0

	// lastTick is the wall-clock reference snapshotted by Play/Tick. It is
	// not part of the wire representation.
	LastTick time.Time

	InitialCash   money.Decimal
	RealizedPnL   money.Decimal
	UnrealizedPnL money.Decimal

	Status SessionStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}
