// Package simclock owns a single session's simulated time. It is grounded on
// the teacher's libs/testing.ManualClock (an injectable, manually-advanced
// clock for tests) generalized into the richer step/jump/playback contract
// spec §4.1 requires.
package simclock

import (
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/simerr"
)

// Clock owns the simulated time for one session. It holds no lock of its
// own: the session serializer (internal/core/session) guarantees all
// mutating calls on one session are sequential (spec §5).
type Clock struct {
	start time.Time
	end   time.Time
	now   time.Time

	playback domain.PlaybackState
	speed    float64 // sim-seconds per wall-second

	lastTick time.Time
	wallNow  func() time.Time // injectable for tests; defaults to time.Now
}

// New creates a Clock for a session spanning [start, end], positioned at
// start, paused, at 1x speed.
func New(start, end time.Time) *Clock {
	return &Clock{
		start:    start,
		end:      end,
		now:      start,
		playback: domain.PlaybackPaused,
		speed:    1.0,
		wallNow:  time.Now,
	}
}

// Restore rebuilds a Clock from persisted session fields (used when a
// session is loaded back from a SessionStore).
func Restore(s domain.Session) *Clock {
	c := New(s.SimStart, s.SimEnd)
	c.now = s.SimNow
	c.playback = s.Playback
	c.speed = s.Speed
	if s.Speed <= 0 {
		c.speed = 1.0
	}
	c.lastTick = s.LastTick
	return c
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time { return c.now }

// Start returns the session's simulation start boundary.
func (c *Clock) Start() time.Time { return c.start }

// End returns the session's simulation end boundary.
func (c *Clock) End() time.Time { return c.end }

// Playback returns the current playback state.
func (c *Clock) Playback() domain.PlaybackState { return c.playback }

// Speed returns the current playback speed multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// LastTick returns the wall-clock reference snapshotted by Play/Tick, for
// persistence back onto the session record.
func (c *Clock) LastTick() time.Time { return c.lastTick }

// AdvanceBy moves simulated time forward by d, clamped to the session end.
// Returns (prev, new). d must be >= 0. Fails with Conflict if the clock is
// already at simEnd, and with InvalidArgument if d < 0.
func (c *Clock) AdvanceBy(d time.Duration) (prev, next time.Time, err error) {
	if d < 0 {
		return c.now, c.now, simerr.Field(simerr.KindInvalidArgument, "duration", "advanceBy requires a non-negative duration, got %s", d)
	}
	if !c.now.Before(c.end) {
		return c.now, c.now, simerr.New(simerr.KindConflict, "session is already at simEnd %s", c.end)
	}
	prev = c.now
	next = prev.Add(d)
	if next.After(c.end) {
		next = c.end
	}
	c.now = next
	return prev, next, nil
}

// AdvanceTo jumps simulated time forward to t, clamped to simEnd. Backwards
// travel (t < simNow) or a target before simStart is rejected.
func (c *Clock) AdvanceTo(t time.Time) (prev, next time.Time, err error) {
	if t.Before(c.now) {
		return c.now, c.now, simerr.Field(simerr.KindInvalidArgument, "targetTime", "cannot advance backwards: target %s is before simNow %s", t, c.now)
	}
	if t.Before(c.start) {
		return c.now, c.now, simerr.Field(simerr.KindInvalidArgument, "targetTime", "target %s is before simStart %s", t, c.start)
	}
	prev = c.now
	next = t
	if next.After(c.end) {
		next = c.end
	}
	c.now = next
	return prev, next, nil
}

// Tick converts the wall-clock delta since the last tick (or since Play, on
// the first tick) into simulated time via Speed, then applies AdvanceBy.
// Playback is best-effort: skew under load is acceptable per spec §4.1.
// Tick is a no-op (returns the current time twice, nil error) when not
// playing.
func (c *Clock) Tick() (prev, next time.Time, err error) {
	if c.playback != domain.PlaybackPlaying {
		return c.now, c.now, nil
	}
	wall := c.wallNow()
	elapsed := wall.Sub(c.lastTick)
	c.lastTick = wall
	if elapsed <= 0 {
		return c.now, c.now, nil
	}
	simDelta := time.Duration(float64(elapsed) * c.speed)
	prev, next, err = c.AdvanceBy(simDelta)
	if err != nil {
		// AdvanceBy fails once the clock already sits at simEnd; that tick
		// pauses playback rather than erroring the caller out of a
		// background loop. A tick that only reaches simEnd leaves playback
		// running.
		c.playback = domain.PlaybackPaused
		return prev, next, nil
	}
	return prev, next, nil
}

// Play transitions to the playing state and snapshots the wall-clock
// reference used by subsequent Tick calls.
func (c *Clock) Play() {
	c.playback = domain.PlaybackPlaying
	c.lastTick = c.wallNow()
}

// Pause transitions to the paused state.
func (c *Clock) Pause() {
	c.playback = domain.PlaybackPaused
}

// SetSpeed sets the playback speed multiplier. Rejects s <= 0.
func (c *Clock) SetSpeed(s float64) error {
	if s <= 0 {
		return simerr.Field(simerr.KindInvalidArgument, "speed", "speed must be > 0, got %v", s)
	}
	c.speed = s
	return nil
}

// AtEnd reports whether the clock has reached simEnd.
func (c *Clock) AtEnd() bool { return !c.now.Before(c.end) }

// WithWallClock overrides the wall-clock source (test injection point,
// mirroring libs/testing.Clock).
func (c *Clock) WithWallClock(f func() time.Time) { c.wallNow = f }
