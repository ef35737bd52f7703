package glsl

import "time"

// ClockState is the value-type snapshot a Clock hands to its callback
// and to Hooks.Run on every tick.
type ClockState struct {
	Time    float64
	Delta   float64
	Frame   int64
	Running bool
	FPS     float64
}

// TickFunc receives a ClockState snapshot on every tick.
type TickFunc func(ClockState)

// Clock schedules ticks and tracks elapsed time across pause/resume
// cycles. Start arms a timer via time.AfterFunc, so scheduled ticks (and
// the callback they invoke) run on the timer's goroutine, not the
// caller's; Stop disarms it.
// now defaults to time.Now but can be overridden by tests for
// deterministic elapsed-time math.
type Clock struct {
	now func() time.Time

	cb      TickFunc
	timer   *time.Timer
	maxFps  int

	origin time.Time // wall-clock time that corresponds to state.time == 0
	state  ClockState
}

// NewClock creates a stopped Clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Start arms the clock: if this is the first start (frame == 0) the
// wall-clock origin is now; otherwise the origin is shifted so that
// elapsed time resumes smoothly from the previously accumulated value
// rather than counting the paused interval.
func (c *Clock) Start(cb TickFunc) {
	c.cb = cb
	if c.state.Frame == 0 {
		c.origin = c.now()
	} else {
		c.origin = c.now().Add(-time.Duration(c.state.Time * float64(time.Second)))
	}
	c.state.Running = true
	c.scheduleNext()
}

// Stop cancels any pending tick. time, delta and frame are preserved.
func (c *Clock) Stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state.Running = false
}

// Reset stops the clock and zeroes every counter.
func (c *Clock) Reset() {
	c.Stop()
	c.state = ClockState{}
}

// Tick performs one manual, synchronous step: advances time by dt,
// increments frame, records delta, smooths fps and invokes the callback
// with a snapshot. Used for deterministic single-frame rendering and by
// the scheduled-tick path below.
func (c *Clock) Tick(dt float64) {
	c.state.Time += dt
	c.state.Delta = dt
	c.state.Frame++
	if dt > 0 {
		c.state.FPS = 0.95*c.state.FPS + 0.05*(1/dt)
	}
	if c.cb != nil {
		c.cb(c.state)
	}
}

// SetCallback sets the tick callback without arming the scheduler,
// letting Tick be used standalone for deterministic single-frame
// rendering instead of through Start's wall-clock scheduling.
func (c *Clock) SetCallback(cb TickFunc) {
	c.cb = cb
}

// SetTime writes time directly, for scrubbing.
func (c *Clock) SetTime(t float64) {
	c.state.Time = t
}

// SetMaxFps bounds the scheduled tick rate. n == 0 means unlimited.
func (c *Clock) SetMaxFps(n int) {
	c.maxFps = n
}

// State returns the current snapshot.
func (c *Clock) State() ClockState {
	return c.state
}

func (c *Clock) scheduleNext() {
	interval := time.Duration(0)
	if c.maxFps > 0 {
		interval = time.Second / time.Duration(c.maxFps)
	}
	c.timer = time.AfterFunc(interval, c.onTimer)
}

func (c *Clock) onTimer() {
	if !c.state.Running {
		return
	}
	dt := c.now().Sub(c.origin).Seconds() - c.state.Time
	c.Tick(dt)
	c.scheduleNext()
}
