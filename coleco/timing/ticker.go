package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent frame timing.
// Less accurate than AdaptiveLimiter but simpler and good enough for most cases.
type TickerLimiter struct {
	ticker    *time.Ticker
	ch        <-chan time.Time
	framerate int
}

// NewTickerLimiter creates a limiter paced at the given frame rate
// (FramerateNTSC or FrameratePAL).
func NewTickerLimiter(framerate int) *TickerLimiter {
	ticker := time.NewTicker(FrameDuration(framerate))
	return &TickerLimiter{
		ticker:    ticker,
		ch:        ticker.C,
		framerate: framerate,
	}
}

func (t *TickerLimiter) WaitForNextFrame() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(FrameDuration(t.framerate))
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
