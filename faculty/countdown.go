package faculty

import (
	"fmt"
	"time"
)

// Countdown is the mm:ss timer shown while a session runs.
type Countdown struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewCountdown returns a countdown for d, rounded up to whole seconds.
func NewCountdown(d time.Duration) Countdown {
	if d <= 0 {
		return Countdown{}
	}
	total := int((d + time.Second - 1) / time.Second)
	return Countdown{Minutes: total / 60, Seconds: total % 60}
}

// Tick removes one second. It reports whether the countdown reached 00:00.
func (c *Countdown) Tick() bool {
	switch {
	case c.Seconds > 0:
		c.Seconds--
	case c.Minutes > 0:
		c.Minutes--
		c.Seconds = 59
	}
	return c.Zero()
}

func (c Countdown) Zero() bool {
	return c.Minutes == 0 && c.Seconds == 0
}

// Duration returns the time left.
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Minutes)*time.Minute + time.Duration(c.Seconds)*time.Second
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d", c.Minutes, c.Seconds)
}
