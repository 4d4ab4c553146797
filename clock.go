package depth

import "time"

// Clock is the time source used for budget windows, sort debouncing,
// warning cooldowns and FPS measurement. The default implementation reads
// time.Now (with its monotonic reading); tests substitute a fixed clock to
// make every time-gated behavior deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
