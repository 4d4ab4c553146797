package depth

import "errors"

// Sentinel errors returned by the package. Wrap them with fmt.Errorf("%w")
// and test with errors.Is.
var (
	// ErrInvalidConfig is returned by constructors when a Config fails
	// validation. The wrapped message names the offending field.
	ErrInvalidConfig = errors.New("depth: invalid config")

	// ErrDegenerateScale is returned by Prewarm when a requested scale or
	// source image cannot produce a drawable result. The per-frame
	// GetScaled path never returns it; degenerate requests there are
	// counted in CacheStats.Rejected and answered with nil.
	ErrDegenerateScale = errors.New("depth: degenerate scale")
)
