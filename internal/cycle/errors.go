package cycle

import "errors"

// Error kinds for the render cycle. Configuration failures need an
// operator fix; the rest are retryable at the next scheduled cycle.
var (
	ErrConfiguration = errors.New("cycle: content source misconfigured")
	ErrContent       = errors.New("cycle: content generation failed")
	ErrRender        = errors.New("cycle: render failed")
	ErrEncode        = errors.New("cycle: bitmap encoding failed")
	ErrPersistence   = errors.New("cycle: store write failed")
)

// Retryable reports whether a failed cycle may simply run again at the
// next scheduled fire time.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrConfiguration)
}
