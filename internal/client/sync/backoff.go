package sync

import "time"

// Policy maps a retry count to the delay before the next submission attempt.
// retryCount is the number of failed attempts already recorded, so the first
// retry is computed with retryCount=1.
type Policy func(retryCount int) time.Duration

// CappedExponential returns a policy that doubles base for every prior
// failure and never exceeds cap: base, 2*base, 4*base, ... capped.
func CappedExponential(base, cap time.Duration) Policy {
	return func(retryCount int) time.Duration {
		if retryCount < 1 {
			retryCount = 1
		}
		d := base
		for i := 1; i < retryCount; i++ {
			d *= 2
			if d >= cap || d < 0 {
				return cap
			}
		}
		if d > cap {
			return cap
		}
		return d
	}
}
