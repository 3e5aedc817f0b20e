package models

import "errors"

// Sentinel errors shared across the service and server layers. The HTTP
// boundary maps ErrRateLimited to 429 and everything else to 503, so the
// mapping depends on errors.Is rather than message text.
var (
	// ErrRateLimited means the per-key quota is exhausted and no usable
	// cached fallback exists. Recoverable once the window elapses.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNoLiveData means the live-quote query returned no usable intraday
	// or recent daily data.
	ErrNoLiveData = errors.New("no live data available")
)
