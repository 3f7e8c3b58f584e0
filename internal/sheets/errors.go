package sheets

import "errors"

// Sentinel errors for sheet export fetches.
var (
	ErrNotFound    = errors.New("sheets: sheet not found")
	ErrForbidden   = errors.New("sheets: sheet export not publicly accessible")
	ErrRateLimited = errors.New("sheets: rate limited by server")
	ErrServer      = errors.New("sheets: server error")
)
