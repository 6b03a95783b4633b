package apierr

// Policy describes how a caller reacts to each failure kind
type Policy struct {
	MaxAttempts int // total attempts for retryable kinds
	ReauthOnce  bool
}

// Decision is the action for one failed attempt
type Decision int

const (
	Stop Decision = iota
	Retry
	Reauth
)

// Decide returns the next action after attempt (1-based) failed with err.
// reauthed tells whether a re-authentication was already spent.
func (p Policy) Decide(err error, attempt int, reauthed bool) Decision {
	if attempt >= p.MaxAttempts {
		return Stop
	}
	switch KindOf(err) {
	case KindAuth:
		if p.ReauthOnce && !reauthed {
			return Reauth
		}
		return Stop
	case KindUnavailable:
		return Retry
	default:
		return Stop
	}
}
