package tier

import "time"

// Window is the rate-limit accounting window shared by all tiers.
const Window = time.Hour

// Tier holds per-credential rate-limit parameters.
type Tier struct {
	name              string
	requestsPerWindow int
	burst             int
	blockDuration     time.Duration
}

// Name returns the tier identifier (free, pro, enterprise or a custom name).
func (t Tier) Name() string { return t.name }

// RequestsPerWindow returns the hourly request quota.
func (t Tier) RequestsPerWindow() int { return t.requestsPerWindow }

// Burst returns the short-term burst allowance.
func (t Tier) Burst() int { return t.burst }

// BlockDuration returns how long a credential stays blocked after exceeding
// its quota, regardless of window boundary.
func (t Tier) BlockDuration() time.Duration { return t.blockDuration }

// New creates a custom tier. Non-positive values fall back to the free tier
// parameters.
func New(name string, requestsPerWindow, burst int, blockDuration time.Duration) Tier {
	if requestsPerWindow <= 0 {
		requestsPerWindow = Free.requestsPerWindow
	}
	if burst <= 0 {
		burst = Free.burst
	}
	if blockDuration <= 0 {
		blockDuration = Free.blockDuration
	}
	return Tier{
		name:              name,
		requestsPerWindow: requestsPerWindow,
		burst:             burst,
		blockDuration:     blockDuration,
	}
}

// Built-in tiers.
var (
	Free       = Tier{name: "free", requestsPerWindow: 1000, burst: 50, blockDuration: 5 * time.Minute}
	Pro        = Tier{name: "pro", requestsPerWindow: 10000, burst: 200, blockDuration: 5 * time.Minute}
	Enterprise = Tier{name: "enterprise", requestsPerWindow: 100000, burst: 500, blockDuration: time.Minute}
)

// ByName resolves a built-in tier by name, defaulting to Free.
func ByName(name string) Tier {
	switch name {
	case Pro.name:
		return Pro
	case Enterprise.name:
		return Enterprise
	default:
		return Free
	}
}
